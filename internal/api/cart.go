package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.storefront.Cart(c.Request.Context(), sessionID(c)))
}

// addItem adds units of a product; quantity defaults to one and may be
// negative to take units away
func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.storefront.AddItem(c.Request.Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) setQuantity(c *gin.Context) {
	id, ok := productParam(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.storefront.SetQuantity(c.Request.Context(), sessionID(c), id, *req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeItem(c *gin.Context) {
	id, ok := productParam(c)
	if !ok {
		return
	}

	view, err := h.storefront.RemoveItem(c.Request.Context(), sessionID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) clearCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.storefront.ClearCart(c.Request.Context(), sessionID(c)))
}

func productParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, false
	}
	return id, true
}
