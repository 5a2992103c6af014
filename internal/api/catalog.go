package api

import (
	"net/http"

	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.storefront.Categories(c.Request.Context()),
	})
}

func (h *Handler) suggestions(c *gin.Context) {
	products, err := h.storefront.Suggestions(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// browse loads a category or search listing
func (h *Handler) browse(c *gin.Context) {
	var req service.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.storefront.Browse(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) currentPage(c *gin.Context) {
	c.JSON(http.StatusOK, h.storefront.CurrentPage(c.Request.Context(), sessionID(c)))
}

func (h *Handler) loadMore(c *gin.Context) {
	c.JSON(http.StatusOK, h.storefront.LoadMore(c.Request.Context(), sessionID(c)))
}

func (h *Handler) refine(c *gin.Context) {
	var req service.RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storefront.Refine(c.Request.Context(), sessionID(c), req))
}

type toggleBrandRequest struct {
	Brand string `json:"brand" binding:"required"`
}

func (h *Handler) toggleBrand(c *gin.Context) {
	var req toggleBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storefront.ToggleBrand(c.Request.Context(), sessionID(c), req.Brand))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := productParam(c)
	if !ok {
		return
	}

	product, err := h.storefront.Product(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
