package api

import (
	"net/http"

	"storefront-service/internal/checkout"
	"storefront-service/internal/commerce"

	"github.com/gin-gonic/gin"
)

func (h *Handler) checkoutStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.checkout.Status(c.Request.Context(), sessionID(c)))
}

func (h *Handler) startCheckout(c *gin.Context) {
	st, err := h.checkout.Start(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) submitShipping(c *gin.Context) {
	var info checkout.ShippingInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}

	st, err := h.checkout.SubmitShipping(c.Request.Context(), sessionID(c), info)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) shippingMethods(c *gin.Context) {
	methods, err := h.checkout.ShippingMethods(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

func (h *Handler) selectShippingMethod(c *gin.Context) {
	var m commerce.Method
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.checkout.SelectShippingMethod(c.Request.Context(), sessionID(c), m); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitPayment(c *gin.Context) {
	var sel checkout.PaymentSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, err)
		return
	}

	st, err := h.checkout.SubmitPayment(c.Request.Context(), sessionID(c), sel)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) paymentMethods(c *gin.Context) {
	methods, err := h.checkout.PaymentMethods(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// review freezes the cart into the order summary
func (h *Handler) review(c *gin.Context) {
	summary, err := h.checkout.Review(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// placeOrder submits the summary. A failed placement still returns the
// checkout status so the summary can offer a retry.
func (h *Handler) placeOrder(c *gin.Context) {
	st, err := h.checkout.PlaceOrder(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) back(c *gin.Context) {
	c.JSON(http.StatusOK, h.checkout.Back(c.Request.Context(), sessionID(c)))
}

// listOrders returns the orders recorded for this session
func (h *Handler) listOrders(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"orders": []any{}})
		return
	}
	orders, err := h.history.ListOrders(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	order, err := h.history.GetOrder(c.Request.Context(), sessionID(c), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
