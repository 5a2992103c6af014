package api

import (
	"net/http"

	"storefront-service/internal/commerce"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type wishlistRequest struct {
	SKU string `json:"sku" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.account.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.account.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	customer, err := h.account.Register(c.Request.Context(), commerce.NewCustomer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) passwordReset(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.account.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) profile(c *gin.Context) {
	customer, err := h.account.Profile(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) accountOrders(c *gin.Context) {
	orders, err := h.account.Orders(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) accountOrder(c *gin.Context) {
	order, err := h.account.Order(c.Request.Context(), bearerToken(c), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) wishlist(c *gin.Context) {
	wl, err := h.account.Wishlist(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (h *Handler) addToWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wl, err := h.account.AddToWishlist(c.Request.Context(), bearerToken(c), req.SKU)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	wl, err := h.account.RemoveFromWishlist(c.Request.Context(), bearerToken(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}
