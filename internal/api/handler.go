package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/checkout"
	"storefront-service/internal/commerce"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// SessionHeader carries the shopper's session id on every request
const SessionHeader = "X-Session-ID"

const sessionKey = "session_id"

// ReadinessCheck is a dependency checked by /ready
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	storefront *service.StorefrontService
	checkout   *service.CheckoutService
	history    *service.OrderHistory
	account    *service.AccountService
	checks     []ReadinessCheck
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. history may be nil when no
// database is configured.
func NewHandler(
	storefront *service.StorefrontService,
	checkoutService *service.CheckoutService,
	history *service.OrderHistory,
	account *service.AccountService,
	checks ...ReadinessCheck,
) *Handler {
	return &Handler{
		storefront: storefront,
		checkout:   checkoutService,
		history:    history,
		account:    account,
		checks:     checks,
		logger:     util.GetLogger().Named("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(sessionMiddleware())
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/suggestions", h.suggestions)

		products := v1.Group("/products")
		products.GET("", h.browse)
		products.GET("/current", h.currentPage)
		products.POST("/more", h.loadMore)
		products.POST("/refine", h.refine)
		products.POST("/brands/toggle", h.toggleBrand)
		products.GET("/:id", h.getProduct)

		cart := v1.Group("/cart")
		cart.GET("", h.getCart)
		cart.POST("/items", h.addItem)
		cart.PUT("/items/:id", h.setQuantity)
		cart.DELETE("/items/:id", h.removeItem)
		cart.DELETE("", h.clearCart)

		co := v1.Group("/checkout")
		co.GET("", h.checkoutStatus)
		co.POST("/start", h.startCheckout)
		co.POST("/shipping", h.submitShipping)
		co.GET("/shipping-methods", h.shippingMethods)
		co.POST("/shipping-method", h.selectShippingMethod)
		co.POST("/payment", h.submitPayment)
		co.GET("/payment-methods", h.paymentMethods)
		co.POST("/review", h.review)
		co.POST("/place", h.placeOrder)
		co.POST("/back", h.back)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:number", h.getOrder)

		acct := v1.Group("/account")
		acct.POST("/login", h.login)
		acct.POST("/logout", h.logout)
		acct.POST("/register", h.register)
		acct.POST("/password-reset", h.passwordReset)
		acct.GET("", h.profile)
		acct.GET("/orders", h.accountOrders)
		acct.GET("/orders/:number", h.accountOrder)
		acct.GET("/wishlist", h.wishlist)
		acct.POST("/wishlist/items", h.addToWishlist)
		acct.DELETE("/wishlist/items/:id", h.removeFromWishlist)

		v1.DELETE("/session", h.endSession)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": failed,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) endSession(c *gin.Context) {
	if err := h.storefront.EndSession(c.Request.Context(), sessionID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// sessionMiddleware resolves the session id, minting one for new shoppers,
// and echoes it back so the client can keep using it.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(sessionKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// respondError maps service errors to HTTP responses
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *checkout.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required field",
			"field":   ve.Field,
			"details": err.Error(),
		})
		return
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, commerce.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, checkout.ErrPlacementInFlight),
		errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, checkout.ErrCheckoutClosed),
		errors.Is(err, checkout.ErrCartChanged),
		errors.Is(err, service.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Commerce API unavailable",
			"details": err.Error(),
		})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "Commerce API timed out",
			"details": err.Error(),
		})
		return
	case commerce.IsRemoteCallError(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Commerce API request failed",
			"details": err.Error(),
		})
		return
	}

	h.logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.String("session_id", sessionID(c)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal error",
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
