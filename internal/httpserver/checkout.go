package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/service/checkout"
	"apparel-storefront/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Email           string                 `json:"email"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
}

type checkoutHandlers struct {
	publicOrigin string
	watch        payment.Backoff
}

func (h checkoutHandlers) begin(c *gin.Context) {
	q, err := currentVisitor(c).Checkout.Begin()
	if err != nil {
		respondError(c, statusFor(err), checkout.UserMessage(err))
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h checkoutHandlers) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	origin := strings.TrimSuffix(c.GetHeader("Origin"), "/")
	if origin == "" {
		origin = h.publicOrigin
	}

	handoff, err := currentVisitor(c).Checkout.Submit(c.Request.Context(), checkout.SubmitInput{
		Email:   req.Email,
		Address: req.ShippingAddress,
		Origin:  origin,
	})
	if err != nil {
		respondError(c, checkoutStatus(err), checkout.UserMessage(err))
		return
	}
	c.JSON(http.StatusCreated, handoff)
}

// checkoutStatus reports collaborator failures at a stage as 422 when the
// collaborator rejected the request and 502 when it could not be reached.
func checkoutStatus(err error) int {
	var stageErr *checkout.StageError
	if !errors.As(err, &stageErr) {
		return statusFor(err)
	}
	if statusFor(stageErr.Err) < http.StatusInternalServerError {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (h checkoutHandlers) status(c *gin.Context) {
	res := currentVisitor(c).Payment.Check(c.Request.Context(), c.Query("session_id"))
	c.JSON(http.StatusOK, res)
}

func (h checkoutHandlers) recheck(c *gin.Context) {
	res, err := currentVisitor(c).Payment.Recheck(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), "payment status can only be rechecked while pending")
		return
	}
	c.JSON(http.StatusOK, res)
}

// watchStatus streams status results as server-sent events until the
// payment settles, attempts run out, or the client goes away.
func (h checkoutHandlers) watchStatus(c *gin.Context) {
	results := currentVisitor(c).Payment.Watch(c.Request.Context(), c.Query("session_id"), h.watch)
	c.Stream(func(w io.Writer) bool {
		res, ok := <-results
		if !ok {
			return false
		}
		c.SSEvent("status", res)
		return true
	})
}

func (h checkoutHandlers) restore(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "session_id is required")
		return
	}
	v := currentVisitor(c)
	restored, err := v.Checkout.Restore(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotExpired) {
			respondError(c, http.StatusConflict, checkout.UserMessage(err))
			return
		}
		respondError(c, statusFor(err), messageFor(err, "failed to restore cart"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": restored, "cart": cartView(v.Cart)})
}

func ordersHandler(orders OrderLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := currentVisitor(c).Auth.BearerToken()
		if err != nil {
			respondError(c, statusFor(err), "Please sign in to see your orders")
			return
		}
		list, err := orders.ListOrders(c.Request.Context(), token)
		if err != nil {
			respondError(c, statusFor(err), messageFor(err, "failed to load orders"))
			return
		}
		if list == nil {
			list = []domain.Order{}
		}
		c.JSON(http.StatusOK, list)
	}
}
