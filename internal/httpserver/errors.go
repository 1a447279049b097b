package httpserver

import (
	"errors"
	"net/http"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/service/auth"
	"apparel-storefront/internal/service/catalog"
	"apparel-storefront/internal/service/checkout"
	"apparel-storefront/internal/service/payment"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// statusFor maps service and collaborator errors to HTTP status codes.
func statusFor(err error) int {
	var (
		authErr     *auth.ValidationError
		checkoutErr *checkout.ValidationError
		apiErr      *backend.APIError
	)
	switch {
	case errors.As(err, &authErr), errors.As(err, &checkoutErr),
		errors.Is(err, catalog.ErrInvalidQuery), errors.Is(err, catalog.ErrInvalidVariant),
		errors.Is(err, catalog.ErrOutOfStock):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrAttemptSuperseded), errors.Is(err, checkout.ErrSessionNotExpired),
		errors.Is(err, payment.ErrNotPending):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized
		case apiErr.NotFound():
			return http.StatusNotFound
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageFor picks a shopper-facing message, preferring the collaborator's.
func messageFor(err error, fallback string) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	switch statusFor(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusNotFound:
		return "Not found"
	case http.StatusBadGateway:
		return "The store is temporarily unavailable"
	}
	return fallback
}
