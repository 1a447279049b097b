package httpserver

import (
	"net/http"

	"apparel-storefront/internal/service/visitor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	visitorCookie = "sf_visitor"
	visitorCtxKey = "visitor"
	cookieMaxAge  = 365 * 24 * 60 * 60
)

// visitorMiddleware resolves the visitor cookie, issuing a new id when it is
// missing or malformed, and loads that visitor's stores.
func visitorMiddleware(visitors VisitorSource, secure bool, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, cookieMaxAge, "/", "", secure, true)
		}

		v, err := visitors.Get(c.Request.Context(), id)
		if err != nil {
			logger.WithError(err).WithField("visitor", id).Error("load visitor failed")
			respondError(c, http.StatusInternalServerError, "failed to load session")
			return
		}
		c.Set(visitorCtxKey, v)
		c.Next()
	}
}

func currentVisitor(c *gin.Context) *visitor.Visitor {
	return c.MustGet(visitorCtxKey).(*visitor.Visitor)
}
