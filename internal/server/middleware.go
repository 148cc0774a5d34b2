package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/hydrosuite/aquabill/internal/customerctx"
)

// CustomerContextRequired binds the authenticated customer identity to
// the request context. The auth gateway in front of this service
// resolves credentials and forwards the customer id as a header.
func (s *Server) CustomerContextRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Customer-Id"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := customerctx.WithCustomerID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// customerID extracts the bound customer identity. Routes behind
// CustomerContextRequired always have one.
func customerID(c *gin.Context) (snowflake.ID, bool) {
	return customerctx.CustomerIDFromContext(c.Request.Context())
}
