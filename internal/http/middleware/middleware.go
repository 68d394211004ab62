// Package middleware holds the request middleware that depends on domain ports.
package middleware

import (
	"context"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/leads/ports"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// CurrentUser resolves the authenticated subject into a CurrentUser once per
// request and stores it in the request context. It must run after AuthRequired.
func CurrentUser(resolver ports.CurrentUserResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}

		user, err := resolver.ResolveCurrentUser(c.Request.Context(), id.UserID())
		if err != nil {
			log.WithContext(c.Request.Context()).Warn("current user resolution failed", "error", err)
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(assigndomain.WithCurrentUser(c.Request.Context(), user))
		c.Next()
	}
}

// MustCurrentUser returns the caller resolved by CurrentUser. When it is
// missing the request is aborted with 401 and ok is false.
func MustCurrentUser(c *gin.Context) (assigndomain.CurrentUser, bool) {
	user, ok := FromContext(c.Request.Context())
	if !ok {
		httpkit.Error(c, 401, "unauthorized", nil)
		c.Abort()
	}
	return user, ok
}

// FromContext returns the caller stored in ctx.
func FromContext(ctx context.Context) (assigndomain.CurrentUser, bool) {
	return assigndomain.CurrentUserFrom(ctx)
}
