package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/response"
)

// Headers set by the upstream auth proxy.
const (
	HeaderUserID      = "X-User-ID"
	HeaderUserRole    = "X-User-Role"
	HeaderUserEmail   = "X-User-Email"
	HeaderUserName    = "X-User-Name"
	HeaderUserContact = "X-User-Contact"

	RoleAdmin = "admin"
)

const (
	ctxUserID      = "user_id"
	ctxUserRole    = "user_role"
	ctxUserEmail   = "user_email"
	ctxUserName    = "user_name"
	ctxUserContact = "user_contact"
)

// UserMiddleware copies the caller identity headers into gin.Context. The
// user id is also placed on the request context so logctx.FromCtx picks it up.
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid != "" {
			c.Set(ctxUserID, uid)
			c.Request = c.Request.WithContext(logctx.WithUserID(c.Request.Context(), uid))
		}
		c.Set(ctxUserRole, c.GetHeader(HeaderUserRole))
		c.Set(ctxUserEmail, c.GetHeader(HeaderUserEmail))
		c.Set(ctxUserName, c.GetHeader(HeaderUserName))
		c.Set(ctxUserContact, c.GetHeader(HeaderUserContact))
		c.Next()
	}
}

// RequireUser rejects requests without a caller id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing "+HeaderUserID))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func IsAdmin(c *gin.Context) bool { return c.GetString(ctxUserRole) == RoleAdmin }

// Profile returns the optional name, email and contact headers.
func Profile(c *gin.Context) (name, email, contact string) {
	return c.GetString(ctxUserName), c.GetString(ctxUserEmail), c.GetString(ctxUserContact)
}
