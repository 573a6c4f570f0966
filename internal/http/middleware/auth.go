package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tpog/internal/domain"
)

const (
	userRoleKey       = "userRole"
	userNameKey       = "userName"
	requestContextKey = "requestContext"

	// AdminPINHeader carries the settings PIN on write requests.
	AdminPINHeader = "X-Admin-Pin"
)

// TokenParser turns a bearer token into the caller identity.
type TokenParser interface {
	ParseToken(raw string) (domain.RequestContext, error)
}

// AuthRequired rejects requests without a valid bearer token. EventSource
// clients cannot set headers, so access_token is accepted as a query param.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("access_token"))
		}
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		rc, err := parser.ParseToken(raw)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(requestContextKey, rc)
		c.Set(userRoleKey, rc.Role)
		c.Set(userNameKey, rc.Username)
		c.Next()
	}
}

// RequireRoles only lets through callers whose role is in allowedRoles.
// AuthRequired must run first.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "no role on request")
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			abortAuth(c, http.StatusForbidden, "forbidden", "role "+role+" may not perform this action")
			return
		}
		c.Next()
	}
}

// GetRequestContext returns the authenticated caller, or the zero value
// (recorded as "system") on public routes.
func GetRequestContext(c *gin.Context) domain.RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(domain.RequestContext); ok {
			return rc
		}
	}
	return domain.RequestContext{}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}
