package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/auth"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

const (
	ContextAdminID = "admin_id"
	ContextEmail   = "admin_email"
	ContextRole    = "admin_role"
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// Authenticate verifies the bearer token and stores the staff identity in
// the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("missing authorization header")))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("invalid authorization format")))
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, model.AdminRole(claims.Role))
		c.Next()
	}
}

// RequireRole rejects authenticated staff whose role is not listed.
func (m *AuthMiddleware) RequireRole(roles ...model.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("insufficient role"))
	}
}

// AdminID returns the authenticated staff account id.
func AdminID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextAdminID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
