package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/pkg/auth"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/models"
)

type contextKey string

const userContextKey contextKey = constants.ContextKeyUser

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user *models.UserSession) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user stored by RequireAuth, or nil
func UserFromContext(ctx context.Context) *models.UserSession {
	user, _ := ctx.Value(userContextKey).(*models.UserSession)
	return user
}

// Identity resolves the current user from the request context
var Identity ports.IdentityProvider = ports.IdentityFunc(UserFromContext)

// abort records err on the context, writes the error envelope and stops
// the chain
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(errors.GetHTTPStatus(err), gin.H{
		constants.ResponseError:   err.Error(),
		constants.ResponseMessage: err.Error(),
		"code":                    errors.GetErrorCode(err),
		"data":                    nil,
	})
}

// RequireAuth validates the bearer token and stores the user both in the
// gin context and in the request context
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if header == "" {
			abort(c, errors.NewUnauthorizedError("no authorization token provided"))
			return
		}

		// Format: "Bearer <token>"
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			abort(c, errors.NewUnauthorizedError("invalid authorization header format"))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			abort(c, errors.NewUnauthorizedError(err.Error()))
			return
		}

		user := claims.User
		c.Set(constants.ContextKeyUser, &user)
		c.Set(constants.ContextKeyToken, token)
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), &user))

		c.Next()
	}
}

// RequireAdmin lets only admins through. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFromContext(c.Request.Context())
		if user == nil {
			abort(c, errors.NewUnauthorizedError("user not authenticated"))
			return
		}
		if !user.IsAdmin() {
			abort(c, errors.NewPermissionError("modify", "module configuration"))
			return
		}
		c.Next()
	}
}
