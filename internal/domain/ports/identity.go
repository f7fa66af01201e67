package ports

import (
	"context"

	"github.com/nexuscrm/backoffice/pkg/models"
)

// IdentityProvider resolves the caller of an operation
type IdentityProvider interface {
	// CurrentUser returns the caller, or nil for anonymous/system calls.
	CurrentUser(ctx context.Context) *models.UserSession
}

// IdentityFunc adapts a function to IdentityProvider
type IdentityFunc func(ctx context.Context) *models.UserSession

// CurrentUser implements IdentityProvider
func (f IdentityFunc) CurrentUser(ctx context.Context) *models.UserSession {
	return f(ctx)
}
