package models

import "github.com/nexuscrm/backoffice/pkg/constants"

// UserSession is the identity of the caller
type UserSession struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user may change module configuration
func (u *UserSession) IsAdmin() bool {
	return u != nil && u.Role == constants.RoleAdmin
}
