package identity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// Identity is the authenticated caller. Services receive it as an explicit
// argument; nothing reads it from ambient state.
type Identity struct {
	UserID uuid.UUID
	Role   string
	Email  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin || i.Role == models.RoleSuperAdmin
}

func (i Identity) Valid() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) RequireAdmin() error {
	if !i.Valid() {
		return apperr.ErrUnauthorized
	}
	if !i.IsAdmin() {
		return fmt.Errorf("role %q: %w", i.Role, apperr.ErrForbidden)
	}
	return nil
}

// FromEcho reads the identity the auth middleware stored on c.
func FromEcho(c echo.Context) (Identity, error) {
	s, ok := c.Get(authmw.UserIDKey).(string)
	if !ok || s == "" {
		return Identity{}, apperr.ErrUnauthorized
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return Identity{}, apperr.ErrUnauthorized
	}
	role, _ := c.Get(authmw.RoleKey).(string)
	email, _ := c.Get(authmw.EmailKey).(string)
	return Identity{UserID: userID, Role: role, Email: email}, nil
}

// Admin is FromEcho followed by a role check.
func Admin(c echo.Context) (Identity, error) {
	who, err := FromEcho(c)
	if err != nil {
		return Identity{}, err
	}
	if err := who.RequireAdmin(); err != nil {
		return Identity{}, err
	}
	return who, nil
}
