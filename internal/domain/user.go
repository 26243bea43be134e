package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Role is the capability level supplied by the identity provider.
type Role string

const (
	RoleUser     Role = "USER"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes a stored role; anything unknown is treated as USER.
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleReviewer, RoleAdmin:
		return r
	default:
		return RoleUser
	}
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

func (p Principal) IsReviewer() bool {
	return p.HasRole(RoleReviewer, RoleAdmin)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// EnsureExists inserts the user with role USER when absent and returns the stored row.
	EnsureExists(ctx context.Context, user *User) (*User, error)
}

type AuthUsecase interface {
	ResolvePrincipal(ctx context.Context, userID, email string) (*Principal, error)
}
