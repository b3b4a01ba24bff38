package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of roles an actor can hold.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleCollaborator Role = "collaborator"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleManager, RoleCollaborator}

// ErrInvalidRole is returned when a role string is not one of Roles.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole accepts the canonical role names plus the legacy "gestor" and "colaborador" spellings.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleManager), "gestor":
		return RoleManager, nil
	case string(RoleCollaborator), "colaborador":
		return RoleCollaborator, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCollaborator:
		return true
	}
	return false
}

// User represents a user entity in the system.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	Name         string    `gorm:"not null;type:text" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" json:"email"`
	PasswordHash string    `gorm:"not null;type:text" json:"-"`
	Role         Role      `gorm:"not null;type:text;default:collaborator" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// CanCreateProjects reports whether the user's role allows creating projects.
func (u *User) CanCreateProjects() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// Actor is the authenticated identity a service call is made on behalf of.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Actor returns the acting identity of u.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// ErrNotFound is returned by repositories when no user matches.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned by repositories when the email is already registered.
var ErrEmailTaken = errors.New("user with this email already exists")

// Repository is the storage contract for users.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}
