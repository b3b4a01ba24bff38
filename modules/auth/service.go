package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oguarni/status-point/domain/apperr"
	"github.com/oguarni/status-point/domain/policy"
	domain "github.com/oguarni/status-point/domain/user"
)

const maxNameLength = 255

// ErrInvalidCredentials is returned when login credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid email or password")

// NewUserInput carries the fields of a new account.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService registers users, issues tokens and resolves token holders.
type AuthService struct {
	repo   domain.Repository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo domain.Repository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a self-service account. Such accounts are always collaborators.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.create(ctx, NewUserInput{Name: name, Email: email, Password: password, Role: domain.RoleCollaborator})
}

// CreateUser creates an account with an explicit role on behalf of an administrator.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Actor, in NewUserInput) (*domain.User, error) {
	if err := policy.Check(actor, policy.Users(), policy.ActionCreateWithRole); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperr.Invalid("role must be one of admin, manager, collaborator")
	}
	return s.create(ctx, in)
}

// SeedAdmin creates the administrator account unless the email is already registered.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	u, err := s.create(ctx, NewUserInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Printf("[auth] Seeded admin account %s (%s)", u.Email, u.ID)
	return nil
}

func (s *AuthService) create(ctx context.Context, in NewUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	switch {
	case name == "":
		return nil, apperr.Invalid("name is required")
	case len(name) > maxNameLength:
		return nil, apperr.Invalid("name is too long (maximum %d characters)", maxNameLength)
	case len(in.Password) < minPasswordLength:
		return nil, apperr.Invalid("password must be at least %d characters", minPasswordLength)
	case len(in.Password) > maxPasswordLength:
		return nil, apperr.Invalid("password must be at most %d characters", maxPasswordLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("invalid email format")
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to hash password")
	}

	now := time.Now()
	u := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperr.Conflict("%v", domain.ErrEmailTaken)
		}
		return nil, apperr.Persistence(err, "failed to create user")
	}
	return u, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.Unauthenticated("%v", ErrInvalidCredentials)
		}
		return nil, apperr.Persistence(err, "failed to find user")
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, apperr.Unauthenticated("%v", ErrInvalidCredentials)
	}

	return s.generateTokenPair(u)
}

// RefreshTokens exchanges a refresh token for a new pair. The role is re-read
// from storage so a changed role takes effect on the next refresh.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid refresh token: %v", err)
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.Unauthenticated("%v", ErrInvalidCredentials)
		}
		return nil, apperr.Persistence(err, "failed to find user")
	}

	return s.generateTokenPair(u)
}

// ValidateToken validates an access token and returns its claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Persistence(err, "failed to find user")
	}
	return u, nil
}

func (s *AuthService) generateTokenPair(u *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
