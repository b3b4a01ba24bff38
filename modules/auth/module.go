// Package auth registers users and issues and verifies their tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/user"
	"gorm.io/gorm"
)

// Config configures tokens and the seeded administrator.
type Config struct {
	JWT           JWTConfig
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// AuthModule provides authentication services.
type AuthModule struct {
	cfg     Config
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule over the shared database.
func NewModule(db *gorm.DB, cfg Config) *AuthModule {
	if cfg.JWT.SecretKey == "" {
		cfg.JWT.SecretKey = uuid.New().String() + uuid.New().String()
		log.Println("[auth] Warning: JWT_SECRET_KEY not set, using a random key; tokens will not survive a restart")
	}
	return &AuthModule{
		cfg:     cfg,
		service: NewAuthService(NewUserRepository(db), NewPasswordHasher(), NewJWTManager(cfg.JWT)),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start seeds the administrator account when one is configured.
func (m *AuthModule) Start(ctx context.Context) error {
	if m.cfg.AdminEmail != "" && m.cfg.AdminPassword != "" {
		if err := m.service.SeedAdmin(ctx, m.cfg.AdminName, m.cfg.AdminEmail, m.cfg.AdminPassword); err != nil {
			return err
		}
	}
	log.Printf("[auth] Module started (issuer: %s, access TTL: %s)", m.cfg.JWT.Issuer, m.cfg.JWT.AccessTokenDuration)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-user", json.Unmarshal, json.Marshal, m.handleCreateUser,
	); err != nil {
		return fmt.Errorf("failed to register create-user service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, create-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	u, err := m.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return UserResponse{}, err
	}
	log.Printf("[auth] Registered user %s", u.ID)
	return toUserResponse(u), nil
}

func (m *AuthModule) handleCreateUser(ctx context.Context, req CreateUserRequest, _ *mono.Msg) (UserResponse, error) {
	actorRole, err := domain.ParseRole(req.ActorRole)
	if err != nil {
		return UserResponse{}, apperr.Forbidden("%s: %v", apperr.ReasonNotAuthorized, err)
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return UserResponse{}, apperr.Invalid("%v", err)
	}

	u, err := m.service.CreateUser(ctx, domain.Actor{ID: req.ActorID, Role: actorRole}, NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return UserResponse{}, err
	}
	log.Printf("[auth] User %s created %s account %s", req.ActorID, u.Role, u.ID)
	return toUserResponse(u), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil // Return response, not error, for validation failures
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   string(claims.Role),
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	u, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(u), nil
}
