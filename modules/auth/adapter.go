package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/user"
)

// AuthPort defines the authentication operations other modules use.
type AuthPort interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserResponse, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return apperr.Rebuild(err)
		}
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

func (a *AuthAdapter) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := a.call(ctx, "register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAdapter) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := a.call(ctx, "create-user", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAdapter) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := a.call(ctx, "login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAdapter) Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := a.call(ctx, "refresh-token", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns its claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, apperr.Unauthenticated("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   domain.Role(resp.Role),
	}, nil
}

func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
