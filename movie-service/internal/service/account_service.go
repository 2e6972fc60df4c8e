package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/audit"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
)

// TokenIssuer issues and revokes session tokens.
type TokenIssuer interface {
	Issue(id jwt.Identity) (jwt.TokenPair, error)
	Refresh(refreshToken string, lookup func(userID string) (jwt.Identity, error)) (jwt.TokenPair, error)
	Revoke(userID string)
}

type accountServiceImpl struct {
	repo   repository.AccountRepository
	tokens TokenIssuer
}

// NewAccountService creates a new account service.
func NewAccountService(repo repository.AccountRepository, tokens TokenIssuer) AccountService {
	return &accountServiceImpl{
		repo:   repo,
		tokens: tokens,
	}
}

func (s *accountServiceImpl) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	if len(req.Password) < domain.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionSignup, user.IDString(), "account created")
	return s.issue(user)
}

func (s *accountServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionLogin, user.IDString(), "login succeeded")
	return s.issue(user)
}

// Refresh exchanges a refresh token for a new pair, reloading the user so
// the new access token carries current claims.
func (s *accountServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	var user *domain.User
	pair, err := s.tokens.Refresh(refreshToken, func(userID string) (jwt.Identity, error) {
		id, err := strconv.ParseUint(userID, 10, 64)
		if err != nil {
			return jwt.Identity{}, jwt.ErrInvalidToken
		}
		user, err = s.repo.GetByID(ctx, uint(id))
		if errors.Is(err, repository.ErrUserNotFound) {
			return jwt.Identity{}, jwt.ErrInvalidToken
		}
		if err != nil {
			return jwt.Identity{}, err
		}
		return identity(user), nil
	})
	if err != nil {
		return nil, err
	}
	return authResponse(user, pair), nil
}

func (s *accountServiceImpl) Logout(ctx context.Context, userID uint) {
	s.tokens.Revoke(userIDString(userID))
	audit.Log(ctx, audit.ActionLogout, userIDString(userID), "tokens revoked")
}

func (s *accountServiceImpl) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *accountServiceImpl) issue(user *domain.User) (*domain.AuthResponse, error) {
	pair, err := s.tokens.Issue(identity(user))
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return authResponse(user, pair), nil
}

func identity(user *domain.User) jwt.Identity {
	return jwt.Identity{
		UserID:   user.IDString(),
		Email:    user.Email,
		Username: user.Username,
	}
}

func authResponse(user *domain.User, pair jwt.TokenPair) *domain.AuthResponse {
	return &domain.AuthResponse{
		User:             user.ToResponse(),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  time.Unix(pair.AccessExpiresAt, 0).UTC(),
		RefreshExpiresAt: time.Unix(pair.RefreshExpiresAt, 0).UTC(),
	}
}
