package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"skillwise/internal/common"
	"skillwise/internal/common/security"
	"skillwise/internal/domain/model"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/queue"
)

const (
	minPasswordLength = 8
	maxNameLength     = 50
)

type AuthService struct {
	store  repository.Store
	tokens queue.TokenStore
	log    *logger.Logger
}

func NewAuthService(store repository.Store, tokens queue.TokenStore, log *logger.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, log: log}
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult carries the refresh token separately: handlers put it in a
// cookie, never in the body.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken *security.RefreshToken
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if n := utf8.RuneCountInString(value); n < 1 || n > maxNameLength {
		return "", common.Invalid("%s must be between 1 and %d characters", field, maxNameLength)
	}
	return value, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return common.Invalid("password must be at least %d characters", minPasswordLength)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return common.Invalid("password must contain a lowercase letter, an uppercase letter and a digit")
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, common.Invalid("a valid email is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, common.Invalid("passwords do not match")
	}
	firstName, err := validateName("firstName", req.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := validateName("lastName", req.LastName)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hashedPassword,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if common.KindOf(err) == common.KindDuplicate {
			return nil, fmt.Errorf("an account with that email already exists: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.Invalid("email and password are required")
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("there is no account associated with that email: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid password: %w", common.ErrUnauthorized)
	}
	return s.issue(ctx, user)
}

// Refresh rotates a refresh token: the presented one is consumed and a fresh
// pair is issued. A token that was already rotated or revoked fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	rt, err := security.ParseRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	owner, ok, err := s.tokens.Consume(ctx, rt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if !ok || owner != rt.UserID {
		s.log.Warn("refresh token reuse or revoked token presented", "user_id", rt.UserID)
		return nil, fmt.Errorf("refresh token is no longer valid: %w", common.ErrUnauthorized)
	}
	user, err := s.store.Users().FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("account no longer exists: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return s.issue(ctx, user)
}

// Logout revokes the refresh token if it is still valid. Invalid tokens are
// ignored so the cookie can always be cleared.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rt, err := security.ParseRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, rt.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.log.Info("user logged out", "user_id", rt.UserID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, wrapErr(err, "failed to find user %d", userID)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	access, err := security.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := security.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, refresh.ID, user.ID, time.Until(refresh.ExpiresAt)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
