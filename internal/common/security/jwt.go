package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"skillwise/internal/common"
	"skillwise/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenAuth verifies access tokens; RefreshAuth verifies refresh tokens.
var (
	TokenAuth   *jwtauth.JWTAuth
	RefreshAuth *jwtauth.JWTAuth
)

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
	RefreshAuth = jwtauth.New("HS256", config.AppConfig.JWTRefreshKey, nil)
}

type RefreshToken struct {
	Token     string
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

func GenerateAccessToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"email":   email,
		"typ":     tokenTypeAccess,
		"exp":     now.Add(config.AppConfig.JWTAccessTTL).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GenerateRefreshToken(userID int64) (*RefreshToken, error) {
	now := time.Now()
	rt := &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(config.AppConfig.JWTRefreshTTL),
	}
	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"jti":     rt.ID,
		"typ":     tokenTypeRefresh,
		"exp":     rt.ExpiresAt.Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := RefreshAuth.Encode(claims)
	if err != nil {
		return nil, err
	}
	rt.Token = tokenString
	return rt, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token.
func ParseRefreshToken(ctx context.Context, tokenString string) (*RefreshToken, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("refresh token missing: %w", common.ErrUnauthorized)
	}
	token, err := jwtauth.VerifyToken(RefreshAuth, tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", common.ErrUnauthorized)
	}
	claims, err := token.AsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", common.ErrUnauthorized)
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeRefresh {
		return nil, fmt.Errorf("invalid refresh token type: %w", common.ErrUnauthorized)
	}
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrUnauthorized)
	}
	if token.JwtID() == "" {
		return nil, fmt.Errorf("refresh token has no id: %w", common.ErrUnauthorized)
	}
	return &RefreshToken{Token: tokenString, ID: token.JwtID(), UserID: userID, ExpiresAt: token.Expiration()}, nil
}

// GetUserIDFromClaims extracts the numeric user id stored as a string claim.
func GetUserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return 0, errors.New("user_id claim is missing or not a string")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user_id claim is not a valid id")
	}
	return id, nil
}

func IsAccessToken(claims jwt.MapClaims) bool {
	typ, _ := claims["typ"].(string)
	return typ == tokenTypeAccess
}
