package service

import (
	"testing"
	"time"

	"skillwise/internal/common"
	"skillwise/internal/common/security"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/config"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:        []byte("access-secret-for-tests"),
		JWTRefreshKey: []byte("refresh-secret-for-tests"),
		JWTAccessTTL:  15 * time.Minute,
		JWTRefreshTTL: time.Hour,
	}
	security.InitJWT()
	return NewAuthService(repository.NewMemoryStore(), queue.NewMemoryTokenStore(), logger.Nop())
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:           "Ada@Example.com",
		Password:        "Analytic4l",
		ConfirmPassword: "Analytic4l",
		FirstName:       "Ada",
		LastName:        "Lovelace",
	}
}

func TestRegister(t *testing.T) {
	s := newAuthService(t)
	ctx := t.Context()

	res, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)
	require.NotNil(t, res.RefreshToken)
	assert.Equal(t, res.User.ID, res.RefreshToken.UserID)
	assert.NotEqual(t, "Analytic4l", res.User.PasswordHash)

	_, err = s.Register(ctx, validRegistration())
	assert.Equal(t, common.KindDuplicate, common.KindOf(err))
}

func TestRegister_Validation(t *testing.T) {
	s := newAuthService(t)

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "Ab1", "Ab1" }},
		{"no digit", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "Analytical", "Analytical" }},
		{"no uppercase", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "analytic4l", "analytic4l" }},
		{"mismatch", func(r *RegisterRequest) { r.ConfirmPassword = "Analytic5l" }},
		{"empty first name", func(r *RegisterRequest) { r.FirstName = "  " }},
		{"long last name", func(r *RegisterRequest) {
			r.LastName = "Lovelacelovelacelovelacelovelacelovelacelovelacelovelace"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := s.Register(t.Context(), req)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	s := newAuthService(t)
	ctx := t.Context()
	_, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	res, err := s.Login(ctx, LoginRequest{Email: " ADA@example.com ", Password: "Analytic4l"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	_, err = s.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Wrong1234"})
	assert.Equal(t, common.KindAuth, common.KindOf(err))
	assert.Contains(t, err.Error(), "invalid password")

	_, err = s.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "Analytic4l"})
	assert.Equal(t, common.KindAuth, common.KindOf(err))
	assert.Contains(t, err.Error(), "no account")

	_, err = s.Login(ctx, LoginRequest{})
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	s := newAuthService(t)
	ctx := t.Context()
	reg, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, reg.RefreshToken.Token)
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken.ID, rotated.RefreshToken.ID)
	assert.Equal(t, reg.User.ID, rotated.User.ID)

	_, err = s.Refresh(ctx, reg.RefreshToken.Token)
	assert.Equal(t, common.KindAuth, common.KindOf(err))

	_, err = s.Refresh(ctx, reg.AccessToken)
	assert.Equal(t, common.KindAuth, common.KindOf(err))

	_, err = s.Refresh(ctx, "")
	assert.Equal(t, common.KindAuth, common.KindOf(err))
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s := newAuthService(t)
	ctx := t.Context()
	reg, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, reg.RefreshToken.Token))
	_, err = s.Refresh(ctx, reg.RefreshToken.Token)
	assert.Equal(t, common.KindAuth, common.KindOf(err))

	assert.NoError(t, s.Logout(ctx, "garbage"))
}

func TestMe(t *testing.T) {
	s := newAuthService(t)
	ctx := t.Context()
	reg, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)

	me, err := s.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.FirstName)

	_, err = s.Me(ctx, reg.User.ID+100)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}
