package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillwise/internal/api/middleware"
	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/common/security"
	"skillwise/internal/domain/repository"
	"skillwise/internal/platform/config"
	"skillwise/internal/platform/logger"
	"skillwise/internal/platform/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   *common.ErrorBody `json:"error"`
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	queue   *queue.MemoryQueue
	token   string
}

func newTestAPI(t *testing.T, limiter *middleware.RateLimiter) *testAPI {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:             []byte("access-secret-for-tests"),
		JWTRefreshKey:      []byte("refresh-secret-for-tests"),
		JWTAccessTTL:       15 * time.Minute,
		JWTRefreshTTL:      time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MetricsUser:        "ops",
		MetricsPassword:    "secret",
	}
	security.InitJWT()

	log := logger.Nop()
	store := repository.NewMemoryStore()
	q := queue.NewMemoryQueue()
	scheduler := service.NewQueueScheduler(q, log)
	goals := service.NewGoalService(store, log)

	handler := NewRouter(Dependencies{
		Store:             store,
		Log:               log,
		AuthLimiter:       limiter,
		AuthService:       service.NewAuthService(store, queue.NewMemoryTokenStore(), log),
		UserService:       service.NewUserService(store, log),
		GoalService:       goals,
		ChallengeService:  service.NewChallengeService(store, goals, scheduler, log),
		CompletionService: service.NewCompletionService(store, goals, scheduler, log),
		SubmissionService: service.NewSubmissionService(store, log),
		ProgressService:   service.NewProgressService(store, log),
	})
	return &testAPI{t: t, handler: handler, queue: q}
}

func (a *testAPI) request(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (a *testAPI) register(email string) *httptest.ResponseRecorder {
	a.t.Helper()
	rec, env := a.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":           email,
		"password":        "Analytic4l",
		"confirmPassword": "Analytic4l",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, env.Message)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	a.token = data.AccessToken
	return rec
}

func (a *testAPI) create(path string, body interface{}) int64 {
	a.t.Helper()
	rec, env := a.request(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, env.Message)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &created))
	return created.ID
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, nil)
	rec, env := a.request(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestMetricsRequireBasicAuth(t *testing.T) {
	a := newTestAPI(t, nil)

	rec, _ := a.request(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("ops", "secret")
	ok := httptest.NewRecorder()
	a.handler.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t, nil)

	rec, env := a.request(http.MethodGet, "/api/v1/goals", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, common.KindAuth, env.Error.Kind)

	a.token = "not-a-jwt"
	rec, _ = a.request(http.MethodGet, "/api/v1/progress/overview", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompletionFlow(t *testing.T) {
	a := newTestAPI(t, nil)
	a.register("ada@example.com")

	goalID := a.create("/api/v1/goals", map[string]interface{}{"title": "Learn Go"})
	first := a.create("/api/v1/challenges", map[string]interface{}{
		"title": "Tour", "description": "Take the tour", "instructions": "go.dev/tour", "goalId": goalID,
	})
	second := a.create("/api/v1/challenges", map[string]interface{}{
		"title": "Effective Go", "description": "Read it", "instructions": "read", "goalId": goalID,
		"prerequisites": []int64{first},
	})

	rec, env := a.request(http.MethodPost, fmt.Sprintf("/api/v1/challenges/%d/complete", second), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, common.KindPrecondition, env.Error.Kind)
	assert.Equal(t, []int64{first}, env.Error.Missing)

	for _, id := range []int64{first, second, second} {
		rec, env = a.request(http.MethodPost, fmt.Sprintf("/api/v1/challenges/%d/complete", id), nil)
		require.Equal(t, http.StatusOK, rec.Code, env.Message)
	}

	rec, env = a.request(http.MethodGet, fmt.Sprintf("/api/v1/goals/%d", goalID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var goal struct {
		ProgressPercentage int  `json:"progressPercentage"`
		IsCompleted        bool `json:"isCompleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &goal))
	assert.Equal(t, 100, goal.ProgressPercentage)
	assert.True(t, goal.IsCompleted)

	rec, env = a.request(http.MethodGet, "/api/v1/progress/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview struct {
		OverallProgressPercentage int `json:"overallProgressPercentage"`
		Totals                    struct {
			TotalPoints         int64 `json:"totalPoints"`
			CompletedChallenges int   `json:"completedChallenges"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, 100, overview.OverallProgressPercentage)
	assert.EqualValues(t, 20, overview.Totals.TotalPoints)
	assert.Equal(t, 2, overview.Totals.CompletedChallenges)

	pending, err := a.queue.Len(t.Context())
	require.NoError(t, err)
	assert.Positive(t, pending)
}

func TestOwnershipIsolation(t *testing.T) {
	a := newTestAPI(t, nil)
	a.register("ada@example.com")
	goalID := a.create("/api/v1/goals", map[string]interface{}{"title": "Private"})

	a.register("bob@example.com")
	rec, env := a.request(http.MethodGet, fmt.Sprintf("/api/v1/goals/%d", goalID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.KindNotFound, env.Error.Kind)

	rec, _ = a.request(http.MethodDelete, fmt.Sprintf("/api/v1/goals/%d", goalID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	a := newTestAPI(t, nil)
	a.register("ada@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/goals", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.request(http.MethodGet, "/api/v1/challenges/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.request(http.MethodGet, "/api/v1/challenges?difficulty=Brutal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := a.request(http.MethodGet, "/api/v1/progress/analytics?timeframe=1y", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.KindValidation, env.Error.Kind)
}

func TestRefreshCookieRotation(t *testing.T) {
	a := newTestAPI(t, nil)
	registered := a.register("ada@example.com")
	original := refreshCookie(registered)
	require.NotNil(t, original)
	assert.True(t, original.HttpOnly)
	assert.Equal(t, "/api/v1/auth", original.Path)

	rec, _ := a.request(http.MethodPost, "/api/v1/auth/refresh", nil, original)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := refreshCookie(rec)
	require.NotNil(t, rotated)
	assert.NotEqual(t, original.Value, rotated.Value)

	rec, _ = a.request(http.MethodPost, "/api/v1/auth/refresh", nil, original)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.request(http.MethodPost, "/api/v1/auth/logout", nil, rotated)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.request(http.MethodPost, "/api/v1/auth/refresh", nil, rotated)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	a := newTestAPI(t, middleware.NewRateLimiter(0.001, 2))
	login := map[string]string{"email": "nobody@example.com", "password": "Analytic4l"}

	for i := 0; i < 2; i++ {
		rec, env := a.request(http.MethodPost, "/api/v1/auth/login", login)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "There is no account associated with that email", env.Message)
	}
	rec, env := a.request(http.MethodPost, "/api/v1/auth/login", login)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, common.KindTransient, env.Error.Kind)
}
