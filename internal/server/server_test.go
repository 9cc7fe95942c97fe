package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisfit/axisfit-service/internal/config"
	"github.com/axisfit/axisfit-service/internal/models"
	"github.com/axisfit/axisfit-service/internal/monitor"
	"github.com/axisfit/axisfit-service/internal/repository"
	"github.com/axisfit/axisfit-service/internal/sim"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

const simStart = int64(1_700_000_000_000)

// newTestUserRepo backs the mock user repository with an in-memory map so
// register/login flows work end to end.
func newTestUserRepo() *repository.MockUserRepository {
	var mu sync.Mutex
	users := make(map[uuid.UUID]*models.User)

	repo := repository.NewMockUserRepository()
	repo.CreateFunc = func(_ context.Context, user *models.User) error {
		mu.Lock()
		defer mu.Unlock()
		for _, u := range users {
			if u.Email == user.Email {
				return repository.ErrUserExists
			}
		}
		clone := *user
		users[user.ID] = &clone
		return nil
	}
	repo.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*models.User, error) {
		mu.Lock()
		defer mu.Unlock()
		if u, ok := users[id]; ok {
			clone := *u
			return &clone, nil
		}
		return nil, repository.ErrUserNotFound
	}
	repo.GetByEmailFunc = func(_ context.Context, email string) (*models.User, error) {
		mu.Lock()
		defer mu.Unlock()
		for _, u := range users {
			if u.Email == email {
				clone := *u
				return &clone, nil
			}
		}
		return nil, repository.ErrUserNotFound
	}
	return repo
}

func newTestDeps() *Dependencies {
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			JWTAccessTokenTTL:  1 * time.Hour,
			JWTRefreshTokenTTL: 24 * time.Hour,
		},
		Sensor: config.SensorConfig{
			SampleRateHz:        50,
			CompWindowSeconds:   10,
			CompScaleDeg:        25,
			AlignerMaxAgeMillis: 250,
			SyncWindowPoints:    200,
			SyncMinPoints:       12,
			FlushMaxRows:        1 << 20,
			FlushInterval:       time.Hour,
			AlertCooldown:       5 * time.Second,
			RedStreakSeconds:    3,
			CompHighStreak:      2,
			CompHighLevel:       60,
		},
	}

	sessionRepo := repository.NewMockSessionRepository()
	sessions := monitor.NewManager(cfg.Sensor, sessionRepo).
		WithClock(func() time.Time { return time.UnixMilli(simStart) }).
		WithSource(func(startMillis int64) monitor.Source {
			return sim.New(sim.Config{Seed: 23, StartMillis: startMillis})
		})

	return &Dependencies{
		Config:      cfg,
		UserRepo:    newTestUserRepo(),
		SessionRepo: sessionRepo,
		Sessions:    sessions,
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerTestUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"role":     models.RoleAthlete,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	deps := newTestDeps()
	router := New(deps)

	token := registerTestUser(t, router, "athlete@example.com")

	// Start a session.
	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", token, map[string]string{
		"kind": models.SessionKindMonitor,
		"mode": models.ModeDesk,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var started struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.NotEmpty(t, started.SessionID)

	// Drive three simulated seconds through the pipeline.
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/tick", token, map[string]int64{
		"nowMs": simStart + 3000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ticked struct {
		Produced int `json:"produced"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticked))
	assert.Greater(t, ticked.Produced, 100)

	// Read the live window.
	w = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+started.SessionID+"/live?seconds=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var window struct {
		Samples []json.RawMessage `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &window))
	assert.NotEmpty(t, window.Samples)

	// Stop and collect the summary.
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/stop", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stopped struct {
		Summary *models.SessionSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stopped))
	require.NotNil(t, stopped.Summary)
	assert.Greater(t, stopped.Summary.DurationS, 0.0)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	deps := newTestDeps()
	router := New(deps)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/sessions"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/me/thresholds"},
		{http.MethodGet, "/api/v1/me/summary/daily"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := doJSON(t, router, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestThresholdRoundTripOverHTTP(t *testing.T) {
	deps := newTestDeps()
	router := New(deps)

	token := registerTestUser(t, router, "tuner@example.com")

	// Defaults first.
	w := doJSON(t, router, http.MethodGet, "/api/v1/me/thresholds?mode=train", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"effective"`)

	// Store an override.
	w = doJSON(t, router, http.MethodPut, "/api/v1/me/thresholds", token, map[string]interface{}{
		"train": map[string]interface{}{
			"lum": map[string]float64{"pitch_g": 16, "pitch_y": 26},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Invalid override is rejected.
	w = doJSON(t, router, http.MethodPut, "/api/v1/me/thresholds", token, map[string]interface{}{
		"desk": map[string]interface{}{
			"thor": map[string]float64{"pitch_g": 20, "pitch_y": 10},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNonExistentRoute(t *testing.T) {
	deps := newTestDeps()
	router := New(deps)

	req, _ := http.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Should return 404 for non-existent routes
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
