package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/adapters/gateway"
	adapterHTTP "github.com/habitloop/stats-engine/internal/adapters/handler/http"
	"github.com/habitloop/stats-engine/internal/adapters/identity"
	"github.com/habitloop/stats-engine/internal/adapters/repository"
	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/services"
)

// fakePlatform stands in for the habit platform API. Flipping fail
// simulates an outage for every endpoint at once.
type fakePlatform struct {
	srv     *httptest.Server
	fail    atomic.Bool
	mirrors atomic.Int64
}

func newFakePlatform(t *testing.T, user string) *fakePlatform {
	t.Helper()

	p := &fakePlatform{}
	now := time.Now().UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/habits", func(w http.ResponseWriter, r *http.Request) {
		if p.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": user,
			"habits": []map[string]any{{
				"id":           "h1",
				"user_id":      user,
				"title":        "Morning Run",
				"kind":         "boolean",
				"target_value": 1,
				"frequency":    "daily",
				"created_at":   now.AddDate(0, 0, -10).Format(time.RFC3339),
			}},
		})
	})
	mux.HandleFunc("/api/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		if p.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		completions := make([]map[string]any, 0, 3)
		for i := 0; i < 3; i++ {
			completions = append(completions, map[string]any{
				"id":       fmt.Sprintf("c%d", i),
				"habit_id": "h1",
				"user_id":  user,
				"date":     now.AddDate(0, 0, -i).Format(time.RFC3339),
				"value":    1,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"completions": completions})
	})
	mux.HandleFunc("/api/v1/stats-cache", func(w http.ResponseWriter, r *http.Request) {
		p.mirrors.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if p.fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func sessionToken(t *testing.T, user string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": user}).
		SignedString([]byte("platform-secret"))
	require.NoError(t, err)
	return token
}

func TestEndToEnd_EngineLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := zap.NewNop()

	platform := newFakePlatform(t, "e2e-user")
	token := sessionToken(t, "e2e-user")

	store := repository.NewMemoryStore()
	gw := gateway.NewClient(platform.srv.URL, token, 0, log)
	ident := identity.NewTokenIdentity(token)

	recon := services.NewReconciler(store, gw, ident, []domain.SnapshotMirror{gw}, log)
	ctrl := services.NewController(recon, log)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		StateHandler: adapterHTTP.NewStateHandler(ctrl, log),
		Store:        store,
		Gateway:      gw,
		StartTime:    time.Now(),
		Logger:       log,
	})

	t.Run("1. Engine boots and syncs from the platform", func(t *testing.T) {
		require.NoError(t, ctrl.Initialize(ctx))

		state := ctrl.State()
		assert.False(t, state.Offline)
		assert.Empty(t, state.Error)
		require.NotNil(t, state.Stats)
		assert.GreaterOrEqual(t, state.Stats.Period.CurrentStreak, 1)

		habits, err := store.GetHabits(ctx)
		require.NoError(t, err)
		assert.Len(t, habits, 1)

		meta, err := store.GetMetadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, "e2e-user", meta.UserID)
	})

	t.Run("2. Bridge serves the snapshot", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/state", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"scope":"daily"`)
		assert.Contains(t, w.Body.String(), `"stats"`)
	})

	t.Run("3. Scope intent recomputes in place", func(t *testing.T) {
		body := bytes.NewBufferString(`{"scope":"weekly"}`)
		req, _ := http.NewRequest("PUT", "/api/v1/intents/scope", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"scope":"weekly"`)
	})

	t.Run("4. Platform outage falls back to the local cache", func(t *testing.T) {
		platform.fail.Store(true)

		out := ctrl.Refresh(ctx)

		require.NoError(t, out.Err)
		assert.True(t, out.Offline)
		require.NotNil(t, out.Stats)
		assert.True(t, ctrl.State().Offline)
	})

	t.Run("5. Recovery resumes online syncs", func(t *testing.T) {
		platform.fail.Store(false)
		before := platform.mirrors.Load()

		out := ctrl.Refresh(ctx)

		require.NoError(t, out.Err)
		assert.False(t, out.Offline)
		assert.False(t, ctrl.State().Offline)
		assert.Greater(t, platform.mirrors.Load(), before)
	})

	t.Run("6. Cache clear wipes and resyncs", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/intents/cache/clear", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		habits, err := store.GetHabits(ctx)
		require.NoError(t, err)
		assert.Len(t, habits, 1)
		require.NotNil(t, ctrl.State().Stats)
	})
}
