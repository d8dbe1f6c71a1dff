package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc { return func(context.Context) error { return nil } }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("self", time.Second, passing())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpoint_FailsAfterThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("backend", time.Second, failing("connection refused"))

	ctx := context.Background()
	c := h.liveness[0]

	// Two failures stay below the threshold of three.
	c.run(ctx)
	c.run(ctx)

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	c.run(ctx)

	w = httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "connection refused", body.Checks["backend"])
}

func TestReadyEndpoint_ManualFlag(t *testing.T) {
	h := New()

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Shutdown flips it back.
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestIsReady_RequiresHealthyChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("backend", time.Second, failing("boom"))
	h.SetReady(true)

	assert.True(t, h.IsReady(), "checks start healthy")

	ctx := context.Background()
	for range 3 {
		h.readiness[0].run(ctx)
	}
	assert.False(t, h.IsReady())

	// One success restores readiness.
	h.readiness[0].probe = passing()
	h.readiness[0].run(ctx)
	assert.True(t, h.IsReady())
}

func TestHTTPCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, HTTPCheck(srv.Client(), srv.URL)(context.Background()))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	assert.Error(t, HTTPCheck(bad.Client(), bad.URL)(context.Background()))
}

func TestStartStop(t *testing.T) {
	h := New()

	var calls int
	done := make(chan struct{})
	h.AddReadinessCheck("ticker", time.Second, func(context.Context) error {
		if calls++; calls == 1 {
			close(done)
		}
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}
}
