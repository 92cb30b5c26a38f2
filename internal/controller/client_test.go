package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testControllerID = "e93352b262296409a40f2ffae0785450"

type fakeController struct {
	infoCalls   atomic.Int32
	loginCalls  atomic.Int32
	brokenCalls atomic.Int32
	lastToken  atomic.Value
	lastCsrf   atomic.Value
}

func (f *fakeController) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/info", func(w http.ResponseWriter, r *http.Request) {
		f.infoCalls.Add(1)
		writeEnvelope(w, 0, "", map[string]any{"controllerVer": "5.7.6", "apiVer": "3", "omadacId": testControllerID})
	})
	mux.HandleFunc("POST /"+testControllerID+"/api/v2/login", func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls.Add(1)
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "admin" || req.Password != "secret" {
			writeEnvelope(w, -30109, "Invalid username or password.", nil)
			return
		}
		writeEnvelope(w, 0, "", map[string]string{"token": "tok123"})
	})
	mux.HandleFunc("GET /"+testControllerID+"/api/v2/sites/{siteId}/devices", func(w http.ResponseWriter, r *http.Request) {
		f.lastToken.Store(r.URL.Query().Get("token"))
		f.lastCsrf.Store(r.Header.Get("Csrf-Token"))
		writeEnvelope(w, 0, "", []map[string]string{{"mac": "AA-BB", "site": r.PathValue("siteId")}})
	})
	mux.HandleFunc("DELETE /"+testControllerID+"/api/v2/sites/{siteId}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, -1001, "Invalid request parameters.", nil)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		f.brokenCalls.Add(1)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	return mux
}

func writeEnvelope(w http.ResponseWriter, code int, msg string, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"errorCode": code, "msg": msg, "result": result})
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeController) {
	t.Helper()
	fake := &fakeController{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/ignored/path", opts...)
	c.backoff = func(int) time.Duration { return 0 }
	return c, fake
}

func TestClient_InfoIsCached(t *testing.T) {
	c, fake := newTestClient(t)

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testControllerID, info.OmadacID)
	assert.Equal(t, "5.7.6", info.ControllerVersion)

	_, err = c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.infoCalls.Load())
}

func TestClient_DoLogsInAndAttachesToken(t *testing.T) {
	c, fake := newTestClient(t, WithCredentials("admin", "secret"))

	u, err := NewURL("/{omadacId}/api/v2/sites/{siteId}/devices").WithPathParameter("siteId", "s1")
	require.NoError(t, err)

	var devices []map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, u, nil, &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "s1", devices[0]["site"])
	assert.Equal(t, "tok123", fake.lastToken.Load())
	assert.Equal(t, "tok123", fake.lastCsrf.Load())

	require.NoError(t, c.Do(context.Background(), http.MethodGet, u, nil, nil))
	assert.Equal(t, int32(1), fake.loginCalls.Load())
	assert.Equal(t, int32(1), fake.infoCalls.Load())
}

func TestClient_WithTokenSkipsLogin(t *testing.T) {
	c, fake := newTestClient(t, WithToken("preset"))

	u, _ := NewURL("/{omadacId}/api/v2/sites/{siteId}/devices").WithPathParameter("siteId", "s1")
	require.NoError(t, c.Do(context.Background(), http.MethodGet, u, nil, nil))
	assert.Equal(t, "preset", fake.lastToken.Load())
	assert.Equal(t, int32(0), fake.loginCalls.Load())
}

func TestClient_LoginFailure(t *testing.T) {
	c, _ := newTestClient(t, WithCredentials("admin", "wrong"))

	_, err := c.Login(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, -30109, apiErr.ErrorCode)
	assert.Equal(t, "Invalid username or password.", apiErr.Message)
}

func TestClient_ErrorCodeBecomesAPIError(t *testing.T) {
	c, _ := newTestClient(t, WithToken("secret-token"))

	u, _ := NewURL("/{omadacId}/api/v2/sites/{siteId}").WithPathParameter("siteId", "s1")
	err := c.Do(context.Background(), http.MethodDelete, u, nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, -1001, apiErr.ErrorCode)
	assert.NotContains(t, apiErr.URL, "secret-token")
	assert.Contains(t, apiErr.URL, "token=***MASKED***")
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestClient_HTTPStatusError(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Do(context.Background(), http.MethodGet, NewURL("/broken"), nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream exploded")
	assert.True(t, IsRetryable(err))
}

func TestClient_Retries(t *testing.T) {
	c, fake := newTestClient(t)

	require.Error(t, c.Do(context.Background(), http.MethodGet, NewURL("/broken"), nil, nil))
	assert.Equal(t, int32(MaxAttempts), fake.brokenCalls.Load())

	fake.brokenCalls.Store(0)
	require.Error(t, c.Do(context.Background(), http.MethodPost, NewURL("/broken"), map[string]string{}, nil))
	assert.Equal(t, int32(1), fake.brokenCalls.Load())

	c, fake = newTestClient(t, WithRetries(1))
	require.Error(t, c.Do(context.Background(), http.MethodGet, NewURL("/broken"), nil, nil))
	assert.Equal(t, int32(1), fake.brokenCalls.Load())
}

func TestClient_ErrorCodeIsNotRetried(t *testing.T) {
	c, _ := newTestClient(t, WithToken("t"))
	u, _ := NewURL("/{omadacId}/api/v2/sites/{siteId}").WithPathParameter("siteId", "s1")
	err := c.Do(context.Background(), http.MethodDelete, u, nil, nil)
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestBackoff(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		d := Backoff(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+base/2)
	}
	assert.Less(t, Backoff(10), 45*time.Second)
}

func TestBackoff_LargeAttemptsStayCapped(t *testing.T) {
	for _, attempt := range []int{5, 34, 63, 64, 1000} {
		var d time.Duration
		require.NotPanics(t, func() { d = Backoff(attempt) }, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, 30*time.Second, "attempt %d", attempt)
		assert.Less(t, d, 45*time.Second, "attempt %d", attempt)
	}

	d := Backoff(-1)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, time.Second+time.Second/2)
}

func TestClient_MissingPathParameter(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Do(context.Background(), http.MethodGet, NewURL("/{omadacId}/api/v2/sites/{siteId}/devices"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "siteId")
}
