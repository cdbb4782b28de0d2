package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gatewayhttp "github.com/aussiebroadwan/chatgate/internal/gateway/http"
	"github.com/aussiebroadwan/chatgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/chatgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

const (
	testSecret = "s3cr3t"
	week10Key  = "sk-4edbaceaf79443dc"
	week11Key  = "sk-514fb80d13f10f58"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	router   *gatewayhttp.Router
	clock    *testClock
	store    *memory.Store
	metrics  *metrics.Metrics
	upstream *upstreamStub
}

type upstreamStub struct {
	mu       sync.Mutex
	status   int
	body     string
	lastAuth string
	lastBody map[string]any
}

func (u *upstreamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.lastAuth = r.Header.Get("Authorization")
	u.lastBody = nil
	_ = json.NewDecoder(r.Body).Decode(&u.lastBody)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(u.status)
	_, _ = io.WriteString(w, u.body)
}

func newFixture(t *testing.T, policy service.Policy, opts ...func(*gatewayhttp.RouterConfig)) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	st := memory.NewStore()
	m := metrics.New()
	logger := slogx.Discard()

	km, err := keyx.NewKeyManager(keyx.KeyManagerOptions{
		Store:  st,
		Secret: testSecret,
		Clock:  clock,
		Logger: logger,
	})
	require.NoError(t, err)
	require.NoError(t, km.Initialize(context.Background()))

	upstream := &upstreamStub{
		status: http.StatusOK,
		body:   `{"id":"c-1","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"}}]}`,
	}
	upstreamSrv := httptest.NewServer(upstream)
	t.Cleanup(upstreamSrv.Close)

	pool, err := service.NewKeyPool([]string{"gsk-upstream"}, service.KeyModeRound)
	require.NoError(t, err)
	chat, err := service.NewChatService(service.ChatConfig{
		URL:  upstreamSrv.URL,
		Keys: pool,
	}, m, logger)
	require.NoError(t, err)

	cfg := gatewayhttp.RouterConfig{
		Keys:         km,
		Clock:        clock,
		AdminSecret:  testSecret,
		BuildVersion: "test",
		Store:        st,
		Metrics:      m,
		Logger:       logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := gatewayhttp.NewRouter(cfg)
	r.ChatService = chat
	r.KeyRotationService = &service.KeyRotationService{
		KeyManager: km,
		Policy:     policy,
		Clock:      clock,
		Metrics:    m,
		Logger:     logger,
	}
	r.ApplyRoutes()

	return &fixture{router: r, clock: clock, store: st, metrics: m, upstream: upstream}
}

func (f *fixture) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestChatRequiresKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	t.Run("missing key", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"unauthorized","error_description":"invalid or expired API key"}`, rec.Body.String())
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week11Key})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotContains(t, rec.Body.String(), week11Key)
	})

	t.Run("current key", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week10Key})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, f.upstream.body, rec.Body.String())
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
	})
}

func TestChatForwardsPrompt(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	rec := f.do(http.MethodPost, "/chat", `{"prompt":"tell me a joke"}`, map[string]string{"x-api-key": week10Key})
	require.Equal(t, http.StatusOK, rec.Code)

	f.upstream.mu.Lock()
	defer f.upstream.mu.Unlock()
	require.Equal(t, "Bearer gsk-upstream", f.upstream.lastAuth)
	require.Equal(t, service.DefaultUpstreamModel, f.upstream.lastBody["model"])

	messages, ok := f.upstream.lastBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	require.Equal(t, map[string]any{"role": "user", "content": "tell me a joke"}, messages[0])
}

func TestChatBadRequests(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)
	auth := map[string]string{"x-api-key": week10Key}

	tests := []struct {
		name string
		body string
	}{
		{"not json", `prompt=hi`},
		{"empty prompt", `{"prompt":""}`},
		{"blank prompt", `{"prompt":"   "}`},
		{"missing prompt", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/chat", tt.body, auth)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body gatewaysdk.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, gatewaysdk.ErrorCodeInvalidRequest, body.Error)
		})
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	f.upstream.mu.Lock()
	f.upstream.status = http.StatusTooManyRequests
	f.upstream.body = `{"error":{"message":"quota"}}`
	f.upstream.mu.Unlock()

	rec := f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week10Key})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body gatewaysdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, gatewaysdk.ErrorCodeUpstreamError, body.Error)
	require.NotContains(t, rec.Body.String(), "gsk-upstream")
}

func TestCurrentKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	t.Run("missing secret", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/current-key", "", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.NotContains(t, rec.Body.String(), week10Key)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/current-key", "", map[string]string{"admin-secret": "guess"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body gatewaysdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, gatewaysdk.ErrorCodeForbidden, body.Error)
	})

	t.Run("valid secret", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/current-key", "", map[string]string{"admin-secret": testSecret})
		require.Equal(t, http.StatusOK, rec.Code)

		var body gatewaysdk.CurrentKeyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, week10Key, body.APIKey)
		require.Equal(t, 7, body.DaysRemaining)
		require.True(t, body.Expiry.Equal(time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)))
		require.Empty(t, body.Warning)

		require.JSONEq(t,
			`{"api_key":"sk-4edbaceaf79443dc","expiry":"2024-03-11T10:00:00Z","days_remaining":7}`,
			rec.Body.String())
	})

	t.Run("api key is not an admin credential", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/current-key", "", map[string]string{"x-api-key": week10Key})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCurrentKeyRotatesExpiredKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyOnDemand)

	f.clock.Set(time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC))

	// The gate trusts the in-memory key until something rotates it.
	rec := f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week10Key})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/current-key", "", map[string]string{"admin-secret": testSecret})
	require.Equal(t, http.StatusOK, rec.Code)

	var body gatewaysdk.CurrentKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, week11Key, body.APIKey)
	require.Equal(t, 7, body.DaysRemaining)

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, week11Key, stored.Key)

	rec = f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week10Key})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week11Key})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCurrentKeyStartupPolicyNeverRotates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyStartup)

	f.clock.Set(time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	rec := f.do(http.MethodGet, "/current-key", "", map[string]string{"admin-secret": testSecret})
	require.Equal(t, http.StatusOK, rec.Code)

	var body gatewaysdk.CurrentKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, week10Key, body.APIKey)
	require.Equal(t, -1, body.DaysRemaining)
}

func TestPublicPathsSkipGate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	for _, path := range []string{"/health", "/livez", "/readyz", "/metrics", "/swagger/doc.json"} {
		t.Run(path, func(t *testing.T) {
			rec := f.do(http.MethodGet, path, "", map[string]string{"x-api-key": "sk-wrong"})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestUnknownPathRequiresKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	rec := f.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/nope", "", map[string]string{"x-api-key": week10Key})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLivez(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	rec := f.do(http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body gatewaysdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "test", body.Version)
	require.Nil(t, body.Checks)
}

func TestReadyz(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyStartup)

	rec := f.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body gatewaysdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, &gatewaysdk.HealthChecks{KeyStore: "ok", Key: "ok"}, body.Checks)

	f.clock.Set(time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC))

	rec = f.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "expired", body.Checks.Key)
}

func TestCurrentKeyThrottlesSpoofedForwarding(t *testing.T) {
	t.Parallel()

	guess := func(f *fixture, remote string, i int) int {
		req := httptest.NewRequest(http.MethodGet, "/current-key", nil)
		req.RemoteAddr = remote
		req.Header.Set("admin-secret", fmt.Sprintf("guess-%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("untrusted peer is limited by RemoteAddr", func(t *testing.T) {
		f := newFixture(t, service.PolicyScheduled)

		for i := range httpx.StrictLimit.Burst {
			require.Equal(t, http.StatusForbidden, guess(f, "198.51.100.7:4000", i), "guess %d", i+1)
		}
		require.Equal(t, http.StatusTooManyRequests, guess(f, "198.51.100.7:4000", httpx.StrictLimit.Burst))
	})

	t.Run("trusted proxy forwards the client address", func(t *testing.T) {
		f := newFixture(t, service.PolicyScheduled, func(cfg *gatewayhttp.RouterConfig) {
			cfg.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
		})

		// Each forwarded client gets its own bucket behind the proxy.
		for i := range httpx.StrictLimit.Burst + 1 {
			require.Equal(t, http.StatusForbidden, guess(f, "10.0.0.2:4000", i), "guess %d", i+1)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	rec := f.do(http.MethodOptions, "/chat", "", map[string]string{
		"Origin":                         "https://app.example.com",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "x-api-key",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-api-key")
	require.Empty(t, rec.Body.String())
}

func TestMetricsCountGateDecisions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.PolicyScheduled)

	f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, nil)
	f.do(http.MethodPost, "/chat", `{"prompt":"hi"}`, map[string]string{"x-api-key": week10Key})

	rec := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `chatgate_gate_decisions_total{decision="reject"} 1`)
	require.Contains(t, body, `chatgate_upstream_requests_total{outcome="ok"} 1`)
}
