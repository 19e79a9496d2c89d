package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestHTTPAuthMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	h := wrapHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 60, MaxBodyBytes: 1024})

	req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHTTPAuthMiddlewareAllowsToolCalls(t *testing.T) {
	called := false
	h := wrapHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 60, MaxBodyBytes: 1 << 20})

	req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected wrapped handler to be invoked")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := withRateLimit(next, newHTTPRateLimiter(1))

	req1 := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req1.RemoteAddr = "127.0.0.1:1234"
	req1.Header.Set("Authorization", "Bearer secret")
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, req1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req2.RemoteAddr = "127.0.0.1:1234"
	req2.Header.Set("Authorization", "Bearer secret")
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got == "" || got == "0" {
		t.Fatalf("expected positive Retry-After, got %q", got)
	}
}

func TestBearerSchemeIsCaseInsensitive(t *testing.T) {
	h := wrapHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), HTTPHandlerConfig{AuthToken: "secret"})

	req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	req.Header.Set("Authorization", "bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMissingTokenAdvertisesScheme(t *testing.T) {
	h := wrapHTTPHandler(http.NotFoundHandler(), HTTPHandlerConfig{AuthToken: "secret"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil))
	if !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer") {
		t.Fatalf("expected WWW-Authenticate header, got %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestClientKeyHidesToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	req.RemoteAddr = "10.0.0.5:4444"
	req.Header.Set("Authorization", "Bearer super-secret-token")

	key := clientKey(req)
	if strings.Contains(key, "super-secret-token") {
		t.Fatalf("key leaks token: %q", key)
	}
	if !strings.HasSuffix(key, "@10.0.0.5") {
		t.Fatalf("expected host suffix, got %q", key)
	}

	anon := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	anon.RemoteAddr = "10.0.0.5:4444"
	if got := clientKey(anon); got != "10.0.0.5" {
		t.Fatalf("expected bare host, got %q", got)
	}
}

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	l := newHTTPRateLimiter(60)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		if ok, _ := l.allow("a", start); !ok {
			t.Fatalf("request %d should fit the burst", i)
		}
	}
	ok, wait := l.allow("a", start)
	if ok || wait <= 0 || wait > time.Second {
		t.Fatalf("expected denial with ~1s wait, got ok=%v wait=%v", ok, wait)
	}
	if ok, _ := l.allow("a", start.Add(time.Second)); !ok {
		t.Fatal("expected a token after one second")
	}

	l.sweep(start.Add(bucketIdleTTL + 2*time.Second))
	if len(l.clients) != 0 {
		t.Fatalf("expected idle buckets swept, got %d", len(l.clients))
	}
}

func TestHTTPTransportEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv, _, _, _ := testServer()
	handler := NewHTTPTransportHandler(srv, HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 60})
	httpSrv := httptest.NewServer(handler)
	defer httpSrv.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-http-client", Version: "1.0.0"}, nil)
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   httpSrv.URL,
		HTTPClient: &http.Client{Transport: &authRoundTripper{token: "secret"}},
	}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		t.Fatalf("connect over http failed: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools over http failed: %v", err)
	}
	if len(tools.Tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools.Tools))
	}
}
