package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window should reset the budget")
	}
	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(DefaultConfig())
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")

	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Fatalf("cleanupStaleEntries() = %d, want 1", n)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("ActiveClients() = %d", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	h := rl.Middleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 2)
	for i := range codes {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		h.ServeHTTP(rr, req)
		codes[i] = rr.Code
		if i == 1 && rr.Header().Get("Retry-After") != "60" {
			t.Error("limited responses should carry Retry-After")
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes: %v", codes)
	}
}

func TestLimiter_RunStopsOnCancel(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:8080"
	if got := ClientIP(req); got != "203.0.113.5" {
		t.Errorf("ClientIP() = %q", got)
	}
	req.RemoteAddr = "203.0.113.5"
	if got := ClientIP(req); got != "203.0.113.5" {
		t.Errorf("ClientIP() without port = %q", got)
	}
}
