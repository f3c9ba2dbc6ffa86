package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"forwarded", " 203.0.113.1 , 198.51.100.2 ", "198.51.100.10:1234", "ip:203.0.113.1"},
		{"invalid forwarded falls back", "invalid", "198.51.100.10:1234", "ip:198.51.100.10"},
		{"remote host", "", "198.51.100.10:1234", "ip:198.51.100.10"},
		{"ipv6 remote", "", net.JoinHostPort("2001:db8::2", "443"), "ip:2001:db8::2"},
		{"remote without port", "", "203.0.113.1", "ip:203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientKey(req); got != tc.want {
				t.Fatalf("ClientKey() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUserOrClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/bills/upload", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	if got := UserOrClientKey(req); got != "ip:198.51.100.10" {
		t.Fatalf("anonymous key = %q", got)
	}
	req = req.WithContext(ContextWithUser(req.Context(), "u-1", "recipient"))
	if got := UserOrClientKey(req); got != "user:u-1" {
		t.Fatalf("user key = %q", got)
	}
}

func TestWindowLimiter(t *testing.T) {
	l := newWindowLimiter(2, time.Minute)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if ok, left, _ := l.allow("a", start); !ok || left != 1 {
		t.Fatalf("first = %v %d", ok, left)
	}
	if ok, left, _ := l.allow("a", start.Add(time.Second)); !ok || left != 0 {
		t.Fatalf("second = %v %d", ok, left)
	}
	ok, _, wait := l.allow("a", start.Add(10*time.Second))
	if ok || wait != 50*time.Second {
		t.Fatalf("third = %v wait %s", ok, wait)
	}
	if ok, _, _ := l.allow("b", start.Add(10*time.Second)); !ok {
		t.Fatal("other key shares the bucket")
	}
	if ok, _, _ := l.allow("a", start.Add(61*time.Second)); !ok {
		t.Fatal("window did not reset")
	}
}

func TestWindowLimiterSweepsExpiredBuckets(t *testing.T) {
	l := newWindowLimiter(1, time.Minute)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, k := range []string{"a", "b", "c"} {
		l.allow(k, start)
	}
	l.allow("d", start.Add(2*time.Minute))
	if len(l.buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(l.buckets))
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusNoContent || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("first = %d remaining %q", first.Code, first.Header().Get("X-RateLimit-Remaining"))
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests || second.Header().Get("Retry-After") == "" {
		t.Fatalf("second = %d retry %q", second.Code, second.Header().Get("Retry-After"))
	}
}
