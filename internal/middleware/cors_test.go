package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORS([]string{"https://pool.example.org/"})(next)

	cases := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		status      int
		allowOrigin string
		maxAge      string
	}{
		{"listed origin", http.MethodGet, "https://pool.example.org", false, http.StatusTeapot, "https://pool.example.org", ""},
		{"unlisted origin", http.MethodGet, "https://evil.example", false, http.StatusTeapot, "", ""},
		{"preflight", http.MethodOptions, "https://pool.example.org", true, http.StatusNoContent, "https://pool.example.org", "600"},
		{"unlisted preflight", http.MethodOptions, "https://evil.example", true, http.StatusNoContent, "", ""},
		{"plain options", http.MethodOptions, "https://pool.example.org", false, http.StatusTeapot, "https://pool.example.org", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/pools", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.allowOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.allowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Max-Age"); got != tc.maxAge {
				t.Fatalf("max age = %q, want %q", got, tc.maxAge)
			}
		})
	}
}
