package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"caller id kept", "edge-7f3a:42", true},
		{"newline rejected", "abc\ninjected", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header[requestIDHeader] = []string{tc.incoming}
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Header().Get(requestIDHeader) != seen {
				t.Fatalf("header %q != context %q", rr.Header().Get(requestIDHeader), seen)
			}
			if tc.keep {
				if seen != tc.incoming {
					t.Fatalf("id = %q, want %q", seen, tc.incoming)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Fatalf("id %q is not a generated uuid", seen)
			}
		})
	}
}
