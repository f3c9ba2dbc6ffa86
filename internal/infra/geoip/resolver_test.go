package geoip

import (
	"errors"
	"testing"
)

func TestNilResolverIsUnavailable(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}
	if _, err := r.Locate("1.1.1.1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		forwarded, remote, want string
	}{
		{"", "10.0.0.4:5123", "10.0.0.4"},
		{"203.0.113.9, 10.0.0.1", "10.0.0.4:5123", "203.0.113.9"},
		{"not-an-ip", "[2001:db8::1]:443", "2001:db8::1"},
		{"", "198.51.100.2", "198.51.100.2"},
	}
	for _, tc := range tests {
		if got := ClientIP(tc.forwarded, tc.remote); got != tc.want {
			t.Fatalf("ClientIP(%q, %q) = %q, want %q", tc.forwarded, tc.remote, got, tc.want)
		}
	}
}
