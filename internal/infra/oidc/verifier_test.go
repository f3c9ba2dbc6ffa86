package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAudienceMatches(t *testing.T) {
	cases := []struct {
		name     string
		aud      any
		audience string
		want     bool
	}{
		{name: "string match", aud: "client", audience: "client", want: true},
		{name: "string mismatch", aud: "client", audience: "other", want: false},
		{name: "slice any match", aud: []any{"other", "client"}, audience: "client", want: true},
		{name: "slice any mismatch", aud: []any{"other", 1}, audience: "client", want: false},
		{name: "slice string match", aud: []string{"client", "alt"}, audience: "client", want: true},
		{name: "missing", aud: nil, audience: "client", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := audienceMatches(tc.aud, tc.audience); got != tc.want {
				t.Fatalf("audienceMatches(%v, %q) = %v, want %v", tc.aud, tc.audience, got, tc.want)
			}
		})
	}
}

type testIssuer struct {
	server *httptest.Server
	key    *rsa.PrivateKey
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ti := &testIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"jwks_uri": ti.server.URL + "/jwks"})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kid": "k1",
			"kty": "RSA",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	ti.server = httptest.NewServer(mux)
	t.Cleanup(ti.server.Close)
	return ti
}

func (ti *testIssuer) sign(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "kid": "k1", "typ": "JWT"})
	payload, _ := json.Marshal(claims)
	input := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	hashed := sha256.Sum256([]byte(input))
	sig, err := rsa.SignPKCS1v15(rand.Reader, ti.key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return input + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func TestVerifyIDToken(t *testing.T) {
	ti := newTestIssuer(t)
	v := NewVerifier(ti.server.URL+"/", "app")
	exp := time.Now().Add(time.Hour).Unix()

	token := ti.sign(t, map[string]any{
		"iss":   ti.server.URL,
		"aud":   []string{"app"},
		"sub":   "user-123",
		"email": "amina@example.org",
		"name":  "Amina",
		"exp":   exp,
	})
	claims, err := v.VerifyIDToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyIDToken error: %v", err)
	}
	if claims.Subject != "user-123" || claims.Email != "amina@example.org" || claims.Name != "Amina" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	wrongAud := ti.sign(t, map[string]any{"iss": ti.server.URL, "aud": "other", "sub": "x", "exp": exp})
	if _, err := v.VerifyIDToken(context.Background(), wrongAud); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for audience, got %v", err)
	}

	expired := ti.sign(t, map[string]any{"iss": ti.server.URL, "aud": "app", "sub": "x", "exp": time.Now().Add(-time.Minute).Unix()})
	if _, err := v.VerifyIDToken(context.Background(), expired); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyIDTokenRejectsTamperedPayload(t *testing.T) {
	ti := newTestIssuer(t)
	v := NewVerifier(ti.server.URL, "")
	token := ti.sign(t, map[string]any{"iss": ti.server.URL, "sub": "x", "exp": time.Now().Add(time.Hour).Unix()})

	forged, _ := json.Marshal(map[string]any{"iss": ti.server.URL, "sub": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString(forged) + "." + parts[2]
	if _, err := v.VerifyIDToken(context.Background(), tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := v.VerifyIDToken(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}
