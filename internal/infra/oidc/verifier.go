// Package oidc verifies ID tokens issued by the external identity provider
// against the provider's published JWKS.
package oidc

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
)

// Claims are the identity fields the platform reads from an ID token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Issuer        string
	ExpiresAt     time.Time
}

// TokenVerifier validates an ID token and returns its claims.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*Claims, error)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type Verifier struct {
	issuer     string
	audience   string
	mu         sync.RWMutex
	cache      map[string]*rsa.PublicKey
	fetched    time.Time
	httpClient *http.Client
	now        func() time.Time
}

func NewVerifier(issuer, audience string) *Verifier {
	return &Verifier{
		issuer:     strings.TrimRight(issuer, "/"),
		audience:   audience,
		cache:      make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// WithHTTPClient swaps the client used to fetch discovery documents and keys.
func (v *Verifier) WithHTTPClient(c *http.Client) *Verifier {
	if c != nil {
		v.httpClient = c
	}
	return v
}

func (v *Verifier) VerifyIDToken(ctx context.Context, token string) (*Claims, error) {
	header, payload, signature, signingInput, err := parseJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if alg, _ := header["alg"].(string); alg != "RS256" {
		return nil, fmt.Errorf("%w: unsupported alg %q", ErrInvalidToken, alg)
	}
	if err := v.ensureKeys(ctx); err != nil {
		return nil, err
	}
	kid, _ := header["kid"].(string)
	key, ok := v.keyFor(kid)
	if !ok {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		key, ok = v.keyFor(kid)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kid", ErrInvalidToken)
		}
	}
	hashed := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, hashed[:], signature); err != nil {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}
	iss, _ := payload["iss"].(string)
	if strings.TrimRight(iss, "/") != v.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}
	if v.audience != "" && !audienceMatches(payload["aud"], v.audience) {
		return nil, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
	}
	now := v.now()
	claims := &Claims{Issuer: iss}
	if exp, ok := payload["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
		if now.Unix() > int64(exp) {
			return nil, ErrExpired
		}
	}
	if nbf, ok := payload["nbf"].(float64); ok && now.Unix() < int64(nbf) {
		return nil, fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	}
	claims.Subject, _ = payload["sub"].(string)
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	claims.Email, _ = payload["email"].(string)
	claims.EmailVerified, _ = payload["email_verified"].(bool)
	claims.Name, _ = payload["name"].(string)
	return claims, nil
}

func audienceMatches(aud any, audience string) bool {
	switch v := aud.(type) {
	case string:
		return v == audience
	case []string:
		for _, a := range v {
			if a == audience {
				return true
			}
		}
	case []any:
		for _, a := range v {
			if s, ok := a.(string); ok && s == audience {
				return true
			}
		}
	}
	return false
}

func (v *Verifier) ensureKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := v.now().Sub(v.fetched) < time.Hour && len(v.cache) > 0
	v.mu.RUnlock()
	if fresh {
		return nil
	}
	return v.refresh(ctx)
}

func (v *Verifier) refresh(ctx context.Context) error {
	cfg, err := v.fetchConfig(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.JWKSURI, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oidc: jwks status %d", resp.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("oidc: no keys fetched")
	}
	v.mu.Lock()
	v.cache = keys
	v.fetched = v.now()
	v.mu.Unlock()
	return nil
}

type discovery struct {
	JWKSURI string `json:"jwks_uri"`
}

func (v *Verifier) fetchConfig(ctx context.Context) (*discovery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oidc: discovery status %d", resp.StatusCode)
	}
	var cfg discovery
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWKSURI == "" {
		return nil, errors.New("oidc: discovery document has no jwks_uri")
	}
	return &cfg, nil
}

func (v *Verifier) keyFor(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pk, ok := v.cache[kid]
	return pk, ok
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func parseJWT(token string) (map[string]any, map[string]any, []byte, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, nil, "", errors.New("malformed token")
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, nil, "", err
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, nil, "", err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, nil, "", err
	}
	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, nil, "", err
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, nil, nil, "", err
	}
	return header, payload, signature, parts[0] + "." + parts[1], nil
}
