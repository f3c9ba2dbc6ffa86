package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"

	// DefaultKeyTTL bounds how long a resolved key is reused before the
	// database is asked again.
	DefaultKeyTTL = time.Minute
)

// Store keeps the bill verification API key in the database so operators can
// rotate it with poolctl while the API and worker keep running.
type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetOpenAIAPIKey stores key, recording model alongside it when given.
func (s *Store) SetOpenAIAPIKey(ctx context.Context, key, model string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("openai api key is required")
	}
	props := map[string]any{}
	if model = strings.TrimSpace(model); model != "" {
		props["model"] = model
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, ProviderOpenAI, key, raw)
	return err
}

// Clear removes the stored token so callers fall back to their configured key.
func (s *Store) Clear(ctx context.Context, provider string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteProviderKey, provider)
	return err
}

// KeyFunc resolves the key from the store first and falls back to the
// configured value when nothing is stored. A resolved key is reused for ttl;
// lookup errors are not cached.
func (s *Store) KeyFunc(provider, fallback string, ttl time.Duration) func(context.Context) (string, error) {
	fallback = strings.TrimSpace(fallback)
	var (
		mu      sync.Mutex
		cached  string
		expires time.Time
	)
	return func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		now := s.now()
		if ttl > 0 && now.Before(expires) {
			return cached, nil
		}
		token, err := s.Token(ctx, provider)
		if err != nil {
			return "", err
		}
		if token == "" {
			token = fallback
		}
		cached, expires = token, now.Add(ttl)
		return token, nil
	}
}

// Mask shortens key for display, keeping a short prefix and the last four characters.
func Mask(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}
