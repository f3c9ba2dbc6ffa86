package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

type stubExecutor struct {
	token   string
	err     error
	lookups int
	query   string
	args    []any
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.query, s.args = query, args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	s.lookups++
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.token
	return nil
}

func TestToken(t *testing.T) {
	cases := []struct {
		name    string
		exec    *stubExecutor
		want    string
		wantErr bool
	}{
		{"stored", &stubExecutor{token: " sk-abc123 "}, "sk-abc123", false},
		{"none stored", &stubExecutor{err: pgx.ErrNoRows}, "", false},
		{"db down", &stubExecutor{err: errors.New("connection refused")}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewStore(tc.exec).OpenAIAPIKey(context.Background())
			if (err != nil) != tc.wantErr || got != tc.want {
				t.Fatalf("OpenAIAPIKey = %q, %v", got, err)
			}
		})
	}
}

func TestKeyFuncFallsBackToConfiguredKey(t *testing.T) {
	key, err := NewStore(&stubExecutor{err: pgx.ErrNoRows}).KeyFunc(ProviderOpenAI, " from-env ", 0)(context.Background())
	if err != nil || key != "from-env" {
		t.Fatalf("KeyFunc = %q, %v", key, err)
	}
	key, err = NewStore(&stubExecutor{token: "from-db"}).KeyFunc(ProviderOpenAI, "from-env", 0)(context.Background())
	if err != nil || key != "from-db" {
		t.Fatalf("KeyFunc = %q, %v", key, err)
	}
}

func TestKeyFuncCachesForTTL(t *testing.T) {
	exec := &stubExecutor{token: "first"}
	store := NewStore(exec)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	resolve := store.KeyFunc(ProviderOpenAI, "", time.Minute)
	ctx := context.Background()

	if key, _ := resolve(ctx); key != "first" {
		t.Fatalf("key = %q", key)
	}
	exec.token = "rotated"
	now = now.Add(30 * time.Second)
	if key, _ := resolve(ctx); key != "first" || exec.lookups != 1 {
		t.Fatalf("within ttl: key %q after %d lookups", key, exec.lookups)
	}
	now = now.Add(31 * time.Second)
	if key, _ := resolve(ctx); key != "rotated" || exec.lookups != 2 {
		t.Fatalf("after ttl: key %q after %d lookups", key, exec.lookups)
	}
}

func TestKeyFuncDoesNotCacheErrors(t *testing.T) {
	exec := &stubExecutor{err: errors.New("connection refused")}
	resolve := NewStore(exec).KeyFunc(ProviderOpenAI, "from-env", time.Minute)
	if _, err := resolve(context.Background()); err == nil {
		t.Fatal("expected lookup error")
	}
	exec.err, exec.token = nil, "from-db"
	if key, err := resolve(context.Background()); err != nil || key != "from-db" {
		t.Fatalf("retry = %q, %v", key, err)
	}
}

func TestSetOpenAIAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewStore(exec).SetOpenAIAPIKey(context.Background(), " secret ", "gpt-4o"); err != nil {
		t.Fatal(err)
	}
	if exec.query != sqlinline.QUpsertProviderKey || len(exec.args) != 3 {
		t.Fatalf("exec = %q %v", exec.query, exec.args)
	}
	if exec.args[0] != ProviderOpenAI || exec.args[1] != "secret" {
		t.Fatalf("args = %v", exec.args)
	}
	if raw, ok := exec.args[2].([]byte); !ok || string(raw) != `{"model":"gpt-4o"}` {
		t.Fatalf("properties = %v", exec.args[2])
	}

	if err := NewStore(&stubExecutor{}).SetOpenAIAPIKey(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestClear(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewStore(exec).Clear(context.Background(), ProviderOpenAI); err != nil {
		t.Fatal(err)
	}
	if exec.query != sqlinline.QDeleteProviderKey || exec.args[0] != ProviderOpenAI {
		t.Fatalf("exec = %q %v", exec.query, exec.args)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"short":              "*****",
		"sk-proj-abcdef1234": "sk-***********1234",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
