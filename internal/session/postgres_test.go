package session_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyscroll/studyscroll/internal/session"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if STUDYSCROLL_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("STUDYSCROLL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STUDYSCROLL_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh PostgresStore over a clean sessions table and
// registers cleanup to close it.
func newTestStore(t *testing.T) *session.PostgresStore {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS sessions`); err != nil {
		t.Fatalf("drop sessions table: %v", err)
	}

	store, err := session.NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testSession(true)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, want.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Topic != want.Topic {
		t.Errorf("Topic = %q, want %q", got.Topic, want.Topic)
	}
	if len(got.Cards) != len(want.Cards) {
		t.Errorf("len(Cards) = %d, want %d", len(got.Cards), len(want.Cards))
	}
	if len(got.Alignment) != len(want.Alignment) {
		t.Errorf("len(Alignment) = %d, want %d", len(got.Alignment), len(want.Alignment))
	}
	if string(got.Audio) != string(want.Audio) {
		t.Errorf("Audio mismatch: got %d bytes, want %d", len(got.Audio), len(want.Audio))
	}
}

func TestPostgresStoreTextOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testSession(false)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, want.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.HasAudio() {
		t.Error("HasAudio() = true, want false")
	}
}

func TestPostgresStoreNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load(unknown) = %v, want ErrNotFound", err)
	}
	ok, err := store.Exists(ctx, "nope")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists(unknown) = true, want false")
	}
}
