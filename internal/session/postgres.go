package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/narrate"
)

const ddlSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT         PRIMARY KEY,
    topic      TEXT         NOT NULL,
    cards      JSONB        NOT NULL,
    alignment  JSONB,
    audio      BYTEA,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_created_at
    ON sessions (created_at);
`

// PostgresStore persists sessions in a single sessions table, cards and
// alignment as JSONB and the narration as BYTEA. Inserts only; sessions are
// immutable. A row insert is atomic, which gives the Store publish guarantee
// for free.
//
// All methods are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Compile-time interface assertion.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at dsn, verifies the connection,
// and ensures the sessions table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres session store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres session store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlSessions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres session store: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	cards, err := json.Marshal(sess.Cards)
	if err != nil {
		return fmt.Errorf("postgres session store: marshal cards: %w", err)
	}
	var alignment []byte
	if len(sess.Alignment) > 0 {
		alignment, err = json.Marshal(sess.Alignment)
		if err != nil {
			return fmt.Errorf("postgres session store: marshal alignment: %w", err)
		}
	}

	const q = `
		INSERT INTO sessions (id, topic, cards, alignment, audio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.pool.Exec(ctx, q,
		sess.ID,
		sess.Topic,
		cards,
		alignment,
		sess.Audio,
		sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres session store: insert session: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	const q = `
		SELECT id, topic, cards, alignment, audio, created_at
		FROM   sessions
		WHERE  id = $1`

	var (
		sess      Session
		cards     []byte
		alignment []byte
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&sess.ID,
		&sess.Topic,
		&cards,
		&alignment,
		&sess.Audio,
		&sess.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres session store: load session: %w", err)
	}

	if err := json.Unmarshal(cards, &sess.Cards); err != nil {
		return nil, fmt.Errorf("postgres session store: decode cards: %w", err)
	}
	if len(alignment) > 0 {
		var spans narrate.Alignment
		if err := json.Unmarshal(alignment, &spans); err != nil {
			return nil, fmt.Errorf("postgres session store: decode alignment: %w", err)
		}
		sess.Alignment = spans
	}
	if sess.Cards == nil {
		sess.Cards = deck.Sequence{}
	}
	return &sess, nil
}

// Exists implements Store.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres session store: exists: %w", err)
	}
	return exists, nil
}
