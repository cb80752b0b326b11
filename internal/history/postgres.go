package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one jsonb transcript row per user.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("history pool: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Ensure creates the transcripts table if it does not exist.
func (s *PostgresStore) Ensure(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("history pool is not initialized")
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			user_id    TEXT PRIMARY KEY,
			turns      JSONB NOT NULL DEFAULT '[]'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, userID string) ([]Turn, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("history pool is not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT turns FROM conversations WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history load %s: %w", userID, err)
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("history decode %s: %w", userID, err)
	}
	return turns, nil
}

func (s *PostgresStore) Save(ctx context.Context, userID string, turns []Turn) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("history pool is not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if turns == nil {
		turns = []Turn{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("history encode %s: %w", userID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (user_id, turns, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET turns = EXCLUDED.turns, updated_at = now()`,
		userID, raw)
	if err != nil {
		return fmt.Errorf("history save %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
