package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Postgres stores slots in a single table keyed by (profile, slot), letting
// one database back several client instances.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS client_state (
//	    profile    TEXT NOT NULL,
//	    slot       TEXT NOT NULL,
//	    data       BYTEA NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (profile, slot)
//	);
type Postgres struct {
	db      *sql.DB
	profile string
}

// ConnectPostgres opens and pings a PostgreSQL connection.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

func NewPostgres(db *sql.DB, profile string) *Postgres {
	return &Postgres{db: db, profile: profile}
}

func (p *Postgres) Write(ctx context.Context, slot string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO client_state (profile, slot, data, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile, slot)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		p.profile, slot, data, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}

func (p *Postgres) Read(ctx context.Context, slot string) ([]byte, bool, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT data FROM client_state WHERE profile = $1 AND slot = $2",
		p.profile, slot,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, true, nil
}

func (p *Postgres) Clear(ctx context.Context, slot string) error {
	_, err := p.db.ExecContext(ctx,
		"DELETE FROM client_state WHERE profile = $1 AND slot = $2",
		p.profile, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", slot, err)
	}
	return nil
}
