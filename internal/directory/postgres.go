package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/adapter"
)

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// Postgres reads the county directory from a "county" table, so operators
// can switch counties off without a deploy.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, creates the table if needed and returns a
// ready-to-use directory.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Debug().Err(err).Int("attempt", i+1).Msg("County directory not reachable yet")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(pingDelay):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return p, nil
}

// NewPostgres wraps an existing connection pool. The table must exist.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS county (
			id          SERIAL PRIMARY KEY,
			state_code  CHAR(2)      NOT NULL,
			county_name VARCHAR(100) NOT NULL,
			path        VARCHAR(100) UNIQUE NOT NULL,
			status      SMALLINT     NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_county_state ON county(state_code);
	`)
	return err
}

// Counties returns the enabled counties of state ordered by name.
func (p *Postgres) Counties(ctx context.Context, state string) ([]adapter.County, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT county_name, path
		FROM county
		WHERE state_code = $1 AND status = 1
		ORDER BY county_name ASC
	`, strings.ToUpper(strings.TrimSpace(state)))
	if err != nil {
		return nil, fmt.Errorf("postgres: counties: %w", err)
	}
	defer rows.Close()

	out := []adapter.County{}
	for rows.Next() {
		var c adapter.County
		if err := rows.Scan(&c.County, &c.Path); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sync inserts every registered jurisdiction that is missing from the table.
// Existing rows keep their status.
func (p *Postgres) Sync(ctx context.Context, registry *adapter.Registry) (int, error) {
	var states, names, paths []string
	for _, j := range registry.Jurisdictions() {
		states = append(states, strings.ToUpper(j.State))
		names = append(names, j.Name)
		paths = append(paths, j.ID())
	}
	if len(paths) == 0 {
		return 0, nil
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO county (state_code, county_name, path)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		ON CONFLICT (path) DO NOTHING
	`, pq.Array(states), pq.Array(names), pq.Array(paths))
	if err != nil {
		return 0, fmt.Errorf("postgres: sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: sync: rows affected: %w", err)
	}
	return int(n), nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
