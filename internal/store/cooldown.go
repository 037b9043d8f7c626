package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fmewatch/internal/model"
)

// CooldownStore persists legendary species cooldowns. Instants are stored as
// unix milliseconds.
type CooldownStore struct {
	db *sql.DB
}

func NewCooldownStore(db *sql.DB) *CooldownStore {
	return &CooldownStore{db: db}
}

// Start marks species as cooling down from now for d, replacing any existing
// cooldown.
func (s *CooldownStore) Start(species string, now time.Time, d time.Duration) (model.Cooldown, error) {
	c := model.Cooldown{
		Species:   species,
		StartedAt: now.UTC().Truncate(time.Millisecond),
		ExpiresAt: now.Add(d).UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.Exec(
		`INSERT INTO cooldowns (species, started_at, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(species) DO UPDATE SET started_at = excluded.started_at, expires_at = excluded.expires_at`,
		c.Species, c.StartedAt.UnixMilli(), c.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return model.Cooldown{}, fmt.Errorf("start cooldown %q: %w", species, err)
	}
	return c, nil
}

// Active returns the cooldowns that have not expired at now, soonest first.
func (s *CooldownStore) Active(now time.Time) ([]model.Cooldown, error) {
	rows, err := s.db.Query(
		`SELECT species, started_at, expires_at FROM cooldowns WHERE expires_at > ? ORDER BY expires_at, species`,
		now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("list cooldowns: %w", err)
	}
	defer rows.Close()
	return scanCooldowns(rows)
}

// Delete removes a cooldown and reports whether it existed.
func (s *CooldownStore) Delete(species string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM cooldowns WHERE species = ?`, species)
	if err != nil {
		return false, fmt.Errorf("delete cooldown %q: %w", species, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DeleteExpired removes every cooldown expired at now and returns them.
func (s *CooldownStore) DeleteExpired(now time.Time) ([]model.Cooldown, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT species, started_at, expires_at FROM cooldowns WHERE expires_at <= ? ORDER BY expires_at, species`,
		now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expired cooldowns: %w", err)
	}
	expired, err := scanCooldowns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(`DELETE FROM cooldowns WHERE expires_at <= ?`, now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("delete expired cooldowns: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expired cooldowns: %w", err)
	}
	return expired, nil
}

func scanCooldowns(rows *sql.Rows) ([]model.Cooldown, error) {
	var out []model.Cooldown
	for rows.Next() {
		var c model.Cooldown
		var started, expires int64
		if err := rows.Scan(&c.Species, &started, &expires); err != nil {
			return nil, fmt.Errorf("scan cooldown: %w", err)
		}
		c.StartedAt = time.UnixMilli(started).UTC()
		c.ExpiresAt = time.UnixMilli(expires).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
