package leads

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/schoolbot/core/logger"
)

const (
	upsertQuery = `
		INSERT INTO leads (tg_id, name, age_group, level, goal, schedule, contact)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tg_id) DO UPDATE SET
			name = excluded.name,
			age_group = excluded.age_group,
			level = excluded.level,
			goal = excluded.goal,
			schedule = excluded.schedule,
			contact = excluded.contact`

	countQuery = `SELECT COUNT(*) FROM leads`

	getQuery = `
		SELECT tg_id, name, age_group, level, goal, schedule, contact, created_at
		FROM leads
		WHERE tg_id = ?`
)

// Store is the lead repository. Every call takes its own connection or
// transaction from the pool and returns it before exiting.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Upsert inserts the lead or replaces every field except tg_id and created_at.
func (s *Store) Upsert(ctx context.Context, l Lead) (err error) {
	if l.TgID == 0 {
		return &StorageError{Op: "upsert", Err: ErrMissingID}
	}
	start := time.Now()
	defer func() {
		logger.LogEvent(ctx, logger.SVCLeads, slog.LevelDebug, "lead.upsert",
			slog.String("status", logger.Status(err)),
			slog.Int64("lead_tg_id", l.TgID),
			slog.Duration("duration", logger.Took(start)),
		)
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "upsert", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind(upsertQuery),
		l.TgID, l.Name, l.AgeGroup, l.Level, l.Goal, l.Schedule, l.Contact,
	); err != nil {
		return &StorageError{Op: "upsert", Err: err}
	}
	if err = tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Count returns the number of stored leads.
func (s *Store) Count(ctx context.Context) (int, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	defer conn.Close()

	var n int
	if err := conn.GetContext(ctx, &n, countQuery); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Get returns the lead for tgID; ok is false when none is stored.
func (s *Store) Get(ctx context.Context, tgID int64) (Lead, bool, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return Lead{}, false, &StorageError{Op: "get", Err: err}
	}
	defer conn.Close()

	var l Lead
	err = conn.GetContext(ctx, &l, conn.Rebind(getQuery), tgID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Lead{}, false, nil
	case err != nil:
		return Lead{}, false, &StorageError{Op: "get", Err: err}
	}
	return l, true, nil
}
