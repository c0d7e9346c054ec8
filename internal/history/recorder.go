// Package history persists a record of every recommendation request.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const defaultListLimit = 50

// Entry describes one served recommendation request.
type Entry struct {
	ID              uuid.UUID `json:"id"`
	Goals           []string  `json:"goals"`
	DepthLevel      string    `json:"depth_level"`
	UsedModel       bool      `json:"used_model"`
	Matched         bool      `json:"matched"`
	Recommendations []string  `json:"recommendations"`
	IPAddress       string    `json:"ip_address,omitempty"`
	UserAgent       string    `json:"user_agent,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DB is satisfied by *pgxpool.Pool and pgx.Conn.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Recorder writes history entries into PostgreSQL.
type Recorder struct {
	db     DB
	logger *zap.Logger
}

// New constructs a Recorder.
func New(db DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record persists an entry, logging failures but not interrupting the request.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO recommendation_requests
			(id, goals, depth_level, used_model, matched, recommendations, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Goals, entry.DepthLevel, entry.UsedModel, entry.Matched,
		entry.Recommendations, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		r.logger.Warn("failed to persist recommendation history",
			zap.String("history_id", entry.ID.String()),
			zap.Error(err),
		)
	}
}

// ListRecent returns the newest entries first.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, goals, depth_level, used_model, matched, recommendations,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM recommendation_requests
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.Goals, &e.DepthLevel, &e.UsedModel, &e.Matched,
			&e.Recommendations, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
		return e, err
	})
}
