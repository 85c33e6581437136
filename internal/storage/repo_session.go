package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRecord is one finished reconstruction session.
type SessionRecord struct {
	ID           uuid.UUID
	Timestamp    time.Time
	AccountID    string
	State        string
	ErrorMessage string
	OutputText   string
	DeltaCount   int
	BytesIn      int64
	DurationMs   int
}

func InsertSessionJob(r *SessionRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO sessions (
				id, ts, account_id, state, error_message, output_text,
				delta_count, bytes_in, duration_ms
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			r.ID, r.Timestamp, nilIfEmpty(r.AccountID), r.State,
			nilIfEmpty(r.ErrorMessage), r.OutputText,
			r.DeltaCount, r.BytesIn, r.DurationMs,
		)
		return err
	})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
