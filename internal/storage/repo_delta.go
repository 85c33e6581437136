package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeltaRecord is one reconstructed text increment belonging to a session.
type DeltaRecord struct {
	Index   int
	Content string
}

// InsertDeltasJob creates a batch insert job for a session's deltas using
// the COPY protocol.
func InsertDeltasJob(sessionID uuid.UUID, ts time.Time, deltas []DeltaRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		rows := make([][]interface{}, len(deltas))
		for i, d := range deltas {
			rows[i] = []interface{}{
				sessionID,
				ts,
				d.Index,
				d.Content,
				len(d.Content),
			}
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"session_deltas"},
			[]string{"session_id", "ts", "delta_index", "content", "payload_bytes"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
}
