package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	core "github.com/itellico/verifykit/core"
)

// AuditLog is the Postgres-backed core.AuditLogger.
type AuditLog struct {
	pool *pgxpool.Pool
}

func NewAuditLog(pool *pgxpool.Pool) *AuditLog {
	return &AuditLog{pool: pool}
}

func (l *AuditLog) Record(ctx context.Context, e core.AuditEvent) error {
	var meta []byte
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_events (occurred_at, action, severity, subject_id, ip, metadata)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`,
		occurred, e.Action, string(e.Severity), e.SubjectID, e.IP, meta)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteBefore removes up to limit audit rows older than cutoff and reports
// how many were deleted. Used by the retention job.
func (l *AuditLog) DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM audit_events WHERE id IN (
		   SELECT id FROM audit_events WHERE occurred_at < $1 ORDER BY occurred_at LIMIT $2
		 )`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
