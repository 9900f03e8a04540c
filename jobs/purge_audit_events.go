package jobs

import (
	"context"
	"errors"
	stdlog "log"
	"time"

	"github.com/riverqueue/river"

	pgstore "github.com/itellico/verifykit/storage/postgres"
)

type PurgeAuditEventsArgs struct {
	RetentionDays int `json:"retention_days,omitempty"`
	BatchSize     int `json:"batch_size,omitempty"`
}

func (PurgeAuditEventsArgs) Kind() string { return "verifykit_purge_audit_events" }

func (args PurgeAuditEventsArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: river.QueueDefault,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
		},
	}
}

// PurgeAuditEventsWorker deletes audit rows older than RetentionDays, in
// batches so a large backlog never holds a long-running delete.
type PurgeAuditEventsWorker struct {
	river.WorkerDefaults[PurgeAuditEventsArgs]
	audit *pgstore.AuditLog
}

func NewPurgeAuditEventsWorker(audit *pgstore.AuditLog) *PurgeAuditEventsWorker {
	return &PurgeAuditEventsWorker{audit: audit}
}

func (w *PurgeAuditEventsWorker) Timeout(*river.Job[PurgeAuditEventsArgs]) time.Duration {
	return 10 * time.Minute
}

func (w *PurgeAuditEventsWorker) Work(ctx context.Context, job *river.Job[PurgeAuditEventsArgs]) error {
	if w == nil || w.audit == nil {
		return errors.New("verifykit purge: audit log not configured")
	}
	retention := job.Args.RetentionDays
	if retention <= 0 {
		retention = 90
	}
	batch := job.Args.BatchSize
	if batch <= 0 {
		batch = 500
	}

	cutoff := time.Now().AddDate(0, 0, -retention)
	var total int64
	for {
		n, err := w.audit.DeleteBefore(ctx, cutoff, batch)
		if err != nil {
			return err
		}
		total += n
		if n < int64(batch) {
			break
		}
	}
	if total > 0 {
		stdlog.Printf("[verifykit/jobs] purged %d audit events older than %s", total, cutoff.Format(time.RFC3339))
	}
	return nil
}
