package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/require"
)

func TestPurgeAuditEventsArgs(t *testing.T) {
	args := PurgeAuditEventsArgs{}
	require.Equal(t, "verifykit_purge_audit_events", args.Kind())

	opts := args.InsertOpts()
	require.Equal(t, river.QueueDefault, opts.Queue)
	require.True(t, opts.UniqueOpts.ByArgs)
	require.Equal(t, 24*time.Hour, opts.UniqueOpts.ByPeriod)
}

func TestPurgeWorkerRequiresAuditLog(t *testing.T) {
	w := NewPurgeAuditEventsWorker(nil)
	err := w.Work(context.Background(), &river.Job[PurgeAuditEventsArgs]{Args: PurgeAuditEventsArgs{}})
	require.Error(t, err)
}

func TestAddPeriodicJobRejectsBadCron(t *testing.T) {
	err := AddPurgeAuditEventsPeriodicJob[struct{}](nil, "not a cron", PurgeAuditEventsArgs{}, false)
	require.Error(t, err)
}
