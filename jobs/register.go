package jobs

import (
	"fmt"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"

	pgstore "github.com/itellico/verifykit/storage/postgres"
)

// RegisterPurgeAuditEventsWorker registers the retention worker into a River
// workers registry.
func RegisterPurgeAuditEventsWorker(ws *river.Workers, audit *pgstore.AuditLog) {
	river.AddWorker(ws, NewPurgeAuditEventsWorker(audit))
}

// AddPurgeAuditEventsPeriodicJob adds a periodic job that enqueues the
// retention job on a cron schedule.
//
// Example cron: "0 4 * * *" (daily at 4 AM).
func AddPurgeAuditEventsPeriodicJob[T any](client *river.Client[T], cronSpec string, args PurgeAuditEventsArgs, runOnStart bool) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronSpec)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cronSpec, err)
	}
	opts := args.InsertOpts()
	_ = client.PeriodicJobs().Add(
		river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) { return args, &opts },
			&river.PeriodicJobOpts{RunOnStart: runOnStart},
		),
	)
	return nil
}
