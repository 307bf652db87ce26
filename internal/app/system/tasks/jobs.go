// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultExportSweepSchedule runs the export sweep every quarter hour.
const DefaultExportSweepSchedule = "@every 15m"

// Sweeper removes generated files older than a cutoff.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// ExportSweepJob creates a job that deletes export files older than
// retention. Files are normally removed by their own timer; the sweep
// catches files orphaned by a restart.
func ExportSweepJob(sw Sweeper, retention time.Duration, schedule string, logger *zap.Logger) Job {
	if schedule == "" {
		schedule = DefaultExportSweepSchedule
	}
	return Job{
		Name:     "export-sweep",
		Schedule: schedule,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := sw.Sweep(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("removed expired export files",
					zap.Int("count", n),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
