package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-control/internal/domain/datasource"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
)

// CleanupConfig controls the nightly duplicate cleanup.
type CleanupConfig struct {
	// LookbackDays is the number of finished days re-resolved per run.
	LookbackDays int
	AtHour       int
	Workers      int
	// IncludeAlternate also cleans the alternate tenant.
	IncludeAlternate bool
}

type AttendanceJobs struct {
	corrections attendance.CorrectionService
	cfg         CleanupConfig
	now         func() time.Time
}

func NewAttendanceJobs(corrections attendance.CorrectionService, cfg CleanupConfig) *AttendanceJobs {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 1
	}
	return &AttendanceJobs{
		corrections: corrections,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "clean_duplicate_marks",
		Interval: time.Hour,
		AtHour:   j.cfg.AtHour,
		Fn:       j.CleanDuplicateMarks,
	})
}

// CleanDuplicateMarks resolves the last LookbackDays finished days of every
// department. Today is skipped while employees are still punching.
func (j *AttendanceJobs) CleanDuplicateMarks(ctx context.Context) error {
	ctx = user.WithPrincipal(ctx, user.SystemPrincipal())

	today := attendance.Day(j.now())
	start := today.AddDate(0, 0, -j.cfg.LookbackDays).Format(attendance.DateLayout)
	end := today.AddDate(0, 0, -1).Format(attendance.DateLayout)

	scopes := []int{0}
	if j.cfg.IncludeAlternate {
		scopes = append(scopes, datasource.AlternateDepartmentID)
	}

	slog.Info("Cron: Starting duplicate mark cleanup", "start_date", start, "end_date", end)

	for _, dept := range scopes {
		resp, err := j.corrections.CleanDuplicates(ctx, attendance.CleanDuplicatesRequest{
			AttendanceFilter: attendance.AttendanceFilter{
				DepartmentID: dept,
				StartDate:    &start,
				EndDate:      &end,
			},
			Workers: j.cfg.Workers,
		})
		if err != nil {
			return fmt.Errorf("failed to clean duplicates of dept_id %d: %w", dept, err)
		}
		slog.Info("Cron: Duplicate mark cleanup finished",
			"dept_id", dept,
			"run_id", resp.RunID,
			"days_scanned", resp.DaysScanned,
			"days_changed", resp.DaysChanged,
			"days_failed", resp.DaysFailed,
		)
	}
	return nil
}
