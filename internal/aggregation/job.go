package aggregation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aerodesk/call-intake/internal/analysis"
	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/internal/storage/sqlite"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Job produces one aggregated summary per employee per day by re-running the
// call analyzer over the day's concatenated call summaries. Runs are
// idempotent: an employee/day pair that already has a summary is skipped.
type Job struct {
	ctx       context.Context
	cancel    context.CancelFunc
	calls     *sqlite.CallStorage
	summaries *sqlite.DailySummaryStorage
	analyzer  analysis.Analyzer
	config    config.AggregationConfig
	logger    *logger.Logger
	wg        sync.WaitGroup
}

// NewJob creates a new daily aggregation job
func NewJob(
	ctx context.Context,
	calls *sqlite.CallStorage,
	summaries *sqlite.DailySummaryStorage,
	analyzer analysis.Analyzer,
	cfg config.AggregationConfig,
	logger *logger.Logger,
) *Job {
	jobCtx, jobCancel := context.WithCancel(ctx)

	return &Job{
		ctx:       jobCtx,
		cancel:    jobCancel,
		calls:     calls,
		summaries: summaries,
		analyzer:  analyzer,
		config:    cfg,
		logger:    logger.Named("daily-aggregator"),
	}
}

// Start starts the daily scheduling loop
func (j *Job) Start() error {
	if !j.config.Enabled {
		j.logger.Info("Daily aggregation is disabled, not starting")
		return nil
	}

	j.logger.Info("Starting daily aggregation loop",
		logger.Int("hour_utc", j.config.HourUTC),
		logger.Int("minute_utc", j.config.MinuteUTC))

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		for {
			wait := time.Until(j.nextRun(time.Now().UTC()))
			timer := time.NewTimer(wait)

			select {
			case <-j.ctx.Done():
				timer.Stop()
				j.logger.Info("Daily aggregation loop stopped due to context cancellation")
				return
			case runAt := <-timer.C:
				if _, err := j.RunOnce(j.ctx, runAt.UTC()); err != nil {
					j.logger.Error("Daily aggregation run failed", logger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop stops the scheduling loop
func (j *Job) Stop() error {
	j.logger.Info("Stopping daily aggregation loop")
	j.cancel()
	j.wg.Wait()
	return nil
}

// nextRun returns the next scheduled run time strictly after now
func (j *Job) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(),
		j.config.HourUTC, j.config.MinuteUTC, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}

// RunOnce aggregates the given day's calls and returns the number of daily
// summaries created. It can be invoked directly for manual triggering.
func (j *Job) RunOnce(ctx context.Context, day time.Time) (int, error) {
	date := day.UTC().Format("2006-01-02")

	records, err := j.calls.ListByDay(day)
	if err != nil {
		return 0, fmt.Errorf("failed to list calls for %s: %w", date, err)
	}
	if len(records) == 0 {
		j.logger.Debug("No calls to aggregate", logger.String("date", date))
		return 0, nil
	}

	byEmployee := make(map[string][]*sqlite.CallRecord)
	for _, record := range records {
		byEmployee[record.EmployeeID] = append(byEmployee[record.EmployeeID], record)
	}

	employees := make([]string, 0, len(byEmployee))
	for employee := range byEmployee {
		employees = append(employees, employee)
	}
	sort.Strings(employees)

	j.logger.Info("Aggregating daily call summaries",
		logger.String("date", date),
		logger.Int("calls", len(records)),
		logger.Int("employees", len(employees)))

	created := 0
	for _, employee := range employees {
		summaries := make([]string, 0, len(byEmployee[employee]))
		for _, record := range byEmployee[employee] {
			summaries = append(summaries, record.Summary)
		}

		result, err := j.analyzer.Analyze(ctx,
			"Resumen diario de llamadas:\n"+strings.Join(summaries, "\n"))
		if err != nil {
			return created, fmt.Errorf("failed to analyze daily summary for %s: %w", employee, err)
		}

		inserted, err := j.summaries.InsertIfAbsent(&sqlite.DailySummaryRecord{
			EmployeeID: employee,
			Summary:    result.Summary,
			Date:       date,
		})
		if err != nil {
			return created, fmt.Errorf("failed to store daily summary for %s: %w", employee, err)
		}
		if inserted {
			created++
		} else {
			j.logger.Debug("Daily summary already exists, skipping",
				logger.String("employee_id", employee),
				logger.String("date", date))
		}
	}

	j.logger.Info("Daily aggregation completed",
		logger.String("date", date),
		logger.Int("created", created))

	return created, nil
}
