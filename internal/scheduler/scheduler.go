// Package scheduler runs the advisory scan and journal maintenance on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work. Run receives a context that is
// cancelled when the scheduler stops.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// RunRecord is the outcome of the most recent run of a job
type RunRecord struct {
	Runs       int           `json:"runs"`
	LastStart  time.Time     `json:"last_start"`
	LastFinish time.Time     `json:"last_finish"`
	Duration   time.Duration `json:"duration"`
	LastError  string        `json:"last_error,omitempty"`
}

// Scheduler runs jobs on six-field cron schedules (seconds first). A run
// that is still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	mu      sync.Mutex
	records map[string]RunRecord
}

// New creates a scheduler
func New(log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:     ctx,
		cancel:  cancel,
		log:     log.With().Str("component", "scheduler").Logger(),
		records: make(map[string]RunRecord),
	}
}

// Advisory is the set of jobs behind the schedule command
type Advisory struct {
	Scan     *AdvisoryScanJob
	ScanCron string

	// Check is optional; it is only registered with a journal
	Check     *CheckJournalJob
	CheckCron string
}

// RegisterAdvisory adds the scan and, when present, the journal check
func (s *Scheduler) RegisterAdvisory(a Advisory) error {
	if a.Scan == nil {
		return fmt.Errorf("advisory scan job is required")
	}
	if err := s.AddJob(a.ScanCron, a.Scan); err != nil {
		return err
	}
	if a.Check == nil {
		return nil
	}
	return s.AddJob(a.CheckCron, a.Check)
}

// AddJob registers job on schedule
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.execute(s.ctx, job) }); err != nil {
		return fmt.Errorf("failed to register %s on %q: %w", job.Name(), schedule, err)
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("Job registered")
	return nil
}

// RunNow runs job immediately, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	name := job.Name()
	start := time.Now()
	s.log.Debug().Str("job", name).Msg("Running job")

	err := job.Run(ctx)
	finish := time.Now()

	s.mu.Lock()
	rec := s.records[name]
	rec.Runs++
	rec.LastStart = start
	rec.LastFinish = finish
	rec.Duration = finish.Sub(start)
	rec.LastError = ""
	if err != nil {
		rec.LastError = err.Error()
	}
	s.records[name] = rec
	s.mu.Unlock()

	event := s.log.Debug()
	if err != nil {
		event = s.log.Error().Err(err)
	}
	event.Str("job", name).Dur("duration", rec.Duration).Msg("Job finished")
	return err
}

// Record returns the last run of the named job
func (s *Scheduler) Record(name string) (RunRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[name]
	return rec, ok
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Entries()).Msg("Scheduler started")
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}
