package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/logging"
)

// Job processes whatever is due at now and reports how many rows it touched.
type Job func(ctx context.Context, now time.Time) (int64, error)

const jobTimeout = 2 * time.Minute

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New builds a scheduler whose specs carry a seconds field ("0 0 1 * * *" is 01:00 daily).
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:  context.Background(),
	}
}

// Add registers job under name. Errors are logged per run and never stop the schedule.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(name, job) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	ctx, cancel := context.WithTimeout(logging.WithRequestID(s.ctx, "cron-"+name), jobTimeout)
	defer cancel()

	log := logging.NewLogger(ctx)
	start := time.Now()
	n, err := job(ctx, start.UTC())
	if err != nil {
		log.LogError("scheduler."+name, err)
		return
	}
	log.LogInfo("scheduler."+name, "job finished",
		zap.Int64("affected", n), zap.Duration("took", time.Since(start)))
}

// Run starts the cron loop and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	logging.NewLogger(ctx).LogInfo("scheduler.start", "cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
