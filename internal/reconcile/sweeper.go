package reconcile

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Sweeper runs the reconciliation sweep on a fixed interval. A run never
// overlaps the previous one and is cut off after one interval.
type Sweeper struct {
	scheduler gocron.Scheduler
	runner    SweepRunner
	interval  time.Duration
	lg        *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweeper(runner SweepRunner, interval time.Duration, lg *zap.SugaredLogger) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	sw := &Sweeper{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		lg:        lg,
		ctx:       ctx,
		cancel:    cancel,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.run),
		gocron.WithName("payment-status-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	return sw, nil
}

func (s *Sweeper) Start() {
	s.lg.Infof("payment status sweep every %v", s.interval)
	s.scheduler.Start()
}

// Stop cancels a running sweep and waits for the scheduler to finish.
func (s *Sweeper) Stop() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	checked, err := s.runner.Sweep(ctx)
	if err != nil {
		s.lg.Errorf("payment status sweep: %v", err)
		return
	}

	if checked > 0 {
		s.lg.Infof("payment status sweep checked %d orders", checked)
	}
}
