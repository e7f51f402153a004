package engage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner is one topic's engagement run.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Scheduler runs topics one after another on a single background goroutine.
// Stop interrupts the current run and waits for it to flush.
type Scheduler struct {
	runners   []Runner
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	mu        sync.Mutex
	err       error
	summaries []*Summary
}

func NewScheduler(runners ...Runner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runners: runners,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)

		for i, runner := range s.runners {
			if s.ctx.Err() != nil {
				slog.Debug("Scheduler stopped, skipping remaining topics", "remaining", len(s.runners)-i)
				return
			}

			startedAt := time.Now()
			summary, err := runner.Run(s.ctx)

			s.mu.Lock()
			if summary != nil {
				s.summaries = append(s.summaries, summary)
			}
			if err != nil && s.err == nil {
				s.err = err
			}
			s.mu.Unlock()

			if err != nil {
				// resource failures are shared by every topic; do not carry on
				slog.Error("Engagement run failed", "index", i, "duration", time.Since(startedAt).String(), "error", err)
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Done is closed once every topic has run or the scheduler stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Scheduler) Summaries() []*Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Summary, len(s.summaries))
	copy(out, s.summaries)
	return out
}
