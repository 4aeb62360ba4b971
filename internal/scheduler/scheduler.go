package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"TokenArena/internal/arena"
	"TokenArena/internal/model"
	"TokenArena/internal/notifier"
	"TokenArena/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const statusHistory = 5

// RoundRunner runs arena rounds. Implemented by arena.Engine.
type RoundRunner interface {
	RunRound(ctx context.Context) (*model.Round, error)
	Running() bool
	LastRound() *model.Round
}

// Wallet reports the prize wallet balance. Implemented by payout.Engine.
type Wallet interface {
	SignerAddress() string
	CheckBalance(ctx context.Context) (decimal.Decimal, error)
}

// Scheduler triggers rounds on a cron schedule and answers operator commands.
type Scheduler struct {
	Cron     *cron.Cron
	Rounds   RoundRunner
	Wallet   Wallet
	Recorder recorder.Recorder
	Prize    decimal.Decimal
	Ctx      context.Context

	job     cron.Job
	manual  sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a new Scheduler. wallet may be nil.
func NewScheduler(ctx context.Context, rounds RoundRunner, wallet Wallet, rec recorder.Recorder, prize decimal.Decimal) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	s := &Scheduler{
		Cron:     cron.New(cron.WithLogger(logger)),
		Rounds:   rounds,
		Wallet:   wallet,
		Recorder: rec,
		Prize:    prize,
		Ctx:      ctx,
	}
	// Cron triggers and RunNow share one wrapped job, so an overlapping
	// trigger is skipped instead of queued. Recover sits inside the skip
	// guard so a panic still releases it.
	s.job = cron.NewChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)).Then(cron.FuncJob(s.roundTask))
	return s
}

// Register schedules the round job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddJob(spec, s.job); err != nil {
		return fmt.Errorf("register round task %q: %w", spec, err)
	}
	log.Infof("round task scheduled: %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// RunNow runs a round immediately, in the calling goroutine, unless one is
// already running or Stop has been called.
func (s *Scheduler) RunNow() {
	if !s.acquire() {
		return
	}
	defer s.manual.Done()
	s.job.Run()
}

// RunAsync is RunNow in a new goroutine. Stop still waits for it. It reports
// false when the scheduler is stopping.
func (s *Scheduler) RunAsync() bool {
	if !s.acquire() {
		return false
	}
	go func() {
		defer s.manual.Done()
		s.job.Run()
	}()
	return true
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Warn("scheduler stopping, manual round refused")
		return false
	}
	s.manual.Add(1)
	return true
}

// Stop stops further triggers and waits for the in-flight round, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.Cron.Stop()
	manualDone := make(chan struct{})
	go func() {
		s.manual.Wait()
		close(manualDone)
	}()

	for _, done := range []<-chan struct{}{cronDone.Done(), manualDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("wait for in-flight round: %w", ctx.Err())
		}
	}
	log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) roundTask() {
	round, err := s.Rounds.RunRound(s.Ctx)
	switch {
	case errors.Is(err, arena.ErrRoundInProgress):
		log.Warn("round already in progress, trigger skipped")
	case err != nil:
		log.Errorf("round ended with error: %v", err)
	case round != nil:
		log.Infof("round %s finished: %s", round.ID, round.Outcome)
	}
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		rows, err := s.Recorder.LastRounds(statusHistory)
		if err != nil {
			log.Errorf("load round history: %v", err)
			last := s.Rounds.LastRound()
			if last == nil {
				return "❌ Could not load round history."
			}
			rows = []recorder.RoundRow{recorder.RowFromRound(last, last.StartedAt)}
		}
		return notifier.FormatRoundHistory(rows, s.Rounds.Running())
	case "/balance":
		if s.Wallet == nil {
			return "Wallet not configured."
		}
		balance, err := s.Wallet.CheckBalance(s.Ctx)
		if err != nil {
			log.Errorf("check balance: %v", err)
			return "❌ Balance check failed."
		}
		return notifier.FormatBalance(s.Wallet.SignerAddress(), balance, s.Prize)
	case "/run":
		if s.Rounds.Running() {
			return "A round is already in progress."
		}
		if !s.RunAsync() {
			return "Arena is shutting down."
		}
		return "▶️ Starting a new round."
	default:
		return "Available commands:\n• /status\n• /balance\n• /run"
	}
}
