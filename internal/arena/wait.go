package arena

import (
	"context"
	"time"

	"TokenArena/internal/model"

	log "github.com/sirupsen/logrus"
)

// waitWindow blocks until round.ClosesAt in WaitStep increments so shutdown
// is observed between steps. It returns ctx.Err() if cancelled first.
func (e *Engine) waitWindow(ctx context.Context, round *model.Round, logger *log.Entry) error {
	logger.Infof("waiting %s for entries (closes %s)", e.settings.Window, round.ClosesAt.Format(time.TimeOnly))

	for {
		remaining := round.ClosesAt.Sub(e.now())
		if remaining <= 0 {
			return nil
		}
		logger.Debugf("%s left in collection window", remaining.Round(time.Second))

		timer := time.NewTimer(min(e.settings.WaitStep, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("shutdown requested during collection window")
			return ctx.Err()
		case <-timer.C:
		}
	}
}
