// Package arena runs contest rounds: post a challenge, wait for entries,
// judge, pay the winner and announce the outcome.
package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TokenArena/internal/gateway"
	"TokenArena/internal/model"
	"TokenArena/internal/notifier"
	"TokenArena/internal/payout"
	"TokenArena/internal/recorder"
	"TokenArena/internal/resolver"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrRoundInProgress is returned when RunRound is called while a round is running.
var ErrRoundInProgress = errors.New("round already in progress")

const (
	cleanupTimeout = 30 * time.Second
	alertRetries   = 2
)

// Gateway is the content platform surface the engine needs.
type Gateway interface {
	PublishPost(ctx context.Context, title, body, category string) (string, error)
	FetchComments(ctx context.Context, postID string, sort gateway.SortMode) ([]model.Entry, error)
	PublishComment(ctx context.Context, postID, body string) error
}

// Payer sends the prize. Implemented by payout.Engine.
type Payer interface {
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal) (string, error)
}

// Picker selects the challenge for a round.
type Picker interface {
	Pick() model.Challenge
}

// Settings are the fixed per-process round parameters.
type Settings struct {
	Category      string
	Prize         decimal.Decimal
	Window        time.Duration
	WaitStep      time.Duration
	PayoutTimeout time.Duration
	ExplorerTxURL string
}

// Engine drives rounds one at a time. It carries nothing between rounds
// except the last finished round, kept for status queries.
type Engine struct {
	settings Settings
	catalog  Picker
	gateway  Gateway
	payer    Payer
	recorder recorder.Recorder
	notifier notifier.Notifier

	now   func() time.Time
	newID func() string

	inFlight atomic.Bool
	mu       sync.Mutex
	last     *model.Round
}

// NewEngine wires an engine. rec and n may be nil.
func NewEngine(s Settings, catalog Picker, gw Gateway, payer Payer, rec recorder.Recorder, n notifier.Notifier) *Engine {
	if rec == nil {
		rec = recorder.NewMemoryRecorder()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if s.WaitStep <= 0 {
		s.WaitStep = time.Minute
	}
	if s.PayoutTimeout <= 0 {
		s.PayoutTimeout = 10 * time.Minute
	}
	return &Engine{
		settings: s,
		catalog:  catalog,
		gateway:  gw,
		payer:    payer,
		recorder: rec,
		notifier: n,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Running reports whether a round is in flight.
func (e *Engine) Running() bool {
	return e.inFlight.Load()
}

// LastRound returns the most recently finished round, or nil.
func (e *Engine) LastRound() *model.Round {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// RunRound runs one full round. It returns an error only when the challenge
// could not be published or the round crashed; every other outcome,
// including a failed payout, is a clean finish.
func (e *Engine) RunRound(ctx context.Context) (round *model.Round, err error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRoundInProgress
	}
	defer e.inFlight.Store(false)

	round = &model.Round{ID: e.newID(), Status: model.StatusIdle, StartedAt: e.now()}
	logger := log.WithField("round", round.ID)
	logger.Info("starting new arena round")

	defer e.finish(ctx, round, logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("recovered from panic in round: %v", r)
			err = fmt.Errorf("round panicked: %v", r)
			e.crash(ctx, round, err, logger)
		}
	}()

	err = e.run(ctx, round, logger)
	return round, err
}

func (e *Engine) run(ctx context.Context, round *model.Round, logger *log.Entry) error {
	// Select & publish. Nothing exists yet, so a failure here needs no cleanup.
	round.Challenge = e.catalog.Pick()
	logger.Infof("selected challenge [%s]: %q", round.Challenge.Category, round.Challenge.Prompt)

	body := notifier.FormatChallengeBody(e.settings.Prize, e.settings.Window)
	postID, err := e.gateway.PublishPost(ctx, round.Challenge.Prompt, body, e.settings.Category)
	if err != nil {
		round.Status = model.StatusAborted
		round.Outcome = model.StatusAborted
		round.Err = err.Error()
		logger.Errorf("publish challenge: %v", err)
		return fmt.Errorf("publish challenge: %w", err)
	}
	round.PostID = postID
	round.Status = model.StatusPosted
	round.ClosesAt = e.now().Add(e.settings.Window)
	logger = logger.WithField("post", postID)
	logger.Infof("post created in %s", e.settings.Category)

	round.Status = model.StatusCollecting
	if err := e.waitWindow(ctx, round, logger); err != nil {
		err = fmt.Errorf("collection window: %w", err)
		e.crash(ctx, round, err, logger)
		return err
	}

	// From here on the round runs to its announcement even if shutdown is
	// requested; main waits for it.
	jctx := context.WithoutCancel(ctx)

	round.Status = model.StatusJudging
	logger.Info("time's up, fetching results")
	entries, err := e.gateway.FetchComments(jctx, postID, gateway.SortTop)
	if err != nil {
		err = fmt.Errorf("fetch comments: %w", err)
		e.crash(ctx, round, err, logger)
		return err
	}

	if len(entries) == 0 {
		logger.Warn("no comments found, skipping payout")
		round.Status = model.StatusNoEntries
		return e.announce(jctx, round, notifier.FormatNoEntries(), logger)
	}

	annotated, valid := resolver.Annotate(entries)
	logger.Infof("%d entries, %d with a wallet", len(entries), valid)

	winner, ok := resolver.FirstWithWallet(annotated)
	if !ok {
		logger.Warn("no entries with valid wallets")
		round.Status = model.StatusNoValidWallet
		return e.announce(jctx, round, notifier.FormatNoValidWallet(), logger)
	}
	round.Winner = &winner
	logger.Infof("winner identified: %s (%d upvotes), wallet %s", winner.AuthorName, winner.Score, winner.Wallet)

	round.Payout = &model.Payout{Recipient: winner.Wallet, Amount: e.settings.Prize}
	txHash, err := e.pay(jctx, round, logger)
	if err != nil {
		logger.Errorf("payout failed, announcing winner anyway: %v", err)
		round.Payout.Err = err.Error()
		round.Payout.TxHash = txHash
		round.Status = model.StatusPayoutFailed
		var pending string
		if txHash != "" {
			pending = notifier.TxURL(e.settings.ExplorerTxURL, txHash)
		}
		return e.announce(jctx, round, notifier.FormatPayoutFailed(winner, pending), logger)
	}

	round.Payout.TxHash = txHash
	round.Status = model.StatusPaid
	txURL := notifier.TxURL(e.settings.ExplorerTxURL, txHash)
	return e.announce(jctx, round, notifier.FormatWinner(winner, e.settings.Prize, txURL), logger)
}

// pay attempts the transfer exactly once for the round. On a confirmation
// failure the submitted hash is returned alongside the error.
func (e *Engine) pay(ctx context.Context, round *model.Round, logger *log.Entry) (string, error) {
	err := e.recorder.ReservePayout(&recorder.PayoutReservation{
		RoundID:   round.ID,
		PostID:    round.PostID,
		Recipient: round.Payout.Recipient,
		Amount:    round.Payout.Amount.String(),
	})
	if errors.Is(err, recorder.ErrPayoutExists) {
		return "", err
	}
	if err != nil {
		logger.Warnf("record payout reservation: %v", err)
	}

	pctx, cancel := context.WithTimeout(ctx, e.settings.PayoutTimeout)
	defer cancel()
	txHash, payErr := e.payer.Transfer(pctx, round.Payout.Recipient, round.Payout.Amount)

	errText := ""
	if payErr != nil {
		errText = payErr.Error()
		var perr *payout.Error
		if errors.As(payErr, &perr) {
			txHash = perr.TxHash
		}
	}
	if err := e.recorder.CompletePayout(round.ID, txHash, errText); err != nil {
		logger.Warnf("record payout result: %v", err)
	}
	return txHash, payErr
}

// announce posts the round's single terminal comment. If posting fails the
// round falls through to the maintenance comment.
func (e *Engine) announce(ctx context.Context, round *model.Round, body string, logger *log.Entry) error {
	if round.Announced {
		logger.Warn("round already announced, skipping")
		return nil
	}
	round.Outcome = round.Status
	if err := e.gateway.PublishComment(ctx, round.PostID, body); err != nil {
		err = fmt.Errorf("announce %s: %w", round.Outcome, err)
		e.crash(ctx, round, err, logger)
		return err
	}
	round.Announced = true
	round.Status = model.StatusAnnounced
	logger.Infof("round complete: %s", round.Outcome)
	return nil
}

// crash marks the round crashed and, if a post exists and nothing has been
// announced yet, leaves one best-effort maintenance comment. Failures here
// are logged and swallowed.
func (e *Engine) crash(ctx context.Context, round *model.Round, cause error, logger *log.Entry) {
	if round.Status == model.StatusCrashed {
		return
	}
	logger.Errorf("round crashed: %v", cause)
	round.Status = model.StatusCrashed
	round.Err = cause.Error()
	if round.Outcome == "" {
		round.Outcome = model.StatusCrashed
	}
	if !round.Posted() || round.Announced {
		return
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := e.gateway.PublishComment(mctx, round.PostID, notifier.FormatMaintenance()); err != nil {
		logger.Warnf("maintenance comment failed: %v", err)
		return
	}
	round.Announced = true
	round.Status = model.StatusAnnounced
}

// finish records the round, alerts the operator when manual action is
// needed, and publishes it as the last finished round.
func (e *Engine) finish(ctx context.Context, round *model.Round, logger *log.Entry) {
	if err := e.recorder.RecordRound(round); err != nil {
		logger.Errorf("record round: %v", err)
	}

	var alert string
	switch {
	case round.Payout != nil && !round.Payout.Succeeded():
		alert = notifier.FormatPayoutAlert(round, e.settings.Prize)
	case round.Outcome == model.StatusCrashed || round.Err != "" && round.Posted():
		alert = notifier.FormatCrashAlert(round)
	}
	if alert != "" {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		if err := e.notifier.SendWithRetry(actx, alert, alertRetries); err != nil {
			logger.Errorf("send operator alert: %v", err)
		}
		cancel()
	}

	e.mu.Lock()
	e.last = round
	e.mu.Unlock()
}
