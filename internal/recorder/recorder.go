package recorder

import (
	"errors"
	"time"

	"TokenArena/internal/model"
)

// ErrPayoutExists is returned when a payout was already reserved for a round.
var ErrPayoutExists = errors.New("payout already reserved for round")

// PayoutReservation is written before a transfer is submitted.
type PayoutReservation struct {
	RoundID   string
	PostID    string
	Recipient string
	Amount    string
}

// RoundRow is a finished round as stored in history.
type RoundRow struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Category   string
	Challenge  string
	PostID     string
	Outcome    string
	Announced  bool
	WinnerName string
	Wallet     string
	Score      int
	TxHash     string
	Err        string
}

// Recorder persists round history and guards against paying a round twice.
type Recorder interface {
	// ReservePayout must be called before submitting a transfer. A second
	// reservation for the same round returns ErrPayoutExists.
	ReservePayout(res *PayoutReservation) error
	CompletePayout(roundID, txHash, errText string) error
	RecordRound(r *model.Round) error
	LastRounds(limit int) ([]RoundRow, error)
	Close() error
}

// RowFromRound flattens r into a history row finished at finished.
func RowFromRound(r *model.Round, finished time.Time) RoundRow {
	row := RoundRow{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: finished,
		Category:   r.Challenge.Category,
		Challenge:  r.Challenge.Prompt,
		PostID:     r.PostID,
		Outcome:    string(r.Outcome),
		Announced:  r.Announced,
		Err:        r.Err,
	}
	if row.Outcome == "" {
		row.Outcome = string(r.Status)
	}
	if r.Winner != nil {
		row.WinnerName = r.Winner.AuthorName
		row.Wallet = r.Winner.Wallet
		row.Score = r.Winner.Score
	}
	if r.Payout != nil {
		row.TxHash = r.Payout.TxHash
	}
	return row
}
