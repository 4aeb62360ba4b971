package model

import "time"

// RoundStatus is the life-cycle state of a round.
type RoundStatus string

const (
	StatusIdle          RoundStatus = "idle"
	StatusPosted        RoundStatus = "posted"
	StatusCollecting    RoundStatus = "collecting"
	StatusJudging       RoundStatus = "judging"
	StatusPaid          RoundStatus = "paid"
	StatusNoEntries     RoundStatus = "no_entries"
	StatusNoValidWallet RoundStatus = "no_valid_wallet"
	StatusPayoutFailed  RoundStatus = "payout_failed"
	StatusCrashed       RoundStatus = "crashed"
	StatusAnnounced     RoundStatus = "announced"
	StatusAborted       RoundStatus = "aborted" // publish failed, no post exists
)

// Round is one challenge-post, collect, judge, pay, announce cycle.
type Round struct {
	ID        string
	Challenge Challenge
	PostID    string // empty until published
	Status    RoundStatus
	Outcome   RoundStatus // terminal branch taken, kept after Announced
	StartedAt time.Time
	ClosesAt  time.Time
	Winner    *Entry
	Payout    *Payout
	Announced bool
	Err       string
}

// Posted reports whether the challenge post exists on the platform.
func (r *Round) Posted() bool {
	return r.PostID != ""
}
