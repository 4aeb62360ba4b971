package payout

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance means the signer holds less than the transfer amount.
	ErrInsufficientBalance = errors.New("insufficient token balance")
	// ErrInvalidRecipient means the recipient is not a hex address.
	ErrInvalidRecipient = errors.New("invalid recipient address")
	// ErrReverted means the transfer was mined but did not succeed.
	ErrReverted = errors.New("transaction reverted")
)

// Error is the single error type surfaced by Transfer. Stage names where it
// failed; callers are not expected to branch on it beyond logging.
type Error struct {
	Stage  string
	TxHash string // set once the transfer was submitted
	Err    error
}

func (e *Error) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("payout %s (tx %s): %v", e.Stage, e.TxHash, e.Err)
	}
	return fmt.Sprintf("payout %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
