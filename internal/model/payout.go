package model

import "github.com/shopspring/decimal"

// Payout records a token transfer attempt for a round winner.
type Payout struct {
	Recipient string
	Amount    decimal.Decimal // human units of the reward token
	TxHash    string
	Err       string
}

// Succeeded reports whether the transfer was confirmed.
func (p *Payout) Succeeded() bool {
	return p != nil && p.TxHash != "" && p.Err == ""
}
