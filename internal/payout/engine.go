// Package payout sends the round prize as an ERC-20 transfer.
package payout

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Token is the call surface of the reward token contract.
type Token interface {
	Signer() common.Address
	Decimals(ctx context.Context) (uint8, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction, confirmations uint64) error
}

// Engine pays prizes from the signer's token balance.
// It holds no per-round state; the signer and token handle are shared read-only.
type Engine struct {
	token         Token
	confirmations uint64
}

// NewEngine creates an engine that waits for confirmations (at least one) per transfer.
func NewEngine(token Token, confirmations uint64) *Engine {
	if confirmations == 0 {
		confirmations = 1
	}
	return &Engine{token: token, confirmations: confirmations}
}

// SignerAddress returns the hex address prizes are paid from.
func (e *Engine) SignerAddress() string {
	return e.token.Signer().Hex()
}

// CheckBalance returns the signer's token balance in human units.
func (e *Engine) CheckBalance(ctx context.Context) (decimal.Decimal, error) {
	decimals, err := e.token.Decimals(ctx)
	if err != nil {
		return decimal.Zero, &Error{Stage: "decimals", Err: err}
	}
	bal, err := e.token.BalanceOf(ctx, e.token.Signer())
	if err != nil {
		return decimal.Zero, &Error{Stage: "balance", Err: err}
	}
	return FromBaseUnits(bal, decimals), nil
}

// Transfer sends amount (human units) to recipient and blocks until the
// transfer is confirmed. It returns the transaction hash.
func (e *Engine) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) (string, error) {
	if !common.IsHexAddress(recipient) {
		return "", &Error{Stage: "validate", Err: fmt.Errorf("%w: %q", ErrInvalidRecipient, recipient)}
	}
	to := common.HexToAddress(recipient)

	decimals, err := e.token.Decimals(ctx)
	if err != nil {
		return "", &Error{Stage: "decimals", Err: err}
	}
	wei, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return "", &Error{Stage: "validate", Err: err}
	}

	bal, err := e.token.BalanceOf(ctx, e.token.Signer())
	if err != nil {
		return "", &Error{Stage: "balance", Err: err}
	}
	if bal.Cmp(wei) < 0 {
		return "", &Error{Stage: "balance", Err: fmt.Errorf("%w: have %s, need %s",
			ErrInsufficientBalance, FromBaseUnits(bal, decimals), amount)}
	}

	log.Infof("sending %s tokens to %s", amount, to.Hex())
	tx, err := e.token.Transfer(ctx, to, wei)
	if err != nil {
		return "", &Error{Stage: "submit", Err: err}
	}
	hash := tx.Hash().Hex()
	log.Infof("tx sent: %s, waiting for %d confirmation(s)", hash, e.confirmations)

	if err := e.token.WaitConfirmed(ctx, tx, e.confirmations); err != nil {
		return "", &Error{Stage: "confirm", TxHash: hash, Err: err}
	}
	log.Infof("tx confirmed: %s", hash)
	return hash, nil
}
