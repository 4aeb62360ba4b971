package payout

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "0xAbC0000000000000000000000000000000000001"

type fakeToken struct {
	signer   common.Address
	decimals uint8
	balance  *big.Int

	decimalsErr error
	balanceErr  error
	transferErr error
	confirmErr  error

	transfers     []*big.Int
	transferTo    []common.Address
	confirmations uint64
}

func newFakeToken(balance string) *fakeToken {
	b, _ := new(big.Int).SetString(balance, 10)
	return &fakeToken{
		signer:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		decimals: 18,
		balance:  b,
	}
}

func (f *fakeToken) Signer() common.Address { return f.signer }

func (f *fakeToken) Decimals(context.Context) (uint8, error) {
	return f.decimals, f.decimalsErr
}

func (f *fakeToken) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if owner != f.signer {
		return big.NewInt(0), nil
	}
	return f.balance, nil
}

func (f *fakeToken) Transfer(_ context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	f.transfers = append(f.transfers, amount)
	f.transferTo = append(f.transferTo, to)
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(f.transfers)),
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      60000,
		GasPrice: big.NewInt(1),
	}), nil
}

func (f *fakeToken) WaitConfirmed(_ context.Context, _ *types.Transaction, n uint64) error {
	f.confirmations = n
	return f.confirmErr
}

func TestTransferSuccess(t *testing.T) {
	tok := newFakeToken("500000000000000000000") // 500 tokens
	eng := NewEngine(tok, 0)

	hash, err := eng.Transfer(context.Background(), recipient, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	require.Len(t, tok.transfers, 1)
	assert.Equal(t, "100000000000000000000", tok.transfers[0].String())
	assert.Equal(t, common.HexToAddress(recipient), tok.transferTo[0])
	assert.Equal(t, uint64(1), tok.confirmations, "at least one confirmation")
}

func TestTransferInsufficientBalanceNeverSubmits(t *testing.T) {
	tok := newFakeToken("99000000000000000000") // 99 tokens
	eng := NewEngine(tok, 1)

	_, err := eng.Transfer(context.Background(), recipient, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "balance", perr.Stage)
	assert.Empty(t, tok.transfers)
}

func TestTransferInvalidRecipient(t *testing.T) {
	tok := newFakeToken("1")
	_, err := NewEngine(tok, 1).Transfer(context.Background(), "0x123", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, tok.transfers)
}

func TestTransferFailuresAreErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*fakeToken)
		stage string
	}{
		{"decimals", func(f *fakeToken) { f.decimalsErr = boom }, "decimals"},
		{"balance", func(f *fakeToken) { f.balanceErr = boom }, "balance"},
		{"submit", func(f *fakeToken) { f.transferErr = boom }, "submit"},
		{"confirm", func(f *fakeToken) { f.confirmErr = boom }, "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := newFakeToken("1000000000000000000000")
			tt.setup(tok)
			_, err := NewEngine(tok, 1).Transfer(context.Background(), recipient, decimal.NewFromInt(1))

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.stage, perr.Stage)
			assert.ErrorIs(t, err, boom)
			if tt.stage == "confirm" {
				assert.NotEmpty(t, perr.TxHash)
			}
		})
	}
}

func TestTransferPassesConfirmations(t *testing.T) {
	tok := newFakeToken("1000000000000000000000")
	_, err := NewEngine(tok, 3).Transfer(context.Background(), recipient, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tok.confirmations)
}

func TestCheckBalance(t *testing.T) {
	tok := newFakeToken("1500000000000000000")
	bal, err := NewEngine(tok, 1).CheckBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.String())
}
