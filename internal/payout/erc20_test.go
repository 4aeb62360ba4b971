package payout

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestERC20ABI(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	require.NoError(t, err)

	for _, m := range []string{"transfer", "balanceOf", "decimals"} {
		_, ok := parsed.Methods[m]
		assert.True(t, ok, "missing method %s", m)
	}

	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	data, err := parsed.Pack("transfer", to, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	assert.Len(t, data, 4+32+32)

	out, err := parsed.Methods["decimals"].Outputs.Pack(uint8(18))
	require.NoError(t, err)
	vals, err := parsed.Unpack("decimals", out)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), *abi.ConvertType(vals[0], new(uint8)).(*uint8))
}

func TestDialERC20WithUnreachableRPC(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	token, err := DialERC20(context.Background(), "http://127.0.0.1:1", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", keyHex)
	require.NoError(t, err, "an unreachable endpoint must not fail start-up")
	defer token.Close()
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), token.Signer())

	_, err = token.Transfer(context.Background(), common.HexToAddress("0x00000000000000000000000000000000000000bb"), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain id")

	_, err = NewEngine(token, 1).Transfer(context.Background(), "0x00000000000000000000000000000000000000bb", decimal.NewFromInt(1))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decimals", perr.Stage)
}

func TestDialERC20RejectsBadCredentials(t *testing.T) {
	_, err := DialERC20(context.Background(), "http://127.0.0.1:1", "not-an-address", "00")
	assert.Error(t, err)
	_, err = DialERC20(context.Background(), "http://127.0.0.1:1", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "zz")
	assert.Error(t, err)
}
