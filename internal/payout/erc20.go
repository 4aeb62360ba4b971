package payout

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

const confirmationPollInterval = 2 * time.Second

// ERC20 is a Token backed by a JSON-RPC connection and a local signing key.
type ERC20 struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	signer   common.Address

	mu   sync.Mutex
	auth *bind.TransactOpts
}

// DialERC20 binds the token at tokenAddress over rpcURL, signing with
// privateKeyHex (with or without 0x prefix). No RPC call is made here; the
// chain id is read on the first transfer, so an unreachable endpoint only
// fails the calls that need it.
func DialERC20(ctx context.Context, rpcURL, tokenAddress, privateKeyHex string) (*ERC20, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	return &ERC20{
		client:   client,
		contract: bind.NewBoundContract(common.HexToAddress(tokenAddress), parsed, client, client, client),
		key:      key,
		signer:   crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// transactor builds the signing options once the chain id is known.
func (t *ERC20) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.auth != nil {
		return t.auth, nil
	}
	chainID, err := t.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(t.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	t.auth = auth
	return auth, nil
}

// Signer returns the address transfers are sent from.
func (t *ERC20) Signer() common.Address { return t.signer }

// Decimals reads decimals().
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// BalanceOf reads balanceOf(owner).
func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Transfer signs and submits transfer(to, amount).
func (t *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	auth, err := t.transactor(ctx)
	if err != nil {
		return nil, err
	}
	opts := *auth
	opts.Context = ctx
	tx, err := t.contract.Transact(&opts, "transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("send transfer: %w", err)
	}
	return tx, nil
}

// WaitConfirmed blocks until tx is mined with a successful status and the
// chain head is confirmations-1 blocks past its block.
func (t *ERC20) WaitConfirmed(ctx context.Context, tx *types.Transaction, confirmations uint64) error {
	receipt, err := bind.WaitMined(ctx, t.client, tx)
	if err != nil {
		return fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrReverted
	}
	if confirmations <= 1 {
		return nil
	}

	target := receipt.BlockNumber.Uint64() + confirmations - 1
	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()
	for {
		head, err := t.client.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the RPC connection.
func (t *ERC20) Close() {
	t.client.Close()
}
