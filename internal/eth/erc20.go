package eth

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// ContractCaller is the slice of the RPC client needed for read-only
// calls. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ERC20Reader performs read-only ERC-20 queries over an RPC client.
type ERC20Reader struct {
	caller ContractCaller
	abi    abi.ABI
}

// NewERC20Reader creates a reader over the given RPC caller.
func NewERC20Reader(caller ContractCaller) (*ERC20Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &ERC20Reader{caller: caller, abi: parsed}, nil
}

// BalanceOf returns the raw token balance of holder.
func (r *ERC20Reader) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	data, err := r.abi.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	results, err := r.abi.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}

	return balance, nil
}

// FormatUnits converts a raw integer balance to a 2-decimal display
// string using the token's decimals.
func FormatUnits(raw *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(raw, -decimals).StringFixed(2)
}

// ToUnits converts a decimal token amount to its native integer
// representation (amount x 10^decimals), truncated so floating point
// drift can never overpay.
func ToUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}
