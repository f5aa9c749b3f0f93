package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoOracle is returned when a price is requested without an oracle address.
var ErrNoOracle = errors.New("price oracle not configured")

// Oracle quotes the price of base denominated in quote, as 18-decimal fixed point.
type Oracle interface {
	GetPrice(ctx context.Context, base, quote common.Address) (*big.Int, error)
}

const priceOracleABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "_assetOne", "type": "address"},
      {"internalType": "address", "name": "_assetTwo", "type": "address"}
    ],
    "name": "getPrice",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	priceOracleABI     abi.ABI
	priceOracleABIOnce sync.Once
	priceOracleABIErr  error
)

// PriceOracleABI returns the parsed oracle ABI.
func PriceOracleABI() (abi.ABI, error) {
	priceOracleABIOnce.Do(func() {
		priceOracleABI, priceOracleABIErr = abi.JSON(strings.NewReader(priceOracleABIJSON))
	})
	return priceOracleABI, priceOracleABIErr
}

// ChainOracle reads prices from an on-chain oracle contract.
type ChainOracle struct {
	caller  ethereum.ContractCaller
	address common.Address
}

// NewChainOracle returns an oracle bound to the contract at address.
func NewChainOracle(caller ethereum.ContractCaller, address common.Address) *ChainOracle {
	return &ChainOracle{caller: caller, address: address}
}

// GetPrice calls getPrice(base, quote) on the oracle contract.
func (o *ChainOracle) GetPrice(ctx context.Context, base, quote common.Address) (*big.Int, error) {
	if o == nil || o.address == (common.Address{}) {
		return nil, ErrNoOracle
	}
	if o.caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	parsed, err := PriceOracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}
	data, err := parsed.Pack("getPrice", base, quote)
	if err != nil {
		return nil, fmt.Errorf("pack getPrice: %w", err)
	}

	to := o.address
	resp, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getPrice: %w", err)
	}
	values, err := parsed.Unpack("getPrice", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack getPrice: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("getPrice return size %d", len(values))
	}
	price, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getPrice unexpected type %T", values[0])
	}
	return price, nil
}
