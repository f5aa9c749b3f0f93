package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseAddresses converts string addresses into common.Address, skipping blanks.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		addr, err := ParseAddress(input)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ParseAmount parses a non-negative integer amount in base units (decimal or 0x hex).
func ParseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("amount is required")
	}

	var amount *big.Int
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		val, err := hexutil.DecodeBig(strings.ToLower(input[:2]) + input[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", input, err)
		}
		amount = val
	} else {
		val, ok := new(big.Int).SetString(input, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", input)
		}
		amount = val
	}

	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative: %s", input)
	}
	return amount, nil
}
