package safebox

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidParams is returned when a parameter blob is too short to hold a vault.
var ErrInvalidParams = errors.New("invalid vault params")

// ParamsLayout locates the vault address inside the parameter blob.
type ParamsLayout struct {
	Offset int
	Width  int
}

// VaultParams is the layout callers use: an address right-aligned in the first 32-byte slot.
var VaultParams = ParamsLayout{Offset: 12, Width: common.AddressLength}

// Decode reads the vault address from data.
func (l ParamsLayout) Decode(data []byte) (common.Address, error) {
	end := l.Offset + l.Width
	if len(data) < end || len(data) < 32 {
		return common.Address{}, fmt.Errorf("%w: %d bytes", ErrInvalidParams, len(data))
	}
	return common.BytesToAddress(data[l.Offset:end]), nil
}

// DecodeParams reads the vault address using VaultParams.
func DecodeParams(data []byte) (common.Address, error) {
	return VaultParams.Decode(data)
}

var addressArgs = func() abi.Arguments {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: addressType}}
}()

// EncodeParams produces the parameter blob for a vault.
func EncodeParams(vault common.Address) ([]byte, error) {
	return addressArgs.Pack(vault)
}
