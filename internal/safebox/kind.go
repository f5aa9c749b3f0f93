package safebox

import "github.com/ethereum/go-ethereum/common"

// Kind distinguishes the native-asset SafeBox from token SafeBoxes.
type Kind int

const (
	KindToken Kind = iota
	KindNative
)

func (k Kind) String() string {
	if k == KindNative {
		return "native"
	}
	return "token"
}

// Vault is a vault address with its resolved kind.
type Vault struct {
	Address common.Address
	Kind    Kind
}

// Classify resolves the vault kind by comparing against the configured native vault.
func (a *Adapter) Classify(vault common.Address) Vault {
	kind := KindToken
	if vault == a.cfg.NativeVault {
		kind = KindNative
	}
	return Vault{Address: vault, Kind: kind}
}
