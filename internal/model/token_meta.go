package model

// TokenMeta captures the ERC20 fields needed to display amounts.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	// Resolved is false when decimals could not be read and amounts are raw.
	Resolved bool `json:"resolved"`
}
