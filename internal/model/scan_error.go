package model

// ScanError records a failed vault scan.
type ScanError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	Vault       string `json:"vault"`
	Error       string `json:"error"`
}
