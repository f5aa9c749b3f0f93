package model

// VaultSnapshot is a point-in-time read of a SafeBox vault.
type VaultSnapshot struct {
	ChainID      uint64 `json:"chain_id"`
	BlockNumber  uint64 `json:"block_number"`
	Vault        string `json:"vault"`
	Kind         string `json:"kind"`
	Valid        bool   `json:"valid"`
	RateToken    string `json:"rate_token,omitempty"`
	InputToken   string `json:"input_token,omitempty"`
	ExchangeRate string `json:"exchange_rate,omitempty"`
	ObservedAt   string `json:"observed_at"`
}
