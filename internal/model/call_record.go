package model

// CallRecord is the JSON form of one call the orchestrator should execute.
type CallRecord struct {
	Step   string `json:"step"`
	Target string `json:"target"`
	Value  string `json:"value"`
	Data   string `json:"data"`
}

// QuoteRecord describes a token amount with its weight, for output.
type QuoteRecord struct {
	Token   string `json:"token"`
	Symbol  string `json:"symbol,omitempty"`
	Amount  string `json:"amount"`
	Display string `json:"display,omitempty"`
	Weight  string `json:"weight,omitempty"`
}
