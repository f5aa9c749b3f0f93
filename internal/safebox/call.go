package safebox

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"safeboxAdapter/internal/model"
)

// OpKind tells hooks and spender lookups which direction the caller is moving funds.
type OpKind uint8

const (
	OpEnter OpKind = 0
	OpExit  OpKind = 1
)

func (o OpKind) String() string {
	switch o {
	case OpEnter:
		return "enter"
	case OpExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Call is one invocation for the orchestrator to perform: target, attached value, payload.
type Call struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// EmptyCall is the no-op descriptor. Callers skip it.
func EmptyCall() Call {
	return Call{Value: new(big.Int), Data: []byte{}}
}

// IsEmpty reports whether the call has no target.
func (c Call) IsEmpty() bool {
	return c.Target == (common.Address{})
}

// Record converts the call to its JSON form.
func (c Call) Record(step string) model.CallRecord {
	value := "0"
	if c.Value != nil {
		value = c.Value.String()
	}
	return model.CallRecord{
		Step:   step,
		Target: c.Target.Hex(),
		Value:  value,
		Data:   hexutil.Encode(c.Data),
	}
}
