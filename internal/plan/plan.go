package plan

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"safeboxAdapter/internal/model"
	"safeboxAdapter/internal/safebox"
)

// ErrTargetRejected is returned when the vault fails admission.
var ErrTargetRejected = errors.New("vault rejected")

// Result is an ordered list of calls with the tokens they move.
type Result struct {
	Vault  string              `json:"vault"`
	Kind   string              `json:"kind"`
	Op     string              `json:"op"`
	Calls  []model.CallRecord  `json:"calls"`
	Tokens []model.QuoteRecord `json:"tokens"`
}

// Planner sequences pre-action, main and post-action calls for one vault operation.
type Planner struct {
	adapter *safebox.Adapter
	logger  *zap.Logger
}

func NewPlanner(adapter *safebox.Adapter, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{adapter: adapter, logger: logger}
}

// Enter plans a deposit of amount into the vault named by params.
func (p *Planner) Enter(ctx context.Context, params []byte, amount *big.Int) (Result, error) {
	vault, err := p.admit(ctx, params)
	if err != nil {
		return Result{}, err
	}

	tokens, weights, err := p.adapter.GetInputTokensAndWeights(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("input tokens: %w", err)
	}

	pre, err := p.adapter.GetPreActionCall(vault.Address, amount, safebox.OpEnter)
	if err != nil {
		return Result{}, err
	}
	enter, err := p.adapter.BuildEnterCall(params, tokens, []*big.Int{amount})
	if err != nil {
		return Result{}, err
	}
	post, err := p.adapter.GetPostActionCall(vault.Address, amount, safebox.OpEnter)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Vault: vault.Address.Hex(),
		Kind:  vault.Kind.String(),
		Op:    safebox.OpEnter.String(),
		Calls: sequence(safebox.OpEnter, pre, enter, post),
	}
	for i, token := range tokens {
		result.Tokens = append(result.Tokens, model.QuoteRecord{
			Token:  token.Hex(),
			Amount: amount.String(),
			Weight: weights[i].String(),
		})
	}

	p.logger.Debug("enter planned",
		zap.String("vault", result.Vault),
		zap.String("kind", result.Kind),
		zap.Int("calls", len(result.Calls)),
	)
	return result, nil
}

// Exit plans a withdrawal of shares from the vault named by params.
// The post-action re-wraps the quoted proceeds.
func (p *Planner) Exit(ctx context.Context, params []byte, shares *big.Int) (Result, error) {
	vault, err := p.admit(ctx, params)
	if err != nil {
		return Result{}, err
	}

	tokens, amounts, err := p.adapter.GetOutputTokensAndMinAmount(ctx, params, shares)
	if err != nil {
		return Result{}, fmt.Errorf("output quote: %w", err)
	}

	pre, err := p.adapter.GetPreActionCall(vault.Address, shares, safebox.OpExit)
	if err != nil {
		return Result{}, err
	}
	exit, err := p.adapter.BuildExitCall(params, shares)
	if err != nil {
		return Result{}, err
	}
	post, err := p.adapter.GetPostActionCall(vault.Address, amounts[0], safebox.OpExit)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Vault: vault.Address.Hex(),
		Kind:  vault.Kind.String(),
		Op:    safebox.OpExit.String(),
		Calls: sequence(safebox.OpExit, pre, exit, post),
	}
	for i, token := range tokens {
		result.Tokens = append(result.Tokens, model.QuoteRecord{
			Token:  token.Hex(),
			Amount: amounts[i].String(),
		})
	}

	p.logger.Debug("exit planned",
		zap.String("vault", result.Vault),
		zap.String("kind", result.Kind),
		zap.Int("calls", len(result.Calls)),
	)
	return result, nil
}

func (p *Planner) admit(ctx context.Context, params []byte) (safebox.Vault, error) {
	vault, err := safebox.DecodeParams(params)
	if err != nil {
		return safebox.Vault{}, err
	}
	if !p.adapter.IsValidTarget(ctx, params) {
		return safebox.Vault{}, fmt.Errorf("%w: %s", ErrTargetRejected, vault.Hex())
	}
	return p.adapter.Classify(vault), nil
}

// sequence drops empty hooks. The main call is labelled with the op.
func sequence(op safebox.OpKind, pre, main, post safebox.Call) []model.CallRecord {
	calls := make([]model.CallRecord, 0, 3)
	if !pre.IsEmpty() {
		calls = append(calls, pre.Record("pre"))
	}
	calls = append(calls, main.Record(op.String()))
	if !post.IsEmpty() {
		calls = append(calls, post.Record("post"))
	}
	return calls
}
