package safebox

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"safeboxAdapter/internal/oracle"
)

// ErrInvalidInputs is returned when enter is asked for anything but one token and one amount.
var ErrInvalidInputs = errors.New("safebox takes exactly one input token and amount")

// Config names the well-known contracts the adapter special-cases.
type Config struct {
	// NativeVault is the SafeBox that takes the chain's native asset as call value.
	NativeVault common.Address
	// NativeWrapper is the wrapped native-asset token (WETH on mainnet).
	NativeWrapper common.Address
}

// Adapter translates vault parameters into SafeBox calls and quotes.
// It holds no state beyond its configuration; every read goes to the chain.
type Adapter struct {
	cfg    Config
	caller ethereum.ContractCaller
	oracle oracle.Oracle
	logger *zap.Logger
}

// NewAdapter builds an Adapter. priceOracle may be nil if prices are never requested.
func NewAdapter(cfg Config, caller ethereum.ContractCaller, priceOracle oracle.Oracle, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		cfg:    cfg,
		caller: caller,
		oracle: priceOracle,
		logger: logger,
	}
}

// Config returns the adapter configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// IsValidTarget reports whether params name a SafeBox with a rate token.
// Faults from decoding or the chain are absorbed into false.
func (a *Adapter) IsValidTarget(ctx context.Context, params []byte) bool {
	vault, err := DecodeParams(params)
	if err != nil {
		a.logger.Debug("vault params rejected", zap.Error(err))
		return false
	}
	rateToken, err := a.RateToken(ctx, vault)
	if err != nil {
		a.logger.Debug("vault probe failed", zap.String("vault", vault.Hex()), zap.Error(err))
		return false
	}
	return rateToken != (common.Address{})
}

// GetSpender returns the address to approve. The vault pulls its own deposits and burns its own shares.
func (a *Adapter) GetSpender(params []byte, _ OpKind) (common.Address, error) {
	return DecodeParams(params)
}

// GetResultToken returns the share token issued for token. SafeBox shares live at the vault address.
func (a *Adapter) GetResultToken(token common.Address) common.Address {
	return token
}

// BuildEnterCall builds the deposit call for a single input amount.
func (a *Adapter) BuildEnterCall(params []byte, tokensIn []common.Address, amountsIn []*big.Int) (Call, error) {
	if len(tokensIn) != 1 || len(amountsIn) != 1 {
		return Call{}, fmt.Errorf("%w: got %d tokens, %d amounts", ErrInvalidInputs, len(tokensIn), len(amountsIn))
	}
	amount := amountsIn[0]
	if amount == nil || amount.Sign() < 0 {
		return Call{}, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInputs)
	}

	vault, err := DecodeParams(params)
	if err != nil {
		return Call{}, err
	}

	switch a.Classify(vault).Kind {
	case KindNative:
		parsed, err := SafeBoxETHABI()
		if err != nil {
			return Call{}, fmt.Errorf("parse safebox eth abi: %w", err)
		}
		data, err := parsed.Pack("deposit")
		if err != nil {
			return Call{}, fmt.Errorf("pack deposit: %w", err)
		}
		return Call{Target: vault, Value: new(big.Int).Set(amount), Data: data}, nil
	default:
		parsed, err := SafeBoxABI()
		if err != nil {
			return Call{}, fmt.Errorf("parse safebox abi: %w", err)
		}
		data, err := parsed.Pack("deposit", amount)
		if err != nil {
			return Call{}, fmt.Errorf("pack deposit: %w", err)
		}
		return Call{Target: vault, Value: new(big.Int), Data: data}, nil
	}
}

// BuildExitCall builds the withdraw call. Both vault kinds share the withdraw signature;
// native proceeds are re-wrapped by the post-action call.
func (a *Adapter) BuildExitCall(params []byte, resultTokenAmount *big.Int) (Call, error) {
	if resultTokenAmount == nil || resultTokenAmount.Sign() < 0 {
		return Call{}, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInputs)
	}
	vault, err := DecodeParams(params)
	if err != nil {
		return Call{}, err
	}

	parsed, err := SafeBoxABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse safebox abi: %w", err)
	}
	data, err := parsed.Pack("withdraw", resultTokenAmount)
	if err != nil {
		return Call{}, fmt.Errorf("pack withdraw: %w", err)
	}
	return Call{Target: vault, Value: new(big.Int), Data: data}, nil
}

// GetInputTokensAndWeights returns the single token to supply, at full weight.
func (a *Adapter) GetInputTokensAndWeights(ctx context.Context, params []byte) ([]common.Address, []*big.Int, error) {
	vault, err := DecodeParams(params)
	if err != nil {
		return nil, nil, err
	}
	token, err := a.AssetToken(ctx, a.Classify(vault))
	if err != nil {
		return nil, nil, err
	}
	return []common.Address{token}, []*big.Int{new(big.Int).Set(FullUnit)}, nil
}

// GetOutputTokensAndMinAmount quotes what shares redeem for at the stored exchange rate.
// The rate is not refreshed, so the quote is advisory.
func (a *Adapter) GetOutputTokensAndMinAmount(ctx context.Context, params []byte, shares *big.Int) ([]common.Address, []*big.Int, error) {
	vault, err := DecodeParams(params)
	if err != nil {
		return nil, nil, err
	}
	token, err := a.AssetToken(ctx, a.Classify(vault))
	if err != nil {
		return nil, nil, err
	}
	rate, err := a.ExchangeRate(ctx, vault)
	if err != nil {
		return nil, nil, err
	}
	amount, err := PreciseMul(rate, shares)
	if err != nil {
		return nil, nil, fmt.Errorf("quote shares: %w", err)
	}
	return []common.Address{token}, []*big.Int{amount}, nil
}

// GetResultTokenPrice prices one vault share in denominator.
func (a *Adapter) GetResultTokenPrice(ctx context.Context, params []byte, denominator common.Address) (*big.Int, error) {
	if a.oracle == nil {
		return nil, oracle.ErrNoOracle
	}
	vault, err := DecodeParams(params)
	if err != nil {
		return nil, err
	}
	token, err := a.AssetToken(ctx, a.Classify(vault))
	if err != nil {
		return nil, err
	}
	price, err := a.oracle.GetPrice(ctx, token, denominator)
	if err != nil {
		return nil, err
	}
	rate, err := a.ExchangeRate(ctx, vault)
	if err != nil {
		return nil, err
	}
	scaled, err := PreciseMul(price, rate)
	if err != nil {
		return nil, fmt.Errorf("scale price: %w", err)
	}
	return scaled, nil
}

// GetPreActionCall unwraps the native wrapper before entering the native vault.
func (a *Adapter) GetPreActionCall(vault common.Address, amount *big.Int, op OpKind) (Call, error) {
	if op != OpEnter || a.Classify(vault).Kind != KindNative {
		return EmptyCall(), nil
	}
	if amount == nil || amount.Sign() < 0 {
		return Call{}, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInputs)
	}
	parsed, err := WETHABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse weth abi: %w", err)
	}
	data, err := parsed.Pack("withdraw", amount)
	if err != nil {
		return Call{}, fmt.Errorf("pack withdraw: %w", err)
	}
	return Call{Target: a.cfg.NativeWrapper, Value: new(big.Int), Data: data}, nil
}

// GetPostActionCall re-wraps native proceeds after exiting the native vault.
func (a *Adapter) GetPostActionCall(vault common.Address, amount *big.Int, op OpKind) (Call, error) {
	if op != OpExit || a.Classify(vault).Kind != KindNative {
		return EmptyCall(), nil
	}
	if amount == nil || amount.Sign() < 0 {
		return Call{}, fmt.Errorf("%w: amount must be non-negative", ErrInvalidInputs)
	}
	parsed, err := WETHABI()
	if err != nil {
		return Call{}, fmt.Errorf("parse weth abi: %w", err)
	}
	data, err := parsed.Pack("deposit")
	if err != nil {
		return Call{}, fmt.Errorf("pack deposit: %w", err)
	}
	return Call{Target: a.cfg.NativeWrapper, Value: new(big.Int).Set(amount), Data: data}, nil
}

// RateToken reads the vault's rate-bearing token.
func (a *Adapter) RateToken(ctx context.Context, vault common.Address) (common.Address, error) {
	parsed, err := SafeBoxABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse safebox abi: %w", err)
	}
	return a.callAddress(ctx, vault, parsed, "cToken")
}

// ExchangeRate reads the stored exchange rate of the vault's rate token.
func (a *Adapter) ExchangeRate(ctx context.Context, vault common.Address) (*big.Int, error) {
	rateToken, err := a.RateToken(ctx, vault)
	if err != nil {
		return nil, err
	}
	parsed, err := CTokenABI()
	if err != nil {
		return nil, fmt.Errorf("parse ctoken abi: %w", err)
	}
	values, err := a.callMethod(ctx, rateToken, parsed, "exchangeRateStored")
	if err != nil {
		return nil, err
	}
	rate, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("exchangeRateStored unexpected type %T", values[0])
	}
	return rate, nil
}

// AssetToken resolves the token a vault takes in and pays out.
func (a *Adapter) AssetToken(ctx context.Context, v Vault) (common.Address, error) {
	switch v.Kind {
	case KindNative:
		return a.cfg.NativeWrapper, nil
	default:
		parsed, err := SafeBoxABI()
		if err != nil {
			return common.Address{}, fmt.Errorf("parse safebox abi: %w", err)
		}
		return a.callAddress(ctx, v.Address, parsed, "uToken")
	}
}

func (a *Adapter) callAddress(ctx context.Context, to common.Address, parsed abi.ABI, method string) (common.Address, error) {
	values, err := a.callMethod(ctx, to, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s unexpected type %T", method, values[0])
	}
	return addr, nil
}

func (a *Adapter) callMethod(ctx context.Context, to common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	if a.caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := a.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
