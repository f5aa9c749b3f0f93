package safebox

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safeboxAdapter/internal/oracle"
	"safeboxAdapter/internal/safebox/safeboxtest"
)

var (
	nativeVault  = common.HexToAddress("0xeEa3311250FE4c3268F8E684f7C87A82fF183Ec1")
	weth         = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	nativeCToken = common.HexToAddress("0x4444444444444444444444444444444444444444")
	tokenVault   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenCToken  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	underlying   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	usdc         = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	selectorDeposit        = hexutil.MustDecode("0xd0e30db0")
	selectorDepositAmount  = hexutil.MustDecode("0xb6b55f25")
	selectorWithdrawAmount = hexutil.MustDecode("0x2e1a7d4d")
)

type fakeOracle struct {
	prices map[[2]common.Address]*big.Int
	err    error
}

func (f *fakeOracle) GetPrice(_ context.Context, base, quote common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	price, ok := f.prices[[2]common.Address{base, quote}]
	if !ok {
		return nil, errors.New("no price")
	}
	return price, nil
}

func newTestAdapter(t *testing.T, priceOracle oracle.Oracle) (*Adapter, *safeboxtest.Caller) {
	t.Helper()

	safeBox, err := SafeBoxABI()
	require.NoError(t, err)
	cToken, err := CTokenABI()
	require.NoError(t, err)

	caller := safeboxtest.NewCaller()
	caller.Return(nativeVault, safeBox.Methods["cToken"], nativeCToken)
	caller.Return(tokenVault, safeBox.Methods["cToken"], tokenCToken)
	caller.Return(tokenVault, safeBox.Methods["uToken"], underlying)
	caller.Return(nativeCToken, cToken.Methods["exchangeRateStored"], big.NewInt(0).Mul(big.NewInt(3), FullUnit))
	caller.Return(tokenCToken, cToken.Methods["exchangeRateStored"], new(big.Int).Mul(big.NewInt(2), FullUnit))

	adapter := NewAdapter(Config{NativeVault: nativeVault, NativeWrapper: weth}, caller, priceOracle, zap.NewNop())
	return adapter, caller
}

func mustParams(t *testing.T, vault common.Address) []byte {
	t.Helper()
	params, err := EncodeParams(vault)
	require.NoError(t, err)
	return params
}

func uintWord(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func calldata(selector []byte, words ...[]byte) []byte {
	out := append([]byte{}, selector...)
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func TestIsValidTarget(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)
	ctx := context.Background()

	safeBox, err := SafeBoxABI()
	require.NoError(t, err)

	reverting := common.HexToAddress("0x5555555555555555555555555555555555555555")
	caller.Revert(reverting, safeBox.Methods["cToken"], errors.New("execution reverted"))

	zeroRate := common.HexToAddress("0x6666666666666666666666666666666666666666")
	caller.Return(zeroRate, safeBox.Methods["cToken"], common.Address{})

	noCode := common.HexToAddress("0x7777777777777777777777777777777777777777")

	assert.True(t, adapter.IsValidTarget(ctx, mustParams(t, tokenVault)))
	assert.True(t, adapter.IsValidTarget(ctx, mustParams(t, nativeVault)))
	assert.False(t, adapter.IsValidTarget(ctx, mustParams(t, reverting)))
	assert.False(t, adapter.IsValidTarget(ctx, mustParams(t, zeroRate)))
	assert.False(t, adapter.IsValidTarget(ctx, mustParams(t, noCode)))

	before := caller.Calls()
	assert.False(t, adapter.IsValidTarget(ctx, []byte{0x01, 0x02}))
	assert.Equal(t, before, caller.Calls(), "short params must not reach the chain")
}

func TestSpenderAndResultToken(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)
	params := mustParams(t, tokenVault)

	for _, op := range []OpKind{OpEnter, OpExit} {
		spender, err := adapter.GetSpender(params, op)
		require.NoError(t, err)
		assert.Equal(t, tokenVault, spender, op.String())
	}
	assert.Equal(t, tokenVault, adapter.GetResultToken(tokenVault))
	assert.Zero(t, caller.Calls())

	_, err := adapter.GetSpender(nil, OpEnter)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestBuildEnterCallNativeVault(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)

	call, err := adapter.BuildEnterCall(mustParams(t, nativeVault), []common.Address{weth}, []*big.Int{FullUnit})
	require.NoError(t, err)

	assert.Equal(t, nativeVault, call.Target)
	assert.Equal(t, 0, call.Value.Cmp(FullUnit))
	assert.Equal(t, selectorDeposit, call.Data)
}

func TestBuildEnterCallTokenVault(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)

	call, err := adapter.BuildEnterCall(mustParams(t, tokenVault), []common.Address{underlying}, []*big.Int{big.NewInt(1000)})
	require.NoError(t, err)

	assert.Equal(t, tokenVault, call.Target)
	assert.Zero(t, call.Value.Sign())
	assert.Equal(t, calldata(selectorDepositAmount, uintWord(1000)), call.Data)
}

func TestBuildEnterCallRejectsArityBeforeReads(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)
	params := mustParams(t, tokenVault)

	cases := []struct {
		name    string
		tokens  []common.Address
		amounts []*big.Int
	}{
		{"two tokens", []common.Address{underlying, weth}, []*big.Int{big.NewInt(1)}},
		{"two amounts", []common.Address{underlying}, []*big.Int{big.NewInt(1), big.NewInt(2)}},
		{"empty", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := adapter.BuildEnterCall(params, tc.tokens, tc.amounts)
			require.ErrorIs(t, err, ErrInvalidInputs)
		})
	}
	assert.Zero(t, caller.Calls())
}

func TestBuildExitCallDoesNotBranchOnKind(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)
	want := calldata(selectorWithdrawAmount, uintWord(1000))

	for _, vault := range []common.Address{nativeVault, tokenVault} {
		call, err := adapter.BuildExitCall(mustParams(t, vault), big.NewInt(1000))
		require.NoError(t, err)
		assert.Equal(t, vault, call.Target)
		assert.Zero(t, call.Value.Sign())
		assert.Equal(t, want, call.Data)
	}
}

func TestGetInputTokensAndWeights(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)
	ctx := context.Background()

	tokens, weights, err := adapter.GetInputTokensAndWeights(ctx, mustParams(t, nativeVault))
	require.NoError(t, err)
	assert.Equal(t, []common.Address{weth}, tokens)
	require.Len(t, weights, 1)
	assert.Equal(t, 0, weights[0].Cmp(FullUnit))

	tokens, weights, err = adapter.GetInputTokensAndWeights(ctx, mustParams(t, tokenVault))
	require.NoError(t, err)
	assert.Equal(t, []common.Address{underlying}, tokens)
	assert.Equal(t, 0, weights[0].Cmp(FullUnit))
}

func TestGetOutputTokensAndMinAmount(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)
	ctx := context.Background()

	tokens, amounts, err := adapter.GetOutputTokensAndMinAmount(ctx, mustParams(t, tokenVault), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, []common.Address{underlying}, tokens)
	assert.Equal(t, "2000", amounts[0].String())

	cToken, err := CTokenABI()
	require.NoError(t, err)
	rate, ok := new(big.Int).SetString("1500000000000000001", 10)
	require.True(t, ok)
	caller.Return(tokenCToken, cToken.Methods["exchangeRateStored"], rate)

	_, amounts, err = adapter.GetOutputTokensAndMinAmount(ctx, mustParams(t, tokenVault), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, "4", amounts[0].String(), "quote truncates")

	tokens, amounts, err = adapter.GetOutputTokensAndMinAmount(ctx, mustParams(t, nativeVault), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, []common.Address{weth}, tokens)
	assert.Equal(t, "21", amounts[0].String())
}

func TestGetOutputTokensPropagatesRateFault(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)

	cToken, err := CTokenABI()
	require.NoError(t, err)
	boom := errors.New("execution reverted")
	caller.Revert(tokenCToken, cToken.Methods["exchangeRateStored"], boom)

	_, _, err = adapter.GetOutputTokensAndMinAmount(context.Background(), mustParams(t, tokenVault), big.NewInt(1))
	require.ErrorIs(t, err, boom)
}

func TestGetResultTokenPrice(t *testing.T) {
	price := new(big.Int).Mul(big.NewInt(1500), FullUnit)
	priceOracle := &fakeOracle{prices: map[[2]common.Address]*big.Int{
		{underlying, usdc}: price,
		{weth, usdc}:       price,
	}}
	adapter, _ := newTestAdapter(t, priceOracle)
	ctx := context.Background()

	got, err := adapter.GetResultTokenPrice(ctx, mustParams(t, tokenVault), usdc)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(3000), FullUnit).String(), got.String())

	got, err = adapter.GetResultTokenPrice(ctx, mustParams(t, nativeVault), usdc)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(4500), FullUnit).String(), got.String())
}

func TestGetResultTokenPriceOracleFaults(t *testing.T) {
	boom := errors.New("stale feed")
	adapter, _ := newTestAdapter(t, &fakeOracle{err: boom})
	_, err := adapter.GetResultTokenPrice(context.Background(), mustParams(t, tokenVault), usdc)
	require.ErrorIs(t, err, boom)

	adapter, _ = newTestAdapter(t, nil)
	_, err = adapter.GetResultTokenPrice(context.Background(), mustParams(t, tokenVault), usdc)
	require.ErrorIs(t, err, oracle.ErrNoOracle)
}

func TestActionHooks(t *testing.T) {
	adapter, caller := newTestAdapter(t, nil)
	amount := big.NewInt(42)

	for _, vault := range []common.Address{nativeVault, tokenVault} {
		for _, op := range []OpKind{OpEnter, OpExit} {
			pre, err := adapter.GetPreActionCall(vault, amount, op)
			require.NoError(t, err)
			post, err := adapter.GetPostActionCall(vault, amount, op)
			require.NoError(t, err)

			isNative := vault == nativeVault
			assert.Equal(t, !(isNative && op == OpEnter), pre.IsEmpty(), "pre %s %s", vault.Hex(), op)
			assert.Equal(t, !(isNative && op == OpExit), post.IsEmpty(), "post %s %s", vault.Hex(), op)

			if pre.IsEmpty() {
				assert.Zero(t, pre.Value.Sign())
				assert.Empty(t, pre.Data)
			}
			if post.IsEmpty() {
				assert.Zero(t, post.Value.Sign())
				assert.Empty(t, post.Data)
			}
		}
	}

	pre, err := adapter.GetPreActionCall(nativeVault, amount, OpEnter)
	require.NoError(t, err)
	assert.Equal(t, weth, pre.Target)
	assert.Zero(t, pre.Value.Sign())
	assert.Equal(t, calldata(selectorWithdrawAmount, uintWord(42)), pre.Data)

	post, err := adapter.GetPostActionCall(nativeVault, amount, OpExit)
	require.NoError(t, err)
	assert.Equal(t, weth, post.Target)
	assert.Equal(t, "42", post.Value.String())
	assert.Equal(t, selectorDeposit, post.Data)

	assert.Zero(t, caller.Calls())
}

func TestNativeVaultEnterScenario(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)
	ctx := context.Background()
	params := mustParams(t, nativeVault)

	tokens, weights, err := adapter.GetInputTokensAndWeights(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, weth, tokens[0])
	assert.Equal(t, 0, weights[0].Cmp(FullUnit))

	enter, err := adapter.BuildEnterCall(params, tokens, []*big.Int{FullUnit})
	require.NoError(t, err)
	assert.Equal(t, nativeVault, enter.Target)
	assert.Equal(t, 0, enter.Value.Cmp(FullUnit))
	assert.Equal(t, selectorDeposit, enter.Data)

	pre, err := adapter.GetPreActionCall(nativeVault, FullUnit, OpEnter)
	require.NoError(t, err)
	assert.Equal(t, weth, pre.Target)
	assert.Zero(t, pre.Value.Sign())
	assert.Equal(t, calldata(selectorWithdrawAmount, common.LeftPadBytes(FullUnit.Bytes(), 32)), pre.Data)
}

func TestTokenVaultExitScenario(t *testing.T) {
	adapter, _ := newTestAdapter(t, nil)
	ctx := context.Background()
	params := mustParams(t, tokenVault)
	shares := big.NewInt(1000)

	_, amounts, err := adapter.GetOutputTokensAndMinAmount(ctx, params, shares)
	require.NoError(t, err)
	assert.Equal(t, "2000", amounts[0].String())

	exit, err := adapter.BuildExitCall(params, shares)
	require.NoError(t, err)
	assert.Equal(t, tokenVault, exit.Target)
	assert.Zero(t, exit.Value.Sign())
	assert.Equal(t, calldata(selectorWithdrawAmount, uintWord(1000)), exit.Data)

	post, err := adapter.GetPostActionCall(tokenVault, amounts[0], OpExit)
	require.NoError(t, err)
	assert.True(t, post.IsEmpty())
}

func TestCallRecord(t *testing.T) {
	record := Call{Target: weth, Value: big.NewInt(5), Data: selectorDeposit}.Record("post")
	assert.Equal(t, "post", record.Step)
	assert.Equal(t, weth.Hex(), record.Target)
	assert.Equal(t, "5", record.Value)
	assert.Equal(t, "0xd0e30db0", record.Data)

	empty := EmptyCall().Record("pre")
	assert.Equal(t, "0", empty.Value)
	assert.Equal(t, "0x", empty.Data)
}
