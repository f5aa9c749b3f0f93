package safebox

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// FullUnit is 1.0 in 18-decimal fixed point.
var FullUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var fullUnit256 = uint256.MustFromBig(FullUnit)

// ErrOverflow is returned when a fixed-point product does not fit in 256 bits.
var ErrOverflow = errors.New("uint256 overflow")

// PreciseMul returns floor(a*b / 10^18). Operands are unsigned 256-bit values.
func PreciseMul(a, b *big.Int) (*big.Int, error) {
	x, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint256(b)
	if err != nil {
		return nil, err
	}

	product, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return product.Div(product, fullUnit256).ToBig(), nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, errors.New("negative fixed-point operand")
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}
