package safebox

import (
	"errors"
	"math/big"
	"testing"
)

func TestPreciseMul(t *testing.T) {
	cases := []struct {
		a, b string
		want string
	}{
		{"2000000000000000000", "1000", "2000"},
		{"1000000000000000000", "1000000000000000000", "1000000000000000000"},
		{"1500000000000000001", "3", "4"},
		{"999999999999999999", "1", "0"},
		{"0", "12345", "0"},
	}

	for _, tc := range cases {
		a, _ := new(big.Int).SetString(tc.a, 10)
		b, _ := new(big.Int).SetString(tc.b, 10)
		got, err := PreciseMul(a, b)
		if err != nil {
			t.Fatalf("PreciseMul(%s, %s): %v", tc.a, tc.b, err)
		}
		if got.String() != tc.want {
			t.Fatalf("PreciseMul(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPreciseMulOverflow(t *testing.T) {
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	if _, err := PreciseMul(half, big.NewInt(2)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := PreciseMul(tooWide, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow for 257-bit operand, got %v", err)
	}

	if _, err := PreciseMul(big.NewInt(-1), big.NewInt(1)); err == nil {
		t.Fatalf("expected error for negative operand")
	}
}
