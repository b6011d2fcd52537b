package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilToken        = errors.New("asset: nil token")
	ErrTokenMismatch   = errors.New("asset: cannot operate on different tokens")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for token")
	ErrNegativeAmount  = errors.New("asset: negative amount")
)

// Amount is an immutable quantity of a token in its smallest unit.
// It may be negative so that profits and losses share one type.
type Amount struct {
	raw   *big.Int
	token *Token
}

// NewAmount copies raw into an Amount of token.
func NewAmount(token *Token, raw *big.Int) Amount {
	if token == nil {
		panic(ErrNilToken)
	}
	v := new(big.Int)
	if raw != nil {
		v.Set(raw)
	}
	return Amount{raw: v, token: token}
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Token returns the amount's token.
func (a Amount) Token() *Token {
	return a.token
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int {
	if a.raw == nil {
		return 0
	}
	return a.raw.Sign()
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.Sign() == 0
}

// Add returns a + b. Both must be of the same token.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameToken(b); err != nil {
		return Amount{}, err
	}
	return Amount{raw: new(big.Int).Add(a.raw, b.raw), token: a.token}, nil
}

// Sub returns a - b. Both must be of the same token.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameToken(b); err != nil {
		return Amount{}, err
	}
	return Amount{raw: new(big.Int).Sub(a.raw, b.raw), token: a.token}, nil
}

// Cmp compares two amounts of the same token.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameToken(b); err != nil {
		return 0, err
	}
	return a.raw.Cmp(b.raw), nil
}

// ToDecimal converts to a human-scaled decimal. Display only.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.token == nil {
		return decimal.Zero
	}
	return ToDecimal(a.raw, a.token.Decimals())
}

// String returns e.g. "1.5 WETH".
func (a Amount) String() string {
	if a.token == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.token.Symbol())
}

// StringFixed returns the amount rounded to places decimals.
func (a Amount) StringFixed(places int32) string {
	if a.token == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().StringFixed(places), a.token.Symbol())
}

func (a Amount) checkSameToken(b Amount) error {
	if a.token == nil || b.token == nil {
		return ErrNilToken
	}
	if !a.token.Equals(b.token) {
		return fmt.Errorf("%w: %s vs %s", ErrTokenMismatch, a.token.Symbol(), b.token.Symbol())
	}
	return nil
}

// ToDecimal scales raw down by decimals.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FromDecimal scales d up by decimals. Fractions below the smallest unit
// are rejected rather than rounded.
func FromDecimal(d decimal.Decimal, decimals uint8) (*big.Int, error) {
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooManyDecimals
	}
	return scaled.BigInt(), nil
}

// ParseUnits parses a decimal string such as "0.02" into raw units.
// Negative values are rejected.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("asset: invalid decimal string %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return FromDecimal(d, decimals)
}

// ParseEther parses an ether-denominated string into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, 18)
}

// FormatEther renders wei as ether with trailing zeros trimmed.
func FormatEther(wei *big.Int) string {
	return ToDecimal(wei, 18).String()
}
