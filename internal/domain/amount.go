package domain

import "math/bits"

// Amounts and prices are int64 fixed-point minor units (e.g. 1e6 units per
// token). All pool arithmetic goes through the checked helpers below; raw
// fixed-width operators are not used on escrowed funds.

// CheckedAdd returns a+b, or ErrOverflow if the sum does not fit in int64.
// Both operands must be non-negative.
func CheckedAdd(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b, or ErrOverflow if b > a. Both operands must be
// non-negative; the result is always non-negative.
func CheckedSub(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulDiv returns floor(a*b/d) using a 128-bit intermediate product, so
// a*b may exceed the int64 range as long as the quotient fits. All inputs
// must be non-negative and d must be positive.
func MulDiv(a, b, d int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if d <= 0 {
		return 0, ErrInvalidAmount
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		// Quotient would not fit in 64 bits.
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, uint64(d))
	if quo > uint64(maxInt64) {
		return 0, ErrOverflow
	}
	return int64(quo), nil
}

const maxInt64 = int64(^uint64(0) >> 1)
