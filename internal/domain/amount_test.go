package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(300, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(800), sum)

	_, err = CheckedAdd(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = CheckedAdd(-1, 5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCheckedSub(t *testing.T) {
	diff, err := CheckedSub(800, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(760), diff)

	_, err = CheckedSub(40, 800)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDiv(t *testing.T) {
	// floor(950 * 300 / 500) = 570
	q, err := MulDiv(950, 300, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(570), q)

	// Truncation, not rounding.
	q, err = MulDiv(10, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), q)
}

func TestMulDiv_WideIntermediate(t *testing.T) {
	// a*b overflows int64 but the quotient fits.
	a := int64(1) << 62
	q, err := MulDiv(a, 10_000, 10_000)
	require.NoError(t, err)
	assert.Equal(t, a, q)
}

func TestMulDiv_QuotientOverflow(t *testing.T) {
	_, err := MulDiv(math.MaxInt64, 3, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDiv_BadDivisor(t *testing.T) {
	_, err := MulDiv(10, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
