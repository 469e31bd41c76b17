package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		err  error
	}{
		{"10", 10, nil},
		{"4294967295", MaxAmount, nil},
		{"10.00", 10, nil},
		{"0", 0, ErrAmountNotPositive},
		{"-10", 0, ErrAmountNotPositive},
		{"1.5", 0, ErrAmountFractional},
		{"4294967296", 0, ErrAmountOverflow},
		{"99999999999999999999999", 0, ErrAmountOverflow},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(decimal.RequireFromString(tc.in))
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAmountFromInt64(t *testing.T) {
	_, err := AmountFromInt64(-1)
	assert.ErrorIs(t, err, ErrAmountNotPositive)

	_, err = AmountFromInt64(MaxAmount + 1)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	a, err := AmountFromInt64(42)
	require.NoError(t, err)
	assert.True(t, a.Decimal().Equal(decimal.NewFromInt(42)))
}
