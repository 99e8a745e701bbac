package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  error
	}{
		{name: "integer", input: "3", expected: "3.0000"},
		{name: "four digits", input: "1.2345", expected: "1.2345"},
		{name: "rounds half up", input: "0.00005", expected: "0.0001"},
		{name: "rounds down", input: "2.99994", expected: "2.9999"},
		{name: "zero", input: "0", expected: "0.0000"},
		{name: "negative", input: "-1", wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.String())
		})
	}
}

func TestParseAmount_Garbage(t *testing.T) {
	_, err := ParseAmount("ten")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `"ten"`)
}

func TestMustParseAmount_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseAmount("-0.5") })
	assert.NotPanics(t, func() { MustParseAmount("0.5") })
}

func TestAmount_Equal(t *testing.T) {
	assert.True(t, MustParseAmount("1.5").Equal(MustParseAmount("1.50000")))
	assert.False(t, MustParseAmount("1.5").Equal(MustParseAmount("1.5001")))
	assert.True(t, Amount{}.IsZero())
	assert.True(t, MustParseAmount("2").Decimal().Equal(decimal.NewFromInt(2)))
}

func TestParseEventType(t *testing.T) {
	for _, s := range []string{"deposit", "withdrawal", "dispute", "resolve", "chargeback"} {
		typ, ok := ParseEventType(s)
		assert.True(t, ok, s)
		assert.Equal(t, EventType(s), typ)
	}

	_, ok := ParseEventType("Deposit")
	assert.False(t, ok)
	_, ok = ParseEventType("transfer")
	assert.False(t, ok)

	assert.True(t, EventTypeDeposit.CarriesAmount())
	assert.True(t, EventTypeWithdrawal.CarriesAmount())
	assert.False(t, EventTypeDispute.CarriesAmount())
}
