package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 10_000},
		{"2.5", 25_000},
		{"-3.25", -32_500},
		{"0.0001", 1},
		{"0.00019", 1}, // truncated past 4 decimals
		{"12345.6789", 123_456_789},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuantity_Invalid(t *testing.T) {
	_, err := ParseQuantity("abc")
	require.Error(t, err)
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "2.5000", Quantity(25_000).String())
	assert.Equal(t, "-0.0001", Quantity(-1).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	q, err := ParseQuantity("7.25")
	require.NoError(t, err)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "7.2500", string(data))

	var back Quantity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)

	// String form is accepted too.
	require.NoError(t, json.Unmarshal([]byte(`"3.5"`), &back))
	assert.Equal(t, Quantity(35_000), back)
}

func TestQuantityArithmeticStaysExact(t *testing.T) {
	// 0.1 + 0.2 == 0.3 exactly, which float64 famously gets wrong.
	a, _ := ParseQuantity("0.1")
	b, _ := ParseQuantity("0.2")
	want, _ := ParseQuantity("0.3")
	assert.Equal(t, want, a+b)
}

func TestQuantitySignHelpers(t *testing.T) {
	q := Quantity(5)
	assert.True(t, q.IsPositive())
	assert.True(t, q.Neg().IsNegative())
	assert.Equal(t, q, q.Neg().Abs())
	assert.True(t, Quantity(0).IsZero())
}
