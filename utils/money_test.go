package utils

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4499.1", "4499"},
		{"7347.2", "7347"},
		{"6799.15", "6799"},
		{"2.5", "3"},
		{"2.49", "2"},
		{"-2.5", "-2"},
		{"-2.51", "-3"},
		{"0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := RoundUnit(decimal.RequireFromString(tc.in))
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"INR 20,000", "20000"},
		{"-347", "-347"},
		{"  1,234.50  ", "1234.5"},
		{"abc", "0"},
		{"", "0"},
		{"1.2.3", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseAmount(tc.in).String())
		})
	}
}

func TestAmountUnmarshalJSON(t *testing.T) {
	type payload struct {
		Paid Amount `json:"paid"`
		Due  Amount `json:"due"`
	}
	cases := []struct {
		name    string
		body    string
		paid    string
		paidSet bool
	}{
		{"number", `{"paid": 7000}`, "7000", true},
		{"string", `{"paid": "7,000.50"}`, "7000.5", true},
		{"null", `{"paid": null}`, "0", true},
		{"garbage string", `{"paid": "n/a"}`, "0", true},
		{"boolean", `{"paid": true}`, "0", true},
		{"missing", `{}`, "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))
			assert.Equal(t, tc.paid, p.Paid.String())
			assert.Equal(t, tc.paidSet, p.Paid.Set)
			assert.False(t, p.Due.Set)
		})
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{`{"quantity": 3}`, 3},
		{`{"quantity": "3"}`, 3},
		{`{"quantity": 2.9}`, 2},
		{`{"quantity": " 12 pcs"}`, 12},
		{`{"quantity": "abc"}`, 0},
		{`{"quantity": -4}`, -4},
	}
	for _, tc := range cases {
		var p struct {
			Quantity *Quantity `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal([]byte(tc.body), &p), tc.body)
		require.NotNil(t, p.Quantity, tc.body)
		assert.Equal(t, tc.want, p.Quantity.Value, tc.body)
		assert.True(t, p.Quantity.Set)
	}
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.Equal(t, "5", NonNegative(decimal.NewFromInt(5)).String())
}
