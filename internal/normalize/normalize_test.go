package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchant(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "square prefix with store number and city state",
			raw:  "SQ *JOE'S COFFEE #4521 SAN FRANCISCO CA",
			want: "JOE'S COFFEE",
		},
		{
			name: "toast restaurant prefix",
			raw:  "TST* THE FRENCH LAUNDRY",
			want: "THE FRENCH LAUNDRY",
		},
		{
			name: "paypal prefix",
			raw:  "PAYPAL *GRUBHUB",
			want: "GRUBHUB",
		},
		{
			name: "amazon marketplace prefix",
			raw:  "AMZN MKTP US*1A2B3C4D5",
			want: "US*1A2B3C4D5",
		},
		{
			name: "store number only",
			raw:  "WALGREENS #1234",
			want: "WALGREENS",
		},
		{
			name: "trailing long digits",
			raw:  "SHELL OIL 57442092100",
			want: "SHELL OIL",
		},
		{
			name: "state and zip",
			raw:  "WALGREENS SEATTLE WA 98101",
			want: "WALGREENS",
		},
		{
			name: "trailing date",
			raw:  "UBER TRIP 03/14",
			want: "UBER TRIP",
		},
		{
			name: "legal suffix",
			raw:  "ACME WIDGETS LLC",
			want: "ACME WIDGETS",
		},
		{
			name: "lowercase input is uppercased",
			raw:  "netflix.com",
			want: "NETFLIX.COM",
		},
		{
			name: "no pattern matches",
			raw:  "SOME MERCHANT",
			want: "SOME MERCHANT",
		},
		{
			name: "whitespace collapsed",
			raw:  "  COSTCO   WHOLESALE  ",
			want: "COSTCO WHOLESALE",
		},
		{
			name: "store number exposes city state",
			raw:  "CHIPOTLE #2211 PORTLAND OR",
			want: "CHIPOTLE",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merchant(tt.raw))
		})
	}
}

func TestMerchantIdempotent(t *testing.T) {
	inputs := []string{
		"SQ *JOE'S COFFEE #4521 SAN FRANCISCO CA",
		"TST* SOME BISTRO #12 AUSTIN TX",
		"PAYPAL *SOMESELLER 4029357733",
		"ACME WIDGETS LLC",
		"TARGET STORE SEATTLE WA 98101",
		"PLAIN MERCHANT",
		"",
	}

	for _, raw := range inputs {
		once := Merchant(raw)
		assert.Equal(t, once, Merchant(once), "normalization must be a fixpoint for %q", raw)
	}
}

func TestHasRestaurantPOSPrefix(t *testing.T) {
	assert.True(t, HasRestaurantPOSPrefix("TST* SOME BISTRO"))
	assert.True(t, HasRestaurantPOSPrefix("tst* lowercase bistro"))
	assert.False(t, HasRestaurantPOSPrefix("SQ *JOE'S COFFEE"))
	assert.False(t, HasRestaurantPOSPrefix("TASTY BURGER"))
}

func TestHasAggregatorPrefix(t *testing.T) {
	assert.True(t, HasAggregatorPrefix("PAYPAL *GRUBHUB"))
	assert.True(t, HasAggregatorPrefix("PYPL SOMESELLER"))
	assert.True(t, HasAggregatorPrefix("SP * CANDLE SHOP"))
	assert.False(t, HasAggregatorPrefix("SQ *JOE'S COFFEE"))
}
