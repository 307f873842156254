package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"-12,34", "-12.34", true},
		{"12.34", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"-1.000,00", "-1000", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMedianAmount(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		in   []decimal.Decimal
		want decimal.Decimal
	}{
		{nil, decimal.Zero},
		{[]decimal.Decimal{d("-50")}, d("-50")},
		{[]decimal.Decimal{d("-50"), d("-50"), d("-65.5")}, d("-50")},
		{[]decimal.Decimal{d("10"), d("40"), d("20"), d("30")}, d("25")},
	}
	for i, tc := range cases {
		if got := MedianAmount(tc.in); !got.Equal(tc.want) {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}
