package rcv_test

import (
	"testing"

	"github.com/civictab/rcvtab/rcv"
	"github.com/shopspring/decimal"
)

func TestDecimalArithMul(t *testing.T) {
	arith := rcv.NewDecimalArith(4)
	for _, tt := range []struct {
		name string
		a, b string
		want string
	}{
		{name: "exact", a: "1.0000", b: "0.5000", want: "0.5000"},
		{name: "truncates toward zero, not round", a: "1.0000", b: "0.3333", want: "0.3333"},
		{name: "truncates a repeating product", a: "0.3333", b: "0.3333", want: "0.1110"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a, b, want := mustDecimal(t, tt.a), mustDecimal(t, tt.b), mustDecimal(t, tt.want)
			got := arith.Mul(a, b)
			if !got.Equal(want) {
				t.Fatalf("Mul(%s, %s) = %s, want %s", a, b, got, want)
			}
		})
	}
}

func TestDecimalArithDiv(t *testing.T) {
	arith := rcv.NewDecimalArith(4)
	for _, tt := range []struct {
		name string
		a, b string
		want string
	}{
		{name: "exact", a: "1.0000", b: "2.0000", want: "0.5000"},
		{name: "repeating quotient truncates", a: "1.0000", b: "3.0000", want: "0.3333"},
		{name: "never rounds up at the boundary", a: "0.9999", b: "1.0000", want: "0.9999"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a, b, want := mustDecimal(t, tt.a), mustDecimal(t, tt.b), mustDecimal(t, tt.want)
			got := arith.Div(a, b)
			if !got.Equal(want) {
				t.Fatalf("Div(%s, %s) = %s, want %s", a, b, got, want)
			}
		})
	}
}

func TestDecimalArithSmallestUnit(t *testing.T) {
	for _, tt := range []struct {
		scale int
		want  string
	}{
		{scale: 1, want: "0.1"},
		{scale: 4, want: "0.0001"},
	} {
		arith := rcv.NewDecimalArith(tt.scale)
		got := arith.SmallestUnit()
		want := mustDecimal(t, tt.want)
		if !got.Equal(want) {
			t.Errorf("scale %d: SmallestUnit() = %s, want %s", tt.scale, got, want)
		}
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q): %v", s, err)
	}
	return d
}
