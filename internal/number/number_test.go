package number

import "testing"

func TestEqAndLess(t *testing.T) {
	tests := []struct {
		name string
		a, b Number
		eq   bool
		lt   bool
	}{
		{"equal finite", FromInt64(3), FromInt64(3), true, false},
		{"finite order", FromInt64(2), FromInt64(3), false, true},
		{"inf equals inf", Inf, Inf, true, false},
		{"finite less than inf", FromInt64(1000), Inf, false, true},
		{"inf not less than finite", Inf, FromInt64(1000), false, false},
		{"negative vs positive", MinusOne, One, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Eq(tc.b); got != tc.eq {
				t.Errorf("Eq() = %v, want %v", got, tc.eq)
			}
			if got := tc.a.Less(tc.b); got != tc.lt {
				t.Errorf("Less() = %v, want %v", got, tc.lt)
			}
		})
	}
}

func TestParseAndString(t *testing.T) {
	n, err := Parse("42")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.String() != "42" {
		t.Errorf("String() = %q, want 42", n.String())
	}
	if inf, err := Parse("inf"); err != nil || !inf.IsInf() {
		t.Errorf("Parse(inf) = %v, %v", inf, err)
	}
	if _, err := Parse("not-a-number"); err == nil {
		t.Errorf("expected error parsing garbage")
	}
}

func TestOdd(t *testing.T) {
	if !FromInt64(3).Odd() {
		t.Errorf("3 should be odd")
	}
	if FromInt64(4).Odd() {
		t.Errorf("4 should be even")
	}
}

func TestFromBigIntChecked(t *testing.T) {
	small := FromInt64(123)
	if FromBigIntChecked(small.BigInt()).IsInf() {
		t.Errorf("small value should not overflow")
	}
}
