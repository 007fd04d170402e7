package rangean

import (
	"testing"

	"loda/internal/number"
)

func rng(lo, hi int64) Range {
	return Range{Lower: number.FromInt64(lo), Upper: number.FromInt64(hi)}
}

func wantRange(t *testing.T, name string, got Range, loWant, hiWant int64) {
	t.Helper()
	if got.Lower.IsInf() || got.Lower.Cmp(number.FromInt64(loWant)) != 0 {
		t.Errorf("%s lower = %v, want %d", name, got.Lower, loWant)
	}
	if got.Upper.IsInf() || got.Upper.Cmp(number.FromInt64(hiWant)) != 0 {
		t.Errorf("%s upper = %v, want %d", name, got.Upper, hiWant)
	}
}

func TestArithAdd(t *testing.T) {
	wantRange(t, "add", Add(rng(1, 5), rng(-2, 3)), -1, 8)
}

func TestArithSub(t *testing.T) {
	wantRange(t, "sub", Sub(rng(1, 5), rng(-2, 3)), -2, 7)
}

func TestArithMulAllPositive(t *testing.T) {
	wantRange(t, "mul", Mul(rng(2, 3), rng(4, 5)), 8, 15)
}

func TestArithMulMixedSign(t *testing.T) {
	// [-2,3] * [-5,4]: corner products are 10,-8,-15,12; envelope [-15,12].
	wantRange(t, "mul", Mul(rng(-2, 3), rng(-5, 4)), -15, 12)
}

func TestArithMulWithInfinity(t *testing.T) {
	r := Mul(Range{Lower: number.FromInt64(2), Upper: number.Inf}, rng(3, 3))
	if r.Lower.Cmp(number.FromInt64(6)) != 0 {
		t.Errorf("lower = %v, want 6", r.Lower)
	}
	if !r.Upper.IsInf() {
		t.Errorf("upper = %v, want unbounded", r.Upper)
	}
}

func TestArithMulZeroTimesInfinityIsZero(t *testing.T) {
	r := Mul(Zero, Unbounded)
	if !r.Lower.IsZero() || !r.Upper.IsZero() {
		t.Errorf("0 * unbounded = %v, want the degenerate zero range", r)
	}
}

func TestArithTrnClampsAtZero(t *testing.T) {
	wantRange(t, "trn", Trn(rng(0, 3), rng(5, 5)), 0, 0)
}

func TestArithDivAvoidsZeroDivisor(t *testing.T) {
	r := Div(rng(10, 20), rng(-1, 1))
	if !r.Lower.IsInf() || !r.Upper.IsInf() {
		t.Errorf("div by a divisor range straddling zero = %v, want fully unbounded", r)
	}
}

func TestArithDivPositive(t *testing.T) {
	wantRange(t, "div", Div(rng(10, 20), rng(2, 5)), 2, 10)
}

func TestArithGcdBoundedByMagnitude(t *testing.T) {
	r := Gcd(rng(4, 10), rng(6, 6))
	if r.Lower.Sign() != 0 {
		t.Errorf("gcd lower = %v, want 0", r.Lower)
	}
	if r.Upper.Cmp(number.FromInt64(10)) != 0 {
		t.Errorf("gcd upper = %v, want 10", r.Upper)
	}
}

func TestArithComparisonIsZeroOne(t *testing.T) {
	wantRange(t, "cmp", Comparison(), 0, 1)
}
