package semantics

import (
	"testing"

	"loda/internal/number"
)

func n(v int64) Number { return number.FromInt64(v) }

func TestCommutative(t *testing.T) {
	a, b := n(7), n(13)
	if !Add(a, b).Eq(Add(b, a)) {
		t.Errorf("add not commutative")
	}
	if !Mul(a, b).Eq(Mul(b, a)) {
		t.Errorf("mul not commutative")
	}
	if !Gcd(a, b).Eq(Gcd(b, a)) {
		t.Errorf("gcd not commutative")
	}
}

func TestDivMulInverse(t *testing.T) {
	a, b := n(6), n(7)
	if got := Div(Mul(a, b), b); !got.Eq(a) {
		t.Errorf("div(mul(a,b),b) = %v, want %v", got, a)
	}
}

func TestDif(t *testing.T) {
	if got := Dif(n(10), n(3)); !got.Eq(n(10)) {
		t.Errorf("dif(10,3) = %v, want 10 (3 does not divide 10)", got)
	}
	if got := Dif(n(12), n(3)); !got.Eq(n(4)) {
		t.Errorf("dif(12,3) = %v, want 4", got)
	}
}

func TestPowSpecialCases(t *testing.T) {
	tests := []struct {
		a, b, want Number
	}{
		{n(0), n(0), n(1)},
		{n(0), n(1), n(0)},
		{n(-1), n(2), n(1)},
		{n(-1), n(3), n(-1)},
		{n(1), n(1000), n(1)},
	}
	for _, tc := range tests {
		if got := Pow(tc.a, tc.b); !got.Eq(tc.want) {
			t.Errorf("pow(%v,%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestInfAbsorbing(t *testing.T) {
	ops := []func(a, b Number) Number{Add, Sub, Mul, Div, Mod, Pow, Gcd, Min, Max}
	for _, op := range ops {
		if !op(number.Inf, n(5)).IsInf() {
			t.Errorf("expected INF result with INF operand")
		}
	}
}

func TestTrn(t *testing.T) {
	if got := Trn(n(3), n(5)); !got.Eq(n(0)) {
		t.Errorf("trn(3,5) = %v, want 0", got)
	}
	if got := Trn(n(5), n(3)); !got.Eq(n(2)) {
		t.Errorf("trn(5,3) = %v, want 2", got)
	}
}

func TestDivByZero(t *testing.T) {
	if !Div(n(5), n(0)).IsInf() {
		t.Errorf("div by zero should be INF")
	}
	if !Mod(n(5), n(0)).IsInf() {
		t.Errorf("mod by zero should be INF")
	}
	if got := Dif(n(5), n(0)); !got.Eq(n(5)) {
		t.Errorf("dif by zero should return a")
	}
}

func TestBinNonNegative(t *testing.T) {
	if got := Bin(n(5), n(2)); !got.Eq(n(10)) {
		t.Errorf("bin(5,2) = %v, want 10", got)
	}
	if got := Bin(n(5), n(6)); !got.Eq(n(0)) {
		t.Errorf("bin(5,6) = %v, want 0", got)
	}
}

func TestLogAndNrt(t *testing.T) {
	if got := Log(n(100), n(10)); !got.Eq(n(2)) {
		t.Errorf("log(100,10) = %v, want 2", got)
	}
	if got := Nrt(n(27), n(3)); !got.Eq(n(3)) {
		t.Errorf("nrt(27,3) = %v, want 3", got)
	}
	if !Log(n(0), n(10)).IsInf() {
		t.Errorf("log(0,10) should be INF")
	}
}

func TestDgsDir(t *testing.T) {
	if got := Dgs(n(1234), n(10)); !got.Eq(n(10)) {
		t.Errorf("dgs(1234,10) = %v, want 10", got)
	}
	if got := Dir(n(1234), n(10)); !got.Eq(n(1)) {
		t.Errorf("dir(1234,10) = %v, want 1", got)
	}
}

func TestDgsDirNegativeDividendKeepsSign(t *testing.T) {
	if got := Dgs(n(-45), n(10)); !got.Eq(n(-9)) {
		t.Errorf("dgs(-45,10) = %v, want -9", got)
	}
	if got := Dir(n(-45), n(10)); !got.Eq(n(-9)) {
		t.Errorf("dir(-45,10) = %v, want -9", got)
	}
	if got := Dgs(n(0), n(10)); !got.Eq(n(0)) {
		t.Errorf("dgs(0,10) = %v, want 0", got)
	}
}

func TestComparisons(t *testing.T) {
	if !Equ(n(3), n(3)).Eq(n(1)) {
		t.Errorf("equ should be 1")
	}
	if !Neq(n(3), n(4)).Eq(n(1)) {
		t.Errorf("neq should be 1")
	}
	if !Leq(n(3), n(3)).Eq(n(1)) {
		t.Errorf("leq should be 1")
	}
}

func TestBitwise(t *testing.T) {
	if got := Ban(n(6), n(3)); !got.Eq(n(2)) {
		t.Errorf("ban(6,3) = %v, want 2", got)
	}
	if got := Bor(n(6), n(3)); !got.Eq(n(7)) {
		t.Errorf("bor(6,3) = %v, want 7", got)
	}
	if got := Bxo(n(6), n(3)); !got.Eq(n(5)) {
		t.Errorf("bxo(6,3) = %v, want 5", got)
	}
}
