package rangean

import (
	"math/big"

	"loda/internal/number"
	"loda/internal/semantics"
)

// extKind distinguishes the three regions of the extended integers that an
// interval endpoint may occupy.
type extKind int

const (
	negInf extKind = iota
	finite
	posInf
)

// ext is an extended-integer value: -infinity, +infinity, or a finite
// big.Int. Corner-product and corner-quotient computations need to know
// the sign of an infinite endpoint, which a bare number.Number (whose INF
// is a single, signless sentinel) cannot express; ext exists only to carry
// that extra bit through a calculation before collapsing back to the
// lower/upper Number representation.
type ext struct {
	kind extKind
	val  *big.Int
}

func extFromLower(n Number) ext {
	if n.IsInf() {
		return ext{kind: negInf}
	}
	return ext{kind: finite, val: n.BigInt()}
}

func extFromUpper(n Number) ext {
	if n.IsInf() {
		return ext{kind: posInf}
	}
	return ext{kind: finite, val: n.BigInt()}
}

// asLower collapses e back to a Range lower bound: an infinite e of either
// sign becomes number.Inf (this package's convention for "lower = -inf"),
// since asLower is only ever called on a value already known to extend the
// interval downward without bound.
func (e ext) asLower() Number {
	if e.kind != finite {
		return number.Inf
	}
	return number.FromBigIntChecked(e.val)
}

func (e ext) asUpper() Number {
	if e.kind != finite {
		return number.Inf
	}
	return number.FromBigIntChecked(e.val)
}

func (e ext) sign() int {
	switch e.kind {
	case negInf:
		return -1
	case posInf:
		return 1
	default:
		return e.val.Sign()
	}
}

// less reports whether e is strictly less than o, ordering negInf < finite < posInf.
func (e ext) less(o ext) bool {
	rank := func(x ext) int {
		switch x.kind {
		case negInf:
			return -1
		case posInf:
			return 1
		default:
			return 0
		}
	}
	re, ro := rank(e), rank(o)
	if re != ro {
		return re < ro
	}
	if re != 0 {
		return false // both infinite and same sign: equal, not less
	}
	return e.val.Cmp(o.val) < 0
}

func extMin(vals ...ext) ext {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.less(m) {
			m = v
		}
	}
	return m
}

func extMax(vals ...ext) ext {
	m := vals[0]
	for _, v := range vals[1:] {
		if m.less(v) {
			m = v
		}
	}
	return m
}

// extMul multiplies two extended values. A finite zero absorbs an infinite
// partner (the standard interval-arithmetic convention: the corner product
// at an exact zero endpoint is exactly zero, regardless of how unbounded
// the other factor is).
func extMul(a, b ext) ext {
	if a.kind == finite && a.val.Sign() == 0 {
		return ext{kind: finite, val: big.NewInt(0)}
	}
	if b.kind == finite && b.val.Sign() == 0 {
		return ext{kind: finite, val: big.NewInt(0)}
	}
	if a.kind != finite || b.kind != finite {
		if a.sign()*b.sign() < 0 {
			return ext{kind: negInf}
		}
		return ext{kind: posInf}
	}
	return ext{kind: finite, val: new(big.Int).Mul(a.val, b.val)}
}

// Add implements interval addition: pointwise, with INF absorbing on each
// side independently (see package doc: Lower/Upper infinities never mix
// under addition, so semantics.Add's own absorbing behavior is already
// exactly the interval rule).
func Add(t, s Range) Range {
	return Range{
		Lower: semantics.Add(t.Lower, s.Lower),
		Upper: semantics.Add(t.Upper, s.Upper),
	}
}

// Sub implements interval subtraction: [a,b] - [c,d] = [a-d, b-c].
func Sub(t, s Range) Range {
	return Range{
		Lower: semantics.Sub(t.Lower, s.Upper),
		Upper: semantics.Sub(t.Upper, s.Lower),
	}
}

// Mul implements interval multiplication via all four corner products,
// exactly as the spec prescribes.
func Mul(t, s Range) Range {
	tl, tu := extFromLower(t.Lower), extFromUpper(t.Upper)
	sl, su := extFromLower(s.Lower), extFromUpper(s.Upper)
	corners := []ext{extMul(tl, sl), extMul(tl, su), extMul(tu, sl), extMul(tu, su)}
	lo := extMin(corners...)
	hi := extMax(corners...)
	return Range{Lower: lo.asLower(), Upper: hi.asUpper()}
}

// Trn implements interval truncated subtraction: trn(a,b) = max(a-b, 0), a
// non-negative, monotone function of the plain interval subtraction.
func Trn(t, s Range) Range {
	d := Sub(t, s)
	lo := d.Lower
	if lo.IsInf() || lo.IsNegative() {
		lo = number.Zero
	}
	hi := d.Upper
	if !hi.IsInf() && hi.IsNegative() {
		hi = number.Zero
	}
	return Range{Lower: lo, Upper: hi}
}

// Min implements interval min: componentwise minimum.
func Min(t, s Range) Range {
	return Range{Lower: extMinBound(t.Lower, s.Lower), Upper: extMinBound(t.Upper, s.Upper)}
}

// Max implements interval max: componentwise maximum.
func Max(t, s Range) Range {
	return Range{Lower: extMaxBound(t.Lower, s.Lower), Upper: extMaxBound(t.Upper, s.Upper)}
}

func extMinBound(a, b Number) Number {
	lo := extMin(extFromLower(a), extFromLower(b))
	return lo.asLower()
}

func extMaxBound(a, b Number) Number {
	hi := extMax(extFromUpper(a), extFromUpper(b))
	return hi.asUpper()
}

// Comparison implements EQU/NEQ/LEQ/GEQ: the spec fixes the result range to
// [0,1] regardless of operands, since the interpreter's comparison ops
// always yield 0 or 1 (INF compares as a value greater than all finites,
// never producing a third outcome).
func Comparison() Range {
	return Range{Lower: number.Zero, Upper: number.One}
}

// nonNegativeEnvelope returns Range{0, Inf}: the loose but sound envelope
// used for ops whose result is known non-negative but whose precise image
// is not worth computing from interval endpoints.
func nonNegativeEnvelope() Range {
	return Range{Lower: number.Zero, Upper: number.Inf}
}

// Gcd bounds gcd(a,b): always non-negative, and when both operand
// intervals are fully finite, bounded above by the largest magnitude
// appearing in either interval (gcd(x,y) <= max(|x|,|y|) whenever not both
// zero, and gcd(0,0)=0 is already <= that bound).
func Gcd(t, s Range) Range {
	if !t.IsFinite() || !s.IsFinite() {
		return nonNegativeEnvelope()
	}
	bound := big.NewInt(0)
	for _, n := range []Number{t.Lower, t.Upper, s.Lower, s.Upper} {
		b := n.BigInt()
		b.Abs(b)
		if b.Cmp(bound) > 0 {
			bound = b
		}
	}
	return Range{Lower: number.Zero, Upper: number.FromBigIntChecked(bound)}
}

// Pow bounds pow(a,b) for the common case of non-negative base and
// exponent intervals, where the function is non-decreasing in both
// arguments; when either lower bound is negative or unbounded it returns
// Unbounded, since a negative base can give a negative result.
func Pow(t, s Range) Range {
	if t.Lower.IsInf() || t.Lower.IsNegative() || s.Lower.IsInf() || s.Lower.IsNegative() {
		return Unbounded
	}
	upper := number.Inf
	if !t.Upper.IsInf() && !s.Upper.IsInf() {
		upper = semantics.Pow(t.Upper, s.Upper)
	}
	return Range{Lower: number.Zero, Upper: upper}
}

// Div bounds a/b. When the divisor interval straddles (or could be) zero,
// the result is unbounded (division by zero saturates to INF, which this
// package's Upper/Lower convention already represents). Otherwise the
// result is computed via the four corner quotients, mirroring Mul.
func Div(t, s Range) Range {
	if straddlesZero(s) {
		return Unbounded
	}
	tl, tu := extFromLower(t.Lower), extFromUpper(t.Upper)
	sl, su := extFromLower(s.Lower), extFromUpper(s.Upper)
	corners := []ext{extDiv(tl, sl), extDiv(tl, su), extDiv(tu, sl), extDiv(tu, su)}
	lo := extMin(corners...)
	hi := extMax(corners...)
	return Range{Lower: lo.asLower(), Upper: hi.asUpper()}
}

func straddlesZero(r Range) bool {
	if r.Lower.IsInf() || r.Upper.IsInf() {
		return true
	}
	return r.Lower.Sign() <= 0 && r.Upper.Sign() >= 0
}

func extDiv(a, b ext) ext {
	if b.kind == finite && b.val.Sign() == 0 {
		// Unreachable given straddlesZero's guard, but stay sound if reached.
		return ext{kind: posInf}
	}
	if a.kind == finite && a.val.Sign() == 0 {
		return ext{kind: finite, val: big.NewInt(0)}
	}
	if a.kind != finite || b.kind != finite {
		if a.sign()*b.sign() < 0 {
			return ext{kind: negInf}
		}
		return ext{kind: posInf}
	}
	return ext{kind: finite, val: new(big.Int).Quo(a.val, b.val)}
}
