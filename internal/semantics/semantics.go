// Package semantics implements the pure arithmetic primitives the
// interpreter dispatches to. Every function is total: for finite operands
// it returns either a finite Number or number.Inf, and INF operands are
// absorbing.
package semantics

import (
	"math/big"

	"loda/internal/number"
)

type Number = number.Number

// Add, Sub, Mul are standard big-integer arithmetic, saturating to Inf if
// either operand is Inf or the result exceeds the word budget.
func Add(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).Add(a.BigInt(), b.BigInt()))
}

func Sub(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).Sub(a.BigInt(), b.BigInt()))
}

func Mul(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).Mul(a.BigInt(), b.BigInt()))
}

// Trn is truncated subtraction: max(a-b, 0).
func Trn(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	r := new(big.Int).Sub(a.BigInt(), b.BigInt())
	if r.Sign() < 0 {
		return number.Zero
	}
	return number.FromBigIntChecked(r)
}

// Div truncates toward zero; division by zero yields Inf.
func Div(a, b Number) Number {
	if a.IsInf() || b.IsInf() || b.IsZero() {
		return number.Inf
	}
	q := new(big.Int).Quo(a.BigInt(), b.BigInt())
	return number.FromBigIntChecked(q)
}

// Dif is exact division: a/b when b divides a, else a unchanged. b=0
// returns a.
func Dif(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if b.IsZero() {
		return a
	}
	ai, bi := a.BigInt(), b.BigInt()
	q, r := new(big.Int).QuoRem(ai, bi, new(big.Int))
	if r.Sign() != 0 {
		return a
	}
	return number.FromBigIntChecked(q)
}

// Mod takes the sign of the dividend; b=0 yields Inf.
func Mod(a, b Number) Number {
	if a.IsInf() || b.IsInf() || b.IsZero() {
		return number.Inf
	}
	r := new(big.Int).Rem(a.BigInt(), b.BigInt())
	return number.FromBigIntChecked(r)
}

// Pow is integer exponentiation via repeated squaring with the documented
// special cases around zero, one, and negative exponents/bases.
func Pow(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if b.IsZero() {
		return number.One
	}
	if a.IsZero() {
		if b.IsNegative() {
			return number.Inf
		}
		return number.Zero
	}
	if a.Eq(number.One) {
		return number.One
	}
	if a.Eq(number.MinusOne) {
		bi, _ := b.Int64()
		if bi%2 == 0 {
			return number.One
		}
		return number.MinusOne
	}
	if b.IsNegative() {
		// |a| > 1 here (0, 1, -1 handled above).
		return number.Zero
	}
	exp := b.BigInt()
	if !exp.IsInt64() {
		return number.Inf
	}
	r := new(big.Int).Exp(a.BigInt(), exp, nil)
	return number.FromBigIntChecked(r)
}

// Gcd is the non-negative gcd; gcd(0,0)=0.
func Gcd(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	ai, bi := a.BigInt(), b.BigInt()
	ai.Abs(ai)
	bi.Abs(bi)
	g := new(big.Int).GCD(nil, nil, ai, bi)
	return number.FromBigIntChecked(g)
}

// binomialNonNeg computes C(n,k) for n,k >= 0 using the standard recurrence
// via big.Int.Binomial (defined for non-negative k; n may exceed int64
// range only in pathological cases already bounded by the word budget).
func binomialNonNeg(n, k *big.Int) *big.Int {
	if k.Sign() < 0 {
		return big.NewInt(0)
	}
	if !n.IsInt64() || !k.IsInt64() {
		return nil
	}
	ni, ki := n.Int64(), k.Int64()
	if ni < 0 {
		return nil
	}
	if ki > ni {
		return big.NewInt(0)
	}
	return new(big.Int).Binomial(ni, ki)
}

// Bin implements the binomial coefficient with Kronenburg's extension to
// negative arguments:
//
//	C(n,k)   for n,k >= 0, the ordinary definition (0 if k>n)
//	C(n,k) = (-1)^k * C(k-n-1,k)        for n<0, k>=0
//	       = (-1)^(n-k) * C(-k-1,n-k)   for n<0, k<=n
//	       = 0                         otherwise (n>=0,k<0, or n<k<0)
func Bin(n, k Number) Number {
	if n.IsInf() || k.IsInf() {
		return number.Inf
	}
	ni, ok1 := n.Int64()
	ki, ok2 := k.Int64()
	if !ok1 || !ok2 {
		return number.Inf
	}

	if ni >= 0 && ki >= 0 {
		r := binomialNonNeg(big.NewInt(ni), big.NewInt(ki))
		if r == nil {
			return number.Inf
		}
		return number.FromBigIntChecked(r)
	}
	if ni < 0 && ki >= 0 {
		r := binomialNonNeg(big.NewInt(ki-ni-1), big.NewInt(ki))
		if r == nil {
			return number.Inf
		}
		if ki%2 != 0 {
			r.Neg(r)
		}
		return number.FromBigIntChecked(r)
	}
	if ni < 0 && ki <= ni {
		r := binomialNonNeg(big.NewInt(-ki-1), big.NewInt(ni-ki))
		if r == nil {
			return number.Inf
		}
		if (ni-ki)%2 != 0 {
			r.Neg(r)
		}
		return number.FromBigIntChecked(r)
	}
	return number.Zero
}

// Log is the integer logarithm: the smallest r with b^r >= a, minus one if
// that power strictly exceeds a. Requires a>=1, b>=2.
func Log(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if a.Cmp(number.One) < 0 || b.Cmp(number.Two) < 0 {
		return number.Inf
	}
	ai, bi := a.BigInt(), b.BigInt()
	r := big.NewInt(0)
	pw := big.NewInt(1)
	for pw.Cmp(ai) < 0 {
		pw.Mul(pw, bi)
		r.Add(r, big.NewInt(1))
	}
	if pw.Cmp(ai) > 0 {
		r.Sub(r, big.NewInt(1))
	}
	return number.FromBigIntChecked(r)
}

// Nrt is the integer b-th root via binary search. Requires a>=0, b>=1.
func Nrt(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if a.IsNegative() || b.Cmp(number.One) < 0 {
		return number.Inf
	}
	if a.IsZero() {
		return number.Zero
	}
	ai := a.BigInt()
	bi := b.BigInt()
	lo, hi := big.NewInt(0), new(big.Int).Set(ai)
	if hi.Cmp(big.NewInt(1)) < 0 {
		hi.SetInt64(1)
	}
	for lo.Cmp(hi) < 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Add(mid, big.NewInt(1)).Rsh(mid, 1)
		p := new(big.Int).Exp(mid, bi, nil)
		if p.Cmp(ai) <= 0 {
			lo = mid
		} else {
			hi = new(big.Int).Sub(mid, big.NewInt(1))
		}
	}
	return number.FromBigIntChecked(lo)
}

// digitsBase returns the digits of |a| in base b, least significant first.
// Requires b >= 2.
func digitsBase(a *big.Int, b *big.Int) []*big.Int {
	v := new(big.Int).Abs(a)
	if v.Sign() == 0 {
		return []*big.Int{big.NewInt(0)}
	}
	var digits []*big.Int
	mod := new(big.Int)
	for v.Sign() > 0 {
		q, r := new(big.Int), new(big.Int)
		q.QuoRem(v, b, mod)
		r.Set(mod)
		digits = append(digits, r)
		v = q
	}
	return digits
}

// Dgs is the digit sum in base b>=2; the result carries the sign of a
// (dis() in the original: sign(a) * sum(digits(|a|))).
func Dgs(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if b.Cmp(number.Two) < 0 {
		return number.Inf
	}
	digits := digitsBase(a.BigInt(), b.BigInt())
	sum := big.NewInt(0)
	for _, d := range digits {
		sum.Add(sum, d)
	}
	if a.BigInt().Sign() < 0 {
		sum.Neg(sum)
	}
	return number.FromBigIntChecked(sum)
}

// Dir is the digital root in base b>=2: repeatedly sum digits until a
// single digit remains, then restore the sign of a (the original's dir()
// is sign(a) * (1 + (|a|-1) mod (b-1))).
func Dir(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if b.Cmp(number.Two) < 0 {
		return number.Inf
	}
	neg := a.BigInt().Sign() < 0
	cur := number.FromBigIntChecked(new(big.Int).Abs(a.BigInt()))
	for {
		s := Dgs(cur, b)
		if s.IsInf() {
			return number.Inf
		}
		if s.Cmp(b) < 0 {
			if neg && s.BigInt().Sign() != 0 {
				s = number.FromBigIntChecked(new(big.Int).Neg(s.BigInt()))
			}
			return s
		}
		cur = s
	}
}

func boolNum(v bool) Number {
	if v {
		return number.One
	}
	return number.Zero
}

func Equ(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return boolNum(a.Eq(b))
}

func Neq(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return boolNum(!a.Eq(b))
}

func Leq(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return boolNum(a.Cmp(b) <= 0)
}

func Geq(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return boolNum(a.Cmp(b) >= 0)
}

func Min(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func Max(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func Ban(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).And(a.BigInt(), b.BigInt()))
}

func Bor(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).Or(a.BigInt(), b.BigInt()))
}

func Bxo(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	return number.FromBigIntChecked(new(big.Int).Xor(a.BigInt(), b.BigInt()))
}

// PowerOf returns the exponent e such that value == base^e, or Zero if
// value is not an exact power of base. It returns Inf if either argument is
// Inf, value < 1, or base < 2 (not itself a failure of the power test, but
// an invalid query the caller should skip rather than treat as "not a
// power"). The Minimizer's gcd-to-loop rewrite uses this to recognize a
// "gcd with a large power of a small base" shape worth unrolling.
func PowerOf(value, base Number) Number {
	if value.IsInf() || base.IsInf() {
		return number.Inf
	}
	if value.Less(number.One) || base.Less(number.Two) {
		return number.Inf
	}
	result := int64(0)
	for Mod(value, base).IsZero() {
		result++
		value = Div(value, base)
	}
	if value.Eq(number.One) {
		return number.FromInt64(result)
	}
	return number.Zero
}
