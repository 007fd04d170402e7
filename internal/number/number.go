// Package number implements the arbitrary-precision signed integer used
// throughout the engine, plus its saturating "infinity" sentinel.
package number

import (
	"fmt"
	"math/big"
)

// Number is a signed, arbitrary-precision integer that additionally supports
// a distinguished INF value. INF models overflow and undefined results: it
// is absorbing for every arithmetic operation and compares greater than
// every finite value.
type Number struct {
	inf bool
	val big.Int
}

// Well-known constants. These are copied by value at every use site, never
// mutated in place.
var (
	Zero      = FromInt64(0)
	One       = FromInt64(1)
	Two       = FromInt64(2)
	MinusOne  = FromInt64(-1)
	Inf       = Number{inf: true}
)

// FromInt64 builds a finite Number from an int64.
func FromInt64(v int64) Number {
	var n Number
	n.val.SetInt64(v)
	return n
}

// FromBigInt builds a finite Number that copies v.
func FromBigInt(v *big.Int) Number {
	var n Number
	n.val.Set(v)
	return n
}

// IsInf reports whether n is the INF sentinel.
func (n Number) IsInf() bool { return n.inf }

// BigInt returns the underlying big.Int. It must not be called on INF; the
// zero value is returned for INF (callers should check IsInf first).
func (n Number) BigInt() *big.Int {
	if n.inf {
		return new(big.Int)
	}
	return new(big.Int).Set(&n.val)
}

// Int64 returns the value as an int64 along with whether the conversion was
// exact (false for INF or out-of-range values).
func (n Number) Int64() (int64, bool) {
	if n.inf || !n.val.IsInt64() {
		return 0, false
	}
	return n.val.Int64(), true
}

// Sign returns -1, 0 or 1 for finite numbers; INF reports 1.
func (n Number) Sign() int {
	if n.inf {
		return 1
	}
	return n.val.Sign()
}

// IsZero reports whether n is the finite value zero.
func (n Number) IsZero() bool { return !n.inf && n.val.Sign() == 0 }

// IsNegative reports whether n is finite and strictly negative.
func (n Number) IsNegative() bool { return !n.inf && n.val.Sign() < 0 }

// Odd reports whether a finite n is odd. It panics if called on INF; callers
// must only invoke it on values known finite (semantics functions check
// this before calling).
func (n Number) Odd() bool {
	if n.inf {
		panic("number: Odd called on INF")
	}
	return n.val.Bit(0) == 1
}

// Eq reports structural equality, where INF == INF and differs from every
// finite value.
func (n Number) Eq(o Number) bool {
	if n.inf || o.inf {
		return n.inf == o.inf
	}
	return n.val.Cmp(&o.val) == 0
}

// Less implements the total order used by Memory.isLess and sort-based
// callers: INF compares greater than every finite value, and
// Less(Inf, Inf) is false, matching a strict order.
func (n Number) Less(o Number) bool {
	if n.inf && o.inf {
		return false
	}
	if n.inf {
		return false
	}
	if o.inf {
		return true
	}
	return n.val.Cmp(&o.val) < 0
}

// Cmp returns -1/0/1 for finite numbers; panics if either side is INF (use
// Less/Eq for INF-aware comparisons).
func (n Number) Cmp(o Number) int {
	if n.inf || o.inf {
		panic("number: Cmp called with INF operand")
	}
	return n.val.Cmp(&o.val)
}

// Hash returns a stable hash key suitable for map indexing.
func (n Number) Hash() string {
	if n.inf {
		return "INF"
	}
	return n.val.String()
}

// String renders the decimal representation, or "inf".
func (n Number) String() string {
	if n.inf {
		return "inf"
	}
	return n.val.String()
}

// Parse decodes a decimal literal, or the literal "inf".
func Parse(s string) (Number, error) {
	if s == "inf" {
		return Inf, nil
	}
	var v big.Int
	_, ok := v.SetString(s, 10)
	if !ok {
		return Number{}, fmt.Errorf("number: invalid literal %q", s)
	}
	return FromBigInt(&v), nil
}

// MaxBits is the word budget: any arithmetic result whose magnitude needs
// more bits than this saturates to Inf rather than growing without bound.
// This mirrors the source interpreter's fixed-width overflow behavior while
// keeping Number itself arbitrary-precision below the budget.
const MaxBits = 1 << 20

// FromBigIntChecked builds a Number from v, saturating to Inf if v exceeds
// the word budget.
func FromBigIntChecked(v *big.Int) Number {
	if v.BitLen() > MaxBits {
		return Inf
	}
	return FromBigInt(v)
}
