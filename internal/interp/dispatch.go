package interp

import (
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/semantics"
)

// binaryFn is a pure two-operand arithmetic primitive from internal/semantics.
type binaryFn func(a, b Number) Number

// dispatch maps an operation type to its semantic function. Only types
// handled generically (read target+source, compute, write target) appear
// here; MOV, LPB, LPE, CLR, SEQ, PRG, DBG have bespoke handling in run.go.
var dispatch = map[lang.Type]binaryFn{
	lang.ADD: semantics.Add,
	lang.SUB: semantics.Sub,
	lang.TRN: semantics.Trn,
	lang.MUL: semantics.Mul,
	lang.DIV: semantics.Div,
	lang.DIF: semantics.Dif,
	lang.DIR: semantics.Dir,
	lang.MOD: semantics.Mod,
	lang.POW: semantics.Pow,
	lang.GCD: semantics.Gcd,
	lang.BIN: semantics.Bin,
	lang.LOG: semantics.Log,
	lang.NRT: semantics.Nrt,
	lang.DGS: semantics.Dgs,
	// DGR (digital root) shares DIR's implementation; both names are kept
	// from the original vocabulary for the same reduction.
	lang.DGR: semantics.Dir,
	lang.EQU: semantics.Equ,
	lang.NEQ: semantics.Neq,
	lang.LEQ: semantics.Leq,
	lang.GEQ: semantics.Geq,
	lang.MIN: semantics.Min,
	lang.MAX: semantics.Max,
	lang.BAN: semantics.Ban,
	lang.BOR: semantics.Bor,
	lang.BXO: semantics.Bxo,
	lang.FAC: fac,
	lang.LEX: lex,
}

// factorialBudget bounds the argument to fac: beyond it the word budget
// would saturate the result to Inf anyway, so reject early.
const factorialBudget = 100000

// fac implements the original vocabulary's factorial operation. It is not
// part of the required semantics table (§4.4): target becomes a! for
// non-negative finite a within the factorial budget, and Inf otherwise. b
// is accepted but unused, matching the two-operand shape every other
// arithmetic op uses.
func fac(a, b Number) Number {
	_ = b
	if a.IsInf() || a.IsNegative() {
		return number.Inf
	}
	n, ok := a.Int64()
	if !ok || n > factorialBudget {
		return number.Inf
	}
	acc := number.One
	for i := int64(2); i <= n; i++ {
		acc = semantics.Mul(acc, number.FromInt64(i))
		if acc.IsInf() {
			return number.Inf
		}
	}
	return acc
}

// lex implements a lexicographic three-way compare packed as -1/0/1,
// another original-vocabulary op with no required semantics in §4.4.
func lex(a, b Number) Number {
	if a.IsInf() || b.IsInf() {
		return number.Inf
	}
	switch {
	case a.Cmp(b) < 0:
		return number.MinusOne
	case a.Cmp(b) > 0:
		return number.One
	default:
		return number.Zero
	}
}
