// Package checker implements the Checker of §4.8: given an existing and a
// candidate program for the same catalog id, it decides whether the
// candidate is worth keeping, and if so, names why ("Simpler", "Faster
// (IE)", "Better", "Faster") so a miner log or report can explain the
// decision instead of just announcing it.
package checker

import (
	"loda/internal/eval"
	"loda/internal/lang"
	"loda/internal/minimizer"
	"loda/internal/number"
)

// Verdict names why a candidate replaces an existing program, or the zero
// value to mean "no improvement, discard the candidate".
type Verdict string

const (
	None     Verdict = ""
	Simpler  Verdict = "Simpler"
	FasterIE Verdict = "Faster (IE)"
	Better   Verdict = "Better"
	Faster   Verdict = "Faster"
)

// extendedSeqLength is the minimum number of terms the evaluation checks
// compare on, regardless of how many terms a basic check would otherwise
// require.
const extendedSeqLength = 80

// badConstantThreshold is the magnitude above which a literal constant is
// judged "bad" on its size alone, independent of whether it is a power of
// a small base.
var badConstantThreshold = number.FromInt64(100000)

// thresholdBetter and thresholdFaster are the ratios a candidate's
// runs-completed (resp. an existing program's total steps) must clear to
// be judged meaningfully better, not just noise.
const (
	thresholdBetter = 1.05
	thresholdFaster = 1.10
)

// Checker compares programs for the same catalog id using an Evaluator (to
// run both and compare step counts) and a Minimizer (only for its shared
// GetPowerOf/FindConstantLoop helpers — no rewriting happens here).
type Checker struct {
	Eval *eval.Evaluator
}

// New builds a Checker that uses evaluator for its evaluation checks.
func New(evaluator *eval.Evaluator) *Checker {
	return &Checker{Eval: evaluator}
}

// Compare decides whether optimized should replace existing for catalog id
// seqID, given fullCheck (whether this is a thorough, not incremental,
// check pass) and numUsages (how many other programs call this one as a
// subprogram via SEQ/PRG — a widely-used program skips the cheap
// IE-support shortcut, since a regression there would propagate).
func (c *Checker) Compare(existing, optimized *lang.Program, seqID int64, fullCheck bool, numUsages int64) Verdict {
	for _, op := range optimized.Ops {
		if op.Type == lang.SEQ && (op.Source.Type != lang.Constant || sameID(op.Source, seqID)) {
			return None
		}
	}

	existing = stripNops(existing)
	optimized = stripNops(optimized)
	if len(optimized.Ops) == 0 {
		return None
	}
	if existing.Eq(optimized) {
		return None
	}

	if isSimpler(existing, optimized) {
		return Simpler
	}
	if isSimpler(optimized, existing) {
		return None
	}

	if !fullCheck && numUsages < 5 {
		if isBetterIncEval(existing, optimized, c.Eval) {
			return FasterIE
		}
		if isBetterIncEval(optimized, existing, c.Eval) {
			return None
		}
	}

	c.Eval.Interp.ClearCaches()
	optimizedSeq, optimizedSteps, err := c.Eval.Eval(optimized, extendedSeqLength, false)
	if err != nil || int64(optimizedSeq.Len()) < extendedSeqLength {
		return None
	}
	c.Eval.Interp.ClearCaches()
	existingSeq, existingSteps, err := c.Eval.Eval(existing, extendedSeqLength, false)
	if err != nil || int64(existingSeq.Len()) < extendedSeqLength {
		return None
	}

	existingRuns := float64(existingSteps.Runs)
	optimizedRuns := float64(optimizedSteps.Runs)
	if optimizedRuns > existingRuns*thresholdBetter {
		return Better
	}
	if existingRuns > optimizedRuns {
		return None
	}

	existingTotal := float64(existingSteps.Total)
	optimizedTotal := float64(optimizedSteps.Total)
	if existingTotal > optimizedTotal*thresholdFaster {
		return Faster
	}
	return None
}

func sameID(op lang.Operand, seqID int64) bool {
	v, ok := op.Value.Int64()
	return ok && v == seqID
}

// stripNops returns a copy of p with every NOP operation removed.
func stripNops(p *lang.Program) *lang.Program {
	out := p.Clone()
	ops := out.Ops[:0]
	for _, op := range out.Ops {
		if op.Type == lang.NOP {
			continue
		}
		ops = append(ops, op)
	}
	out.Ops = ops
	return out
}

// hasOp reports whether p contains any operation of type t.
func hasOp(p *lang.Program, t lang.Type) bool {
	for _, op := range p.Ops {
		if op.Type == t {
			return true
		}
	}
	return false
}

// hasIndirectOperand reports whether any operation in p reads or writes
// through an Indirect operand.
func hasIndirectOperand(p *lang.Program) bool {
	for _, op := range p.Ops {
		if op.Target.Type == lang.Indirect || op.Source.Type == lang.Indirect {
			return true
		}
	}
	return false
}

// hasBadConstant reports whether p contains a constant operand that is
// either an exact power of a small base (worth unrolling per the
// Minimizer's GetPowerOf) or simply large.
func hasBadConstant(p *lang.Program) bool {
	for _, op := range p.Ops {
		for _, operand := range []lang.Operand{op.Target, op.Source} {
			if operand.Type != lang.Constant {
				continue
			}
			if minimizer.GetPowerOf(operand.Value) != 0 || badConstantThreshold.Less(operand.Value) {
				return true
			}
		}
	}
	return false
}

// hasBadLoop reports whether p contains a region-length loop: an LPB whose
// source isn't the constant 1, meaning its iteration count depends on a
// memory region rather than a single counter cell.
func hasBadLoop(p *lang.Program) bool {
	for _, op := range p.Ops {
		if op.Type == lang.LPB && (op.Source.Type != lang.Constant || !op.Source.Value.Eq(number.One)) {
			return true
		}
	}
	return false
}

// isSimpler reports whether a has a structural defect that b lacks and b
// has no SEQ call to compensate: a bad constant, a region-length loop, a
// constant-initialized loop, or an indirect operand.
func isSimpler(a, b *lang.Program) bool {
	bHasSeq := hasOp(b, lang.SEQ)
	if hasBadConstant(a) && !hasBadConstant(b) && !bHasSeq {
		return true
	}
	if hasBadLoop(a) && !hasBadLoop(b) && !bHasSeq {
		return true
	}
	aLoop, _, _ := minimizer.FindConstantLoop(a)
	bLoop, _, _ := minimizer.FindConstantLoop(b)
	if aLoop && !bLoop && !bHasSeq {
		return true
	}
	if hasIndirectOperand(a) && !hasIndirectOperand(b) && !bHasSeq {
		return true
	}
	return false
}

// isBetterIncEval reports whether b supports incremental evaluation while
// a does not, and a actually has a loop or subprogram call (so IE support
// is a meaningful win, not a win over a program that was already O(1)).
func isBetterIncEval(a, b *lang.Program, e *eval.Evaluator) bool {
	if !hasOp(a, lang.LPB) && !hasOp(a, lang.SEQ) {
		return false
	}
	if hasOp(b, lang.SEQ) {
		return false
	}
	return !e.SupportsIncEval(a) && e.SupportsIncEval(b)
}
