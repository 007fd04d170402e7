// Package minimizer implements the Minimizer of §4.6: a family of
// semantics-preserving rewrites, each verified against a target sequence
// rather than proven correct in isolation, which is what lets it try
// rewrites the Optimizer cannot justify statically (dropping an operation
// outright, turning a GCD against a constant power into a loop) and keep
// only the ones that still reproduce the target.
package minimizer

import (
	"loda/internal/eval"
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/optimizer"
	"loda/internal/semantics"
)

// Settings configures a Minimizer.
type Settings struct {
	MaxMemory int64
}

// Minimizer tries program rewrites and keeps only those verified, via Eval,
// to still reproduce a target sequence.
type Minimizer struct {
	Settings Settings
	Eval     *eval.Evaluator
}

// New builds a Minimizer that verifies rewrites using evaluator.
func New(settings Settings, evaluator *eval.Evaluator) *Minimizer {
	return &Minimizer{Settings: settings, Eval: evaluator}
}

// Minimize tries to shrink p while keeping its first numTerms terms
// identical to what p currently produces. It reports whether any rewrite
// was kept, mutating p in place.
func (m *Minimizer) Minimize(p *lang.Program, numTerms int64) bool {
	m.Eval.Interp.ClearCaches()

	targetSeq, targetSteps, err := m.Eval.Eval(p, numTerms, false)
	if err != nil {
		return false
	}
	if int64(targetSeq.Len()) < numTerms {
		return false
	}

	globalChange := false

	if m.replaceClr(p) {
		globalChange = true
	}

	for exp := int64(1); exp <= 5; exp++ {
		if m.replaceConstantLoop(p, targetSeq, exp) {
			globalChange = true
			break
		}
	}

	for i := 0; i < len(p.Ops); i++ {
		localChange := false
		op := p.Ops[i]

		switch {
		case op.Type == lang.LPE:
			continue

		case op.Type == lang.TRN:
			p.Ops[i].Type = lang.SUB
			if m.check(p, targetSeq, targetSteps.Total) {
				localChange = true
			} else {
				p.Ops[i] = op
			}

		case op.Type == lang.LPB:
			if !(op.Source.Type == lang.Constant && op.Source.Value.Eq(number.One)) {
				p.Ops[i].Source = lang.NewConstant(number.One)
				if m.check(p, targetSeq, targetSteps.Total) {
					localChange = true
				} else {
					p.Ops[i] = op
				}
			}

		case len(p.Ops) > 1:
			p.Ops = append(p.Ops[:i], p.Ops[i+1:]...)
			if m.check(p, targetSeq, targetSteps.Total) {
				localChange = true
				i--
			} else {
				p.Ops = append(p.Ops[:i], append([]lang.Operation{op}, p.Ops[i:]...)...)
			}
		}

		if !localChange {
			if m.tryGcdToLoop(p, i, op, targetSeq) {
				localChange = true
			}
		}

		globalChange = globalChange || localChange
	}

	return globalChange
}

// check reports whether p still checks OK against seq, optionally bounding
// the total step count to maxTotal (0 means unbounded).
func (m *Minimizer) check(p *lang.Program, seq lang.Sequence, maxTotal int64) bool {
	status, steps := m.Eval.Check(p, seq, -1, -1)
	if status != eval.OK {
		return false
	}
	if maxTotal > 0 && steps.Total > maxTotal {
		return false
	}
	return true
}

// tryGcdToLoop rewrites "gcd target,C" (C a large exact power of a small
// base) into an unrolled division loop, which tends to be both shorter to
// describe and closer to what the Incremental Evaluator can accelerate.
// Step count is not bounded here, matching the source minimizer's own
// comment that this rewrite is allowed to cost more steps.
func (m *Minimizer) tryGcdToLoop(p *lang.Program, i int, op lang.Operation, targetSeq lang.Sequence) bool {
	if op.Type != lang.GCD || op.Target.Type != lang.Direct ||
		op.Source.Type != lang.Constant || op.Source.Value.IsZero() {
		return false
	}
	base := GetPowerOf(op.Source.Value)
	if base == 0 {
		return false
	}
	_, largest, ok := usedMemoryCells(p, m.Settings.MaxMemory)
	if !ok {
		return false
	}

	backup := append([]lang.Operation{}, p.Ops...)
	tmp := lang.NewDirect(number.FromInt64(largest + 1))

	replacement := []lang.Operation{
		{Type: lang.MOV, Target: tmp, Source: lang.NewConstant(number.One)},
		{Type: lang.LPB, Target: op.Target, Source: lang.NewConstant(number.One)},
		{Type: lang.MUL, Target: tmp, Source: lang.NewConstant(number.FromInt64(base))},
		{Type: lang.DIF, Target: op.Target, Source: lang.NewConstant(number.FromInt64(base))},
		{Type: lang.LPE},
		{Type: lang.MOV, Target: op.Target, Source: tmp},
	}
	newOps := append([]lang.Operation{}, p.Ops[:i]...)
	newOps = append(newOps, replacement...)
	newOps = append(newOps, p.Ops[i+1:]...)
	p.Ops = newOps

	if m.check(p, targetSeq, 0) {
		return true
	}
	p.Ops = backup
	return false
}

// GetPowerOf mirrors Minimizer::getPowerOf: it returns the first of the
// tried bases (2, 3, 5, 7, 10) of which v is an exact power with at least
// that base's minimum exponent (7, 6, 5, 5, 4), or 0 if there is none. Exported so the Checker's
// bad-constant detection can reuse the same notion of "power worth
// unrolling" that drives the gcd-to-loop rewrite.
func GetPowerOf(v number.Number) int64 {
	bases := []int64{2, 3, 5, 7, 10}
	minExponents := []int64{7, 6, 5, 5, 4}
	for i, base := range bases {
		exp := semantics.PowerOf(v, number.FromInt64(base))
		if exp.IsInf() {
			continue
		}
		n, _ := exp.Int64()
		if minExponents[i] <= n {
			return base
		}
	}
	return 0
}

// replaceClr expands every "clr $k,C" with 1<=C<=100 into C consecutive
// "mov" operations, trading a region write for straight-line code that
// later passes (and the check-driven rewrites above) can reason about
// cell-by-cell.
func (m *Minimizer) replaceClr(p *lang.Program) bool {
	replaced := false
	for i := 0; i < len(p.Ops); i++ {
		op := &p.Ops[i]
		if op.Type != lang.CLR || op.Target.Type != lang.Direct || op.Source.Type != lang.Constant {
			continue
		}
		length, ok := op.Source.Value.Int64()
		if !ok || length <= 0 || length > 100 {
			continue
		}
		cell, _ := op.Target.Value.Int64()
		op.Type = lang.MOV
		op.Source = lang.NewConstant(number.Zero)
		for j := int64(1); j < length; j++ {
			mov := lang.Operation{
				Type:   lang.MOV,
				Target: lang.NewDirect(number.FromInt64(cell + j)),
				Source: lang.NewConstant(number.Zero),
			}
			p.Ops = append(p.Ops[:i+int(j)], append([]lang.Operation{mov}, p.Ops[i+int(j):]...)...)
		}
		i += int(length) - 1
		replaced = true
	}
	return replaced
}

// replaceConstantLoop detects "mov t,C ; lpb t,1 ; ... ; lpe" where C is a
// large constant and no operation before the loop overwrites the input cell, and
// replaces the mov with "mov t,$0 ; add t,2*exp ; pow t,exp" — the closed
// form for a loop that merely counts down from a constant a fixed number of
// times per unit of input, verified by re-checking against seq.
func (m *Minimizer) replaceConstantLoop(p *lang.Program, seq lang.Sequence, exp int64) bool {
	hasLoop, lpbIndex, constantValue := FindConstantLoop(p)
	if !hasLoop {
		return false
	}
	if constantValue.Less(number.FromInt64(100)) {
		return false
	}
	if lpbIndex == 0 {
		return false
	}
	oldMov := p.Ops[lpbIndex-1]
	lpb := p.Ops[lpbIndex]
	if oldMov.Type != lang.MOV || !oldMov.Target.Eq(lpb.Target) || oldMov.Source.Type != lang.Constant {
		return false
	}
	if inputOverwrittenBefore(p, lpbIndex) {
		return false
	}

	backup := append([]lang.Operation{}, p.Ops...)
	mov := lang.Operation{Type: lang.MOV, Target: lpb.Target, Source: lang.NewDirect(number.FromInt64(lang.InputCell))}
	add := lang.Operation{Type: lang.ADD, Target: lpb.Target, Source: lang.NewConstant(number.FromInt64(2 * exp))}
	pw := lang.Operation{Type: lang.POW, Target: lpb.Target, Source: lang.NewConstant(number.FromInt64(exp))}

	p.Ops[lpbIndex-1] = mov
	newOps := append([]lang.Operation{}, p.Ops[:lpbIndex]...)
	newOps = append(newOps, add, pw)
	newOps = append(newOps, p.Ops[lpbIndex:]...)
	p.Ops = newOps

	if m.check(p, seq, 0) {
		return true
	}
	p.Ops = backup
	return false
}

// inputOverwrittenBefore reports whether any operation before index writes
// the input cell directly.
func inputOverwrittenBefore(p *lang.Program, index int) bool {
	for i := 0; i < index; i++ {
		op := p.Ops[i]
		if !op.Type.Info().IsWritingTarget || op.Target.Type != lang.Direct {
			continue
		}
		if c, ok := op.Target.Value.Int64(); ok && c == lang.InputCell {
			return true
		}
	}
	return false
}

// isArithmetic excludes SEQ alongside the non-computing op types, unlike
// optimizer's isArithmeticOrSeq: FindConstantLoop cares about operations
// that overwrite a cell with something other than a tracked constant or a
// sequence lookup, and a SEQ result is exactly as opaque as one.
func isArithmetic(t lang.Type) bool {
	switch t {
	case lang.NOP, lang.DBG, lang.LPB, lang.LPE, lang.CLR, lang.PRG, lang.SEQ:
		return false
	default:
		return true
	}
}

// FindConstantLoop scans for "mov t,C" (C constant) immediately tracked
// until an "lpb t,..." is reached while t is still known-constant: that is
// the shape replaceConstantLoop can unroll.
func FindConstantLoop(p *lang.Program) (hasLoop bool, lpbIndex int, constantValue number.Number) {
	values := make(map[int64]number.Number)
	for i, op := range p.Ops {
		if op.Target.Type != lang.Direct {
			for k := range values {
				delete(values, k)
			}
			continue
		}
		cell, _ := op.Target.Value.Int64()
		switch {
		case op.Type == lang.MOV:
			if op.Source.Type == lang.Constant {
				values[cell] = op.Source.Value
			} else {
				delete(values, cell)
			}
		case op.Type == lang.LPB:
			if v, ok := values[cell]; ok {
				return true, i, v
			}
			for k := range values {
				delete(values, k)
			}
		case op.Type == lang.LPE:
			for k := range values {
				delete(values, k)
			}
		case isArithmetic(op.Type):
			delete(values, cell)
		}
	}
	return false, 0, number.Number{}
}

// usedMemoryCells collects the direct cell indices p refers to, reporting
// ok=false if any exceeds maxMemory (0 means unbounded).
func usedMemoryCells(p *lang.Program, maxMemory int64) (used map[int64]bool, largest int64, ok bool) {
	used = make(map[int64]bool)
	note := func(op lang.Operand) bool {
		if op.Type != lang.Direct {
			return true
		}
		c, valid := op.Value.Int64()
		if !valid || (maxMemory > 0 && c > maxMemory) {
			return false
		}
		used[c] = true
		if c > largest {
			largest = c
		}
		return true
	}
	for _, op := range p.Ops {
		info := op.Type.Info()
		if info.Arity >= lang.Arity1 && !note(op.Target) {
			return nil, 0, false
		}
		if info.Arity >= lang.Arity2 && !note(op.Source) {
			return nil, 0, false
		}
	}
	return used, largest, true
}

// OptimizeAndMinimize alternates opt.Optimize and m.Minimize to a fixed
// point, detecting an optimize/minimize cycle via a seen-programs set (two
// passes can in principle keep undoing each other's work).
func OptimizeAndMinimize(p *lang.Program, numTerms int64, opt *optimizer.Optimizer, m *Minimizer) bool {
	seen := make(map[string]bool)
	result := false
	for {
		key := p.String()
		if seen[key] {
			break
		}
		seen[key] = true
		optimized := opt.Optimize(p)
		minimized := m.Minimize(p, numTerms)
		result = result || optimized || minimized
		if !optimized && !minimized {
			break
		}
	}
	return result
}
