package optimizer

import (
	"loda/internal/lang"
	"loda/internal/number"
)

// mergeLoops collapses a loop nested directly inside another loop with an
// identical LPB header, with no operations between the two LPBs or
// between the two LPEs, into a single loop.
func (o *Optimizer) mergeLoops(p *lang.Program) bool {
	var loopBegins []int
	for i := 0; i+1 < len(p.Ops); i++ {
		switch p.Ops[i].Type {
		case lang.LPB:
			loopBegins = append(loopBegins, i)
		case lang.LPE:
			if len(loopBegins) == 0 {
				return false
			}
			lpb2 := loopBegins[len(loopBegins)-1]
			loopBegins = loopBegins[:len(loopBegins)-1]
			if p.Ops[i+1].Type == lang.LPE {
				if len(loopBegins) == 0 {
					return false
				}
				lpb1 := loopBegins[len(loopBegins)-1]
				if lpb1+1 == lpb2 && p.Ops[lpb1].Eq(p.Ops[lpb2]) {
					p.Ops = append(p.Ops[:i], p.Ops[i+1:]...)
					p.Ops = append(p.Ops[:lpb1], p.Ops[lpb1+1:]...)
					return true
				}
			}
		}
	}
	return false
}

// collapseMovLoops simplifies "lpb t,1; mov t,c; lpe" where the body
// simply forces the counter to a constant: the loop always runs at most
// once more before the counter fails the decrease check, so it reduces
// to a single operation on t.
func (o *Optimizer) collapseMovLoops(p *lang.Program) bool {
	for i := 0; i+2 < len(p.Ops); i++ {
		lpb, mov, lpe := p.Ops[i], p.Ops[i+1], p.Ops[i+2]
		if lpb.Type != lang.LPB || mov.Type != lang.MOV || lpe.Type != lang.LPE {
			continue
		}
		if !(lpb.Source.Type == lang.Constant && lpb.Source.Value.Eq(number.One)) ||
			lpb.Target.Type != lang.Direct || mov.Source.Type != lang.Constant || !mov.Target.Eq(lpb.Target) {
			continue
		}
		val := mov.Source.Value
		switch {
		case val.IsNegative():
			p.Ops = append(p.Ops[:i], p.Ops[i+3:]...)
		case val.IsZero():
			p.Ops = append(p.Ops[:i+1], p.Ops[i+3:]...)
			p.Ops[i] = lang.Operation{Type: lang.MOV, Target: lpb.Target, Source: lang.NewConstant(number.Zero)}
		default:
			p.Ops = append(p.Ops[:i+1], p.Ops[i+3:]...)
			p.Ops[i] = lang.Operation{Type: lang.MIN, Target: lpb.Target, Source: lang.NewConstant(val)}
		}
		return true
	}
	return false
}

// collapseArithmeticLoops detects the canonical "sum/product by repeated
// addition" shape:
//
//	lpb counter,1
//	sub counter,1
//	add/mul target,arg
//	lpe
//
// with target, arg, and counter three distinct direct cells, and
// replaces it with a closed form: counter' = max(counter,0), target =
// target OP (arg MUL-or-POW counter'), counter = min(counter,0). This
// turns an O(counter) loop into O(1) arithmetic.
func (o *Optimizer) collapseArithmeticLoops(p *lang.Program) bool {
	if hasIndirectOperand(p) {
		return false
	}
	for i := 0; i+3 < len(p.Ops); i++ {
		if p.Ops[i].Type != lang.LPB {
			continue
		}
		if !(p.Ops[i].Source.Type == lang.Constant && p.Ops[i].Source.Value.Eq(number.One)) {
			continue
		}
		loopCounter := p.Ops[i].Target
		subTest := lang.Operation{Type: lang.SUB, Target: loopCounter, Source: lang.NewConstant(number.One)}
		if !p.Ops[i+1].Eq(subTest) {
			continue
		}
		basicType := p.Ops[i+2].Type
		if basicType != lang.ADD && basicType != lang.MUL {
			continue
		}
		argument := p.Ops[i+2].Source
		target := p.Ops[i+2].Target
		if argument.Eq(target) || argument.Eq(loopCounter) || target.Eq(loopCounter) {
			continue
		}
		if p.Ops[i+3].Type != lang.LPE {
			continue
		}

		foldType := lang.MUL
		if basicType == lang.MUL {
			foldType = lang.POW
		}
		largest := largestDirectMemoryCell(p)
		tmpCounter := lang.NewDirect(number.FromInt64(largest + 1))
		tmpResult := lang.NewDirect(number.FromInt64(largest + 2))

		p.Ops[i] = lang.Operation{Type: lang.MOV, Target: tmpCounter, Source: loopCounter}
		p.Ops[i+1] = lang.Operation{Type: lang.MAX, Target: tmpCounter, Source: lang.NewConstant(number.Zero)}
		p.Ops[i+2] = lang.Operation{Type: lang.MOV, Target: tmpResult, Source: argument}
		p.Ops[i+3] = lang.Operation{Type: foldType, Target: tmpResult, Source: tmpCounter}
		tail := make([]lang.Operation, 0, len(p.Ops)-i-4+2)
		tail = append(tail, lang.Operation{Type: basicType, Target: target, Source: tmpResult})
		tail = append(tail, lang.Operation{Type: lang.MIN, Target: loopCounter, Source: lang.NewConstant(number.Zero)})
		tail = append(tail, p.Ops[i+4:]...)
		p.Ops = append(p.Ops[:i+4], tail...)
		return true
	}
	return false
}
