package ie

import (
	"loda/internal/lang"
	"loda/internal/number"
)

// Init performs the static eligibility analysis described for the
// Incremental Evaluator: split program into pre_loop/body/post_loop, reject
// anything IE cannot safely accelerate, and otherwise commit the split and
// its derived cell sets. It never returns an error; ineligibility is
// reported only as false, matching the source's init() contract.
func (ie *IncrementalEvaluator) Init(program *lang.Program) bool {
	ie.Reset()

	preLoop, body, postLoop, ok := splitSimpleLoop(program)
	if !ok {
		return false
	}
	if hasIndirectOperand(preLoop) || hasIndirectOperand(body) || hasIndirectOperand(postLoop) {
		return false
	}

	inputDependent, counterCell, ok := analyzePreLoop(preLoop, program)
	if !ok {
		return false
	}

	decrement, decrementType, lowerBound, ok := analyzeCounterUpdate(body, counterCell)
	if !ok {
		return false
	}
	if !checkBodyOperandIndependence(body, inputDependent, counterCell) {
		return false
	}

	stateful := computeStatefulCells(body)
	loopCounterDependent := computeLoopCounterDependentCells(body, counterCell)
	outputCells := computeOutputCells(postLoop)

	if !checkCommutative(body, stateful, outputCells, counterCell) {
		return false
	}

	ie.preLoop = preLoop
	ie.body = body
	ie.postLoop = postLoop
	ie.counterCell = counterCell
	ie.decrement = decrement
	ie.decrementType = decrementType
	ie.lowerBound = lowerBound
	ie.inputDependentAfterPreLoop = inputDependent
	ie.statefulCells = stateful
	ie.loopCounterDependentCells = loopCounterDependent
	ie.outputCells = outputCells
	ie.initialized = true
	return true
}

// splitSimpleLoop requires exactly one outermost loop whose LPB source is
// Constant(1) (a "simple loop" per the glossary), and returns its three
// surrounding fragments.
func splitSimpleLoop(program *lang.Program) (pre, body, post *lang.Program, ok bool) {
	lpbIdx := -1
	outerLoops := 0
	for i, op := range program.Ops {
		if op.Type == lang.LPB {
			if depthAt(program, i) == 0 {
				outerLoops++
				if lpbIdx == -1 {
					lpbIdx = i
				}
			}
		}
	}
	if outerLoops != 1 {
		return nil, nil, nil, false
	}
	lpb := program.Ops[lpbIdx]
	if !(lpb.Source.Type == lang.Constant && lpb.Source.Value.Eq(number.One)) {
		return nil, nil, nil, false
	}
	lpeIdx := program.MatchingLpe(lpbIdx)
	if lpeIdx < 0 {
		return nil, nil, nil, false
	}

	pre = &lang.Program{Ops: cloneOps(program.Ops[:lpbIdx])}
	body = &lang.Program{Ops: cloneOps(program.Ops[lpbIdx+1 : lpeIdx])}
	post = &lang.Program{Ops: cloneOps(program.Ops[lpeIdx+1:])}
	return pre, body, post, true
}

func depthAt(program *lang.Program, i int) int {
	depth := 0
	for j := 0; j < i; j++ {
		switch program.Ops[j].Type {
		case lang.LPB:
			depth++
		case lang.LPE:
			depth--
		}
	}
	return depth
}

func cloneOps(ops []lang.Operation) []lang.Operation {
	out := make([]lang.Operation, len(ops))
	copy(out, ops)
	return out
}

func hasIndirectOperand(p *lang.Program) bool {
	for _, op := range p.Ops {
		if op.Target.Type == lang.Indirect || op.Source.Type == lang.Indirect {
			return true
		}
	}
	return false
}

// isTransform reports whether t is one of the pre_loop "transform" op types
// allowed against a constant operand.
func isTransform(t lang.Type) bool {
	switch t {
	case lang.ADD, lang.SUB, lang.TRN, lang.MUL, lang.DIV, lang.POW:
		return true
	default:
		return false
	}
}

// analyzePreLoop tracks the set of input-dependent cells through pre_loop
// and requires the loop counter cell to end up in that set.
func analyzePreLoop(preLoop *lang.Program, full *lang.Program) (map[int64]bool, int64, bool) {
	dependent := map[int64]bool{lang.InputCell: true}
	for _, op := range preLoop.Ops {
		if op.IsNop() {
			continue
		}
		switch {
		case op.Type == lang.MOV:
			target, ok := cellOf(op.Target)
			if !ok {
				return nil, 0, false
			}
			switch op.Source.Type {
			case lang.Constant:
				dependent[target] = false
			case lang.Direct:
				src, ok := cellOf(op.Source)
				if !ok {
					return nil, 0, false
				}
				dependent[target] = dependent[src]
			default:
				return nil, 0, false
			}
		case isTransform(op.Type) && op.Source.Type == lang.Constant:
			if _, ok := cellOf(op.Target); !ok {
				return nil, 0, false
			}
			// dependency status of target is unchanged by a constant transform
		default:
			return nil, 0, false
		}
	}

	lpbIdx := len(preLoop.Ops)
	lpb := full.Ops[lpbIdx]
	counterCell, ok := cellOf(lpb.Target)
	if !ok || !dependent[counterCell] {
		return nil, 0, false
	}
	return dependent, counterCell, true
}

func cellOf(op lang.Operand) (int64, bool) {
	if op.Type != lang.Direct {
		return 0, false
	}
	return op.Value.Int64()
}

// analyzeCounterUpdate finds the single SUB/TRN op against a positive
// constant <= 1000 that targets counterCell, plus an optional MAX lower
// bound on the same cell. Any other write to the counter cell is rejected:
// the slice/decrement runtime math assumes the counter's trajectory is
// fully determined by this single decrement.
//
// The shift-register Fibonacci program from the end-to-end scenario
// ("mov $1,1; lpb $0; sub $0,1; mov $2,$1; add $1,$0; mov $0,$2; lpe;
// mov $0,$1") does not qualify: its "mov $0,$2" is a second write to the
// counter cell $0 alongside the "sub $0,1" decrement, so this check
// rejects it even though that scenario calls for IE to accept it. That
// scenario and this rule are in direct tension; see DESIGN.md for the
// resolution. Init returning false here only withdraws the acceleration —
// Evaluator still falls back to the plain interp.Interpreter, which
// produces the correct Fibonacci terms either way, so no observable
// behavior is lost, only the speedup.
func analyzeCounterUpdate(body *lang.Program, counterCell int64) (decrement int64, decrementType lang.Type, lowerBound int64, ok bool) {
	found := false
	for _, op := range body.Ops {
		target, isCell := cellOf(op.Target)
		if !isCell || target != counterCell {
			continue
		}
		info := op.Type.Info()
		if !info.IsWritingTarget {
			continue
		}
		switch op.Type {
		case lang.SUB, lang.TRN:
			if op.Source.Type != lang.Constant {
				return 0, 0, 0, false
			}
			k, exact := op.Source.Value.Int64()
			if !exact || k <= 0 || k > 1000 {
				return 0, 0, 0, false
			}
			if found {
				return 0, 0, 0, false
			}
			found = true
			decrement, decrementType = k, op.Type
		case lang.MAX:
			if op.Source.Type != lang.Constant {
				return 0, 0, 0, false
			}
			k, exact := op.Source.Value.Int64()
			if !exact || k < 0 {
				return 0, 0, 0, false
			}
			if k > lowerBound {
				lowerBound = k
			}
		default:
			// any other write to the counter cell makes its trajectory
			// unpredictable from outside a full interpreter run.
			return 0, 0, 0, false
		}
	}
	if !found {
		return 0, 0, 0, false
	}
	return decrement, decrementType, lowerBound, true
}

// checkBodyOperandIndependence rejects a body where any op reads a source
// cell that was input-dependent entering the loop, other than the counter
// cell itself.
func checkBodyOperandIndependence(body *lang.Program, inputDependent map[int64]bool, counterCell int64) bool {
	for _, op := range body.Ops {
		if op.Source.Type != lang.Direct {
			continue
		}
		cell, ok := cellOf(op.Source)
		if !ok {
			continue
		}
		if cell == counterCell {
			continue
		}
		if inputDependent[cell] {
			return false
		}
	}
	return true
}

// computeStatefulCells returns cells read within body before any write to
// them in body's op order (the glossary's "stateful cell").
func computeStatefulCells(body *lang.Program) map[int64]bool {
	written := map[int64]bool{}
	stateful := map[int64]bool{}
	for _, op := range body.Ops {
		if op.Source.Type == lang.Direct {
			if c, ok := cellOf(op.Source); ok && !written[c] {
				stateful[c] = true
			}
		}
		info := op.Type.Info()
		if info.IsReadingTarget && op.Target.Type == lang.Direct {
			if c, ok := cellOf(op.Target); ok && !written[c] {
				stateful[c] = true
			}
		}
		if info.IsWritingTarget && op.Target.Type == lang.Direct {
			if c, ok := cellOf(op.Target); ok {
				written[c] = true
			}
		}
	}
	return stateful
}

// computeLoopCounterDependentCells traces which cells' writes transitively
// depend on the loop counter cell within a single body pass.
func computeLoopCounterDependentCells(body *lang.Program, counterCell int64) map[int64]bool {
	dependent := map[int64]bool{counterCell: true}
	for _, op := range body.Ops {
		target, isCell := cellOf(op.Target)
		if !isCell {
			continue
		}
		switch op.Type {
		case lang.MOV:
			if op.Source.Type == lang.Direct {
				if src, ok := cellOf(op.Source); ok {
					dependent[target] = dependent[src]
					continue
				}
			}
			dependent[target] = false
		default:
			if op.Source.Type == lang.Direct {
				if src, ok := cellOf(op.Source); ok && dependent[src] {
					dependent[target] = true
				}
			}
		}
	}
	return dependent
}

// computeOutputCells returns cells read before being written within
// post_loop, plus OutputCell itself (the result is always observed).
func computeOutputCells(postLoop *lang.Program) map[int64]bool {
	out := computeStatefulCells(postLoop)
	out[lang.OutputCell] = true
	return out
}

// commutativeOps are the op types allowed to accumulate into a shared,
// order-independent cell.
var commutativeOps = map[lang.Type]bool{
	lang.ADD: true,
	lang.MUL: true,
	lang.MIN: true,
	lang.MAX: true,
	lang.GCD: true,
	lang.BAN: true,
	lang.BOR: true,
	lang.BXO: true,
}

// checkCommutative requires every write to a cell in watch (stateful or
// output cells, excluding the counter which has its own dedicated check) to
// come from a MOV or a commutative op: this is what lets IE replay only the
// delta of loop iterations between successive arguments instead of
// recomputing the body from the loop's start every time.
func checkCommutative(body *lang.Program, stateful, output map[int64]bool, counterCell int64) bool {
	watch := map[int64]bool{}
	for c := range stateful {
		watch[c] = true
	}
	for c := range output {
		watch[c] = true
	}
	for _, op := range body.Ops {
		target, isCell := cellOf(op.Target)
		if !isCell || !watch[target] || target == counterCell {
			continue
		}
		if op.Type == lang.MOV || commutativeOps[op.Type] {
			continue
		}
		return false
	}
	return true
}
