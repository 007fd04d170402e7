package rangean

import (
	"loda/internal/errs"
	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/number"
)

// Analyzer computes sound per-cell value ranges for a program. One instance
// may be reused across calls; it caches the output ranges of SEQ callees it
// has already analyzed and guards against SEQ recursion the same way the
// interpreter does.
type Analyzer struct {
	Programs interp.ProgramCache

	seqCache map[int64]Range
	running  map[int64]bool
}

// NewAnalyzer builds an Analyzer that resolves SEQ callees through programs
// (nil if the analyzed programs never use SEQ).
func NewAnalyzer(programs interp.ProgramCache) *Analyzer {
	return &Analyzer{
		Programs: programs,
		seqCache: make(map[int64]Range),
		running:  make(map[int64]bool),
	}
}

// loopFrame mirrors the interpreter's own loop frame, but over ranges
// instead of memory: it remembers the RangeMap on loop entry so LPE can
// join the body's effect against it.
type loopFrame struct {
	counterCell int64
	entering    RangeMap
}

// Generate returns the RangeMap reachable after program's last operation,
// given inputUpperBound as the upper bound on the input argument (use
// number.Inf for "no known bound").
func (a *Analyzer) Generate(program *lang.Program, inputUpperBound Number) (RangeMap, error) {
	collected, err := a.CollectRanges(program, inputUpperBound)
	if err != nil {
		return nil, err
	}
	if len(collected) == 0 {
		return RangeMap{}, nil
	}
	return collected[len(collected)-1], nil
}

// CollectRanges returns one RangeMap per operation in program (including
// NOPs, to keep indices aligned with program.Ops), reflecting the range
// state immediately after that operation executes.
func (a *Analyzer) CollectRanges(program *lang.Program, inputUpperBound Number) ([]RangeMap, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}
	if hasIndirectOperand(program) {
		return nil, errs.New(errs.UnsupportedByRanges, "range analysis does not support indirect operands")
	}

	ranges := a.init(program, inputUpperBound)
	collected := make([]RangeMap, len(program.Ops))
	hasLoops := false
	frames := []loopFrame{}
	for i, op := range program.Ops {
		if err := a.update(op, ranges, &frames); err != nil {
			return nil, err
		}
		collected[i] = ranges.Clone()
		if op.Type == lang.LPB {
			hasLoops = true
		}
	}

	if hasLoops {
		if err := a.fixedPoint(program, inputUpperBound, collected); err != nil {
			return nil, err
		}
	}
	for _, r := range collected {
		r.Prune()
	}
	return collected, nil
}

// fixedPoint re-runs the analysis once more, this time joining each loop's
// entering RangeMap against the RangeMap recorded at its matching LPE from
// the first pass, widening any bound the loop body could violate on a
// later iteration. One extra pass suffices because a loop body free of
// nested nonlinear surprises converges after folding its own first-pass
// effect back over its entry state exactly once.
func (a *Analyzer) fixedPoint(program *lang.Program, inputUpperBound Number, collected []RangeMap) error {
	ranges := a.init(program, inputUpperBound)
	frames := []loopFrame{}
	for j, op := range program.Ops {
		if op.Type == lang.LPB {
			lpe := program.MatchingLpe(j)
			end := collected[lpe]
			for cell, cur := range ranges {
				joinLoopRange(end.Get(cell), cur, &ranges, cell)
			}
		}
		if err := a.update(op, ranges, &frames); err != nil {
			return err
		}
		collected[j] = ranges.Clone()
	}
	return nil
}

// gt/lt order Numbers with INF as the greatest value in the order,
// regardless of which side of a Range it sits on (Number.Less already
// implements exactly this order).
func gt(a, b Number) bool { return b.Less(a) }
func lt(a, b Number) bool { return a.Less(b) }

// joinLoopRange refines cur against before, an authoritative reference
// range for the same cell (either the state on loop entry, or the
// first-pass state at the loop's matching LPE): a bound that exactly
// matches before's is kept; one that is tighter than before is relaxed
// back to it (before is known reachable); anything else collapses that
// side to unbounded rather than risk an unsound claim.
func joinLoopRange(before, cur Range, target *RangeMap, cell int64) {
	r := cur
	switch {
	case gt(r.Lower, before.Lower):
		r.Lower = before.Lower
	case lt(r.Lower, before.Lower) || before.Lower.IsInf():
		r.Lower = number.Inf
	}
	switch {
	case gt(r.Upper, before.Upper) || before.Upper.IsInf():
		r.Upper = number.Inf
	case lt(r.Upper, before.Upper):
		r.Upper = before.Upper
	}
	(*target)[cell] = r
}

// init seeds a fresh RangeMap: every cell touched by program starts at
// {0,0} except the input cell, which starts at {offset, inputUpperBound}
// (the "offset" directive shifts the minimum representable input, as with
// an OEIS sequence whose first term is indexed from a nonzero offset).
func (a *Analyzer) init(program *lang.Program, inputUpperBound Number) RangeMap {
	ranges := make(RangeMap)
	offset := program.DirectiveOr("offset", 0)
	for _, cell := range usedCells(program) {
		if cell == lang.InputCell {
			ranges[cell] = Range{Lower: number.FromInt64(offset), Upper: inputUpperBound}
		} else {
			ranges[cell] = Zero
		}
	}
	return ranges
}

func usedCells(program *lang.Program) []int64 {
	seen := map[int64]bool{lang.InputCell: true}
	var cells []int64
	add := func(op lang.Operand) {
		if op.Type == lang.Direct {
			if c, ok := op.Value.Int64(); ok && !seen[c] {
				seen[c] = true
				cells = append(cells, c)
			}
		}
	}
	cells = append(cells, lang.InputCell)
	for _, op := range program.Ops {
		info := op.Type.Info()
		if info.Arity >= lang.Arity1 {
			add(op.Target)
		}
		if info.Arity >= lang.Arity2 {
			add(op.Source)
		}
	}
	return cells
}

func hasIndirectOperand(p *lang.Program) bool {
	for _, op := range p.Ops {
		if op.Target.Type == lang.Indirect || op.Source.Type == lang.Indirect {
			return true
		}
	}
	return false
}

func targetCell(op lang.Operation) (int64, bool) {
	if op.Target.Type != lang.Direct {
		return 0, false
	}
	return op.Target.Value.Int64()
}

// update applies op's semantic effect to ranges in place, pushing/popping
// loop frames as LPB/LPE are encountered.
func (a *Analyzer) update(op lang.Operation, ranges RangeMap, frames *[]loopFrame) error {
	switch op.Type {
	case lang.NOP, lang.DBG:
		return nil
	case lang.CLR, lang.PRG:
		return errs.Newf(errs.UnsupportedByRanges, "range analysis does not support %s", op.Type)
	}

	// LPE's target cell is the counter cell of the loop it closes, not its
	// own (empty) target operand.
	var cell int64
	if op.Type == lang.LPE {
		if len(*frames) == 0 {
			return errs.New(errs.UnbalancedLoops, "lpe without matching lpb")
		}
		cell = (*frames)[len(*frames)-1].counterCell
	} else {
		c, ok := targetCell(op)
		if !ok {
			return errs.New(errs.UnsupportedByRanges, "range analysis requires a direct target")
		}
		cell = c
	}
	target := ranges.Get(cell)

	var source Range
	if op.Type.Info().Arity >= lang.Arity2 {
		switch op.Source.Type {
		case lang.Constant:
			source = Single(op.Source.Value)
		case lang.Direct:
			if c, ok := op.Source.Value.Int64(); ok {
				source = ranges.Get(c)
			} else {
				return errs.New(errs.UnsupportedByRanges, "range analysis requires a direct source")
			}
		default:
			return errs.New(errs.UnsupportedByRanges, "range analysis does not support indirect operands")
		}
	}

	switch op.Type {
	case lang.MOV:
		target = source
	case lang.ADD:
		target = Add(target, source)
	case lang.SUB:
		target = Sub(target, source)
	case lang.TRN:
		target = Trn(target, source)
	case lang.MUL:
		target = Mul(target, source)
	case lang.DIV:
		target = Div(target, source)
	case lang.DIF:
		target = Unbounded
	case lang.MOD:
		target = Unbounded
	case lang.POW:
		target = Pow(target, source)
	case lang.GCD:
		target = Gcd(target, source)
	case lang.LEX, lang.BIN, lang.FAC, lang.LOG, lang.NRT, lang.DGS, lang.DGR, lang.BAN, lang.BOR, lang.BXO:
		target = Unbounded
	case lang.EQU, lang.NEQ, lang.LEQ, lang.GEQ:
		target = Comparison()
	case lang.MIN:
		target = Min(target, source)
	case lang.MAX:
		target = Max(target, source)
	case lang.SEQ:
		r, err := a.seqRange(op)
		if err != nil {
			return err
		}
		target = r
	case lang.LPB:
		if op.Source.Type != lang.Constant || !op.Source.Value.Eq(number.One) {
			return errs.New(errs.UnsupportedByRanges, "range analysis requires a simple loop (lpb $x,1)")
		}
		*frames = append(*frames, loopFrame{counterCell: cell, entering: ranges.Clone()})
		target.Lower = number.Zero
	case lang.LPE:
		frame := (*frames)[len(*frames)-1]
		*frames = (*frames)[:len(*frames)-1]
		before := frame.entering.Get(cell)
		// A simple loop only exits once its counter reaches <= 0, so the
		// counter's lower bound on exit is never more than zero.
		lower := before.Lower
		if !lower.IsInf() && lower.Sign() > 0 {
			lower = number.Zero
		}
		target.Lower = lower
	default:
		return errs.Newf(errs.UnsupportedByRanges, "range analysis does not support %s", op.Type)
	}

	ranges[cell] = target
	if len(*frames) > 0 {
		frame := (*frames)[len(*frames)-1]
		before := frame.entering.Get(cell)
		joinLoopRange(before, target, &ranges, cell)
	}
	return nil
}

// seqRange resolves the range of SEQ's callee output, analyzing and
// caching it on first use. Recursion through SEQ fails the same way it
// does for the interpreter.
func (a *Analyzer) seqRange(op lang.Operation) (Range, error) {
	if op.Source.Type != lang.Constant {
		return Range{}, errs.New(errs.UnsupportedByRanges, "seq requires a constant program id")
	}
	id, ok := op.Source.Value.Int64()
	if !ok || id < 0 {
		return Range{}, errs.New(errs.UnsupportedByRanges, "seq requires a non-negative constant program id")
	}
	if r, ok := a.seqCache[id]; ok {
		return r, nil
	}
	if a.running[id] {
		return Range{}, errs.Newf(errs.Recursion, "seq %d recurses into itself during range analysis", id)
	}
	if a.Programs == nil {
		return Range{}, errs.New(errs.UnsupportedByRanges, "seq invoked with no ProgramCache configured")
	}
	callee, err := a.Programs.Get(id)
	if err != nil {
		return Range{}, err
	}
	a.running[id] = true
	defer delete(a.running, id)

	sub := NewAnalyzer(a.Programs)
	sub.seqCache = a.seqCache
	sub.running = a.running
	result, err := sub.Generate(callee, number.Inf)
	if err != nil {
		return Range{}, errs.Wrap(errs.UnsupportedByRanges, err, "callee could not be range-analyzed")
	}
	r := result.Get(lang.OutputCell)
	a.seqCache[id] = r
	return r, nil
}
