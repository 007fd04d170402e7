// Package ie implements the Incremental Evaluator: an accelerated evaluation
// strategy for programs whose outer structure is a single simple counter
// loop. It never reimplements arithmetic semantics — every fragment
// (pre-loop, body, post-loop) is executed by a real interp.Interpreter, so
// behavior stays tied to the one source of truth for what operations do.
package ie

import (
	"loda/internal/errs"
	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

// IncrementalEvaluator accelerates repeated evaluation of a single program
// across successive input arguments 0, 1, 2, .... One instance is bound to
// one program via Init and must not be reused across unrelated programs
// without a Reset.
type IncrementalEvaluator struct {
	Interp *interp.Interpreter

	preLoop  *lang.Program
	body     *lang.Program
	postLoop *lang.Program

	counterCell   int64
	decrement     int64
	decrementType lang.Type // SUB or TRN
	lowerBound    int64

	inputDependentAfterPreLoop map[int64]bool
	statefulCells              map[int64]bool
	loopCounterDependentCells  map[int64]bool
	outputCells                map[int64]bool

	initialized bool

	// runtime state, keyed by slice = new_loop_count mod decrement.
	argument           int64
	loopStates         map[int64]*mem.Memory
	previousLoopCounts map[int64]int64
	totalLoopSteps     map[int64]int64
	seenSlice          map[int64]bool
}

// New builds an IncrementalEvaluator that executes program fragments using
// interpreter. interpreter's limits (MaxCycles, MaxMemory) apply to every
// fragment run.
func New(interpreter *interp.Interpreter) *IncrementalEvaluator {
	ie := &IncrementalEvaluator{Interp: interpreter}
	ie.Reset()
	return ie
}

// Reset discards both the static analysis and the runtime state.
func (ie *IncrementalEvaluator) Reset() {
	ie.preLoop = nil
	ie.body = nil
	ie.postLoop = nil
	ie.counterCell = 0
	ie.decrement = 0
	ie.decrementType = lang.NOP
	ie.lowerBound = 0
	ie.inputDependentAfterPreLoop = nil
	ie.statefulCells = nil
	ie.loopCounterDependentCells = nil
	ie.outputCells = nil
	ie.initialized = false

	ie.argument = 0
	ie.loopStates = make(map[int64]*mem.Memory)
	ie.previousLoopCounts = make(map[int64]int64)
	ie.totalLoopSteps = make(map[int64]int64)
	ie.seenSlice = make(map[int64]bool)
}

// PreLoop, LoopBody, PostLoop, LoopCounterCell, LoopCounterDecrement,
// StatefulCells, LoopCounterDependentCells and OutputCells expose the static
// analysis for callers that want to inspect why a program was accepted
// (tests, the optimizer's "supports IE" checker-protocol step).
func (ie *IncrementalEvaluator) PreLoop() *lang.Program  { return ie.preLoop }
func (ie *IncrementalEvaluator) LoopBody() *lang.Program { return ie.body }
func (ie *IncrementalEvaluator) PostLoop() *lang.Program { return ie.postLoop }
func (ie *IncrementalEvaluator) LoopCounterCell() int64  { return ie.counterCell }
func (ie *IncrementalEvaluator) LoopCounterDecrement() int64 {
	return ie.decrement
}
func (ie *IncrementalEvaluator) StatefulCells() map[int64]bool {
	return ie.statefulCells
}
func (ie *IncrementalEvaluator) LoopCounterDependentCells() map[int64]bool {
	return ie.loopCounterDependentCells
}
func (ie *IncrementalEvaluator) OutputCells() map[int64]bool { return ie.outputCells }

// Next computes the next term (in argument order, starting at 0) and the
// number of interpreter steps it consumed.
func (ie *IncrementalEvaluator) Next() (number.Number, int64, error) {
	if !ie.initialized {
		return number.Number{}, 0, errs.New(errs.UnsupportedByIE, "ie: Next called before a successful Init")
	}

	preMem := mem.New()
	if err := preMem.Set(lang.InputCell, number.FromInt64(ie.argument)); err != nil {
		return number.Number{}, 0, err
	}
	preSteps, err := ie.Interp.Run(ie.preLoop, preMem)
	if err != nil {
		return number.Number{}, 0, err
	}
	counterVal, err := preMem.Get(ie.counterCell)
	if err != nil {
		return number.Number{}, 0, err
	}
	counter, ok := counterVal.Int64()
	if !ok || counter < 0 {
		return number.Number{}, 0, errs.New(errs.MaxCyclesExceeded, "ie: loop counter exceeds representable range")
	}

	newLoopCount := counter - ie.lowerBound
	if newLoopCount < 0 {
		newLoopCount = 0
	}
	slice := newLoopCount % ie.decrement

	prev := ie.previousLoopCounts[slice]
	additionalLoops := (newLoopCount - prev) / ie.decrement
	if !ie.seenSlice[slice] {
		if ie.decrementType == lang.TRN || (ie.lowerBound != 0 && newLoopCount%ie.decrement != 0) {
			additionalLoops++
		}
	}
	if additionalLoops < 0 {
		additionalLoops = 0
	}

	state, ok := ie.loopStates[slice]
	if !ok {
		state = preMem.Clone()
		ie.loopStates[slice] = state
	} else {
		for cell, dep := range ie.inputDependentAfterPreLoop {
			if !dep {
				continue
			}
			v, err := preMem.Get(cell)
			if err != nil {
				return number.Number{}, 0, err
			}
			if err := state.Set(cell, v); err != nil {
				return number.Number{}, 0, err
			}
		}
	}

	var bodySteps int64
	for i := int64(0); i < additionalLoops; i++ {
		s, err := ie.Interp.Run(ie.body, state)
		if err != nil {
			return number.Number{}, 0, err
		}
		bodySteps += s
	}
	ie.totalLoopSteps[slice] += bodySteps

	var finalCounter int64
	if ie.decrementType == lang.SUB && ie.lowerBound == 0 {
		finalCounter = slice
	} else {
		finalCounter = ie.lowerBound
	}
	if counter < finalCounter {
		finalCounter = counter
	}

	// The real interpreter always attempts one more body iteration before
	// its progress check fails and it rolls the attempt back: that attempt
	// still costs steps, but its effects never reach post_loop. Charge the
	// steps on a throwaway copy and run post_loop against the state as it
	// stood right before the attempt, with the counter cell set to its true
	// loop-exit value.
	scratch := state.Clone()
	extraSteps, err := ie.Interp.Run(ie.body, scratch)
	if err != nil {
		return number.Number{}, 0, err
	}

	tail := state.Clone()
	if err := tail.Set(ie.counterCell, number.FromInt64(finalCounter)); err != nil {
		return number.Number{}, 0, err
	}
	postSteps, err := ie.Interp.Run(ie.postLoop, tail)
	if err != nil {
		return number.Number{}, 0, err
	}
	result, err := tail.Get(lang.OutputCell)
	if err != nil {
		return number.Number{}, 0, err
	}

	ie.previousLoopCounts[slice] = newLoopCount
	ie.seenSlice[slice] = true
	ie.argument++

	totalSteps := preSteps + ie.totalLoopSteps[slice] + extraSteps + postSteps
	return result, totalSteps, nil
}
