package interp

import (
	"github.com/google/uuid"

	"loda/internal/errs"
	"loda/internal/lang"
	"loda/internal/mem"
)

// Run executes program against memory and returns the number of steps
// consumed. Before the first operation executes, the input must already be
// present at lang.InputCell; the result is read from lang.OutputCell by the
// caller after Run returns.
func (in *Interpreter) Run(program *lang.Program, memory *mem.Memory) (int64, error) {
	return in.RunWithID(program, memory, -1)
}

// RunWithID is the tagged overload: id participates in the recursion guard
// the same way a SEQ/PRG callee id does, so a top-level invocation of
// program P under catalog id N will itself trip Recursion if P calls back
// into N through SEQ/PRG.
func (in *Interpreter) RunWithID(program *lang.Program, memory *mem.Memory, id int64) (int64, error) {
	if id >= 0 {
		if in.running[id] {
			return 0, errs.Newf(errs.Recursion, "program %d is already running", id)
		}
		in.running[id] = true
		defer delete(in.running, id)
	}
	return in.execute(program, memory, uuid.New())
}

type loopFrame struct {
	simple   bool
	pc       int // index of the LPB that opened this frame
	target   lang.Operand
	source   lang.Operand
	counter  Number    // simple mode: last-seen counter value
	start    int64     // region mode: fragment start
	length   int64     // region mode: fragment length
	fragment *mem.Memory // region mode: last-saved fragment
	snapshot *mem.Memory // full-memory rollback point, both modes
}

func (in *Interpreter) execute(program *lang.Program, memory *mem.Memory, runID uuid.UUID) (int64, error) {
	var cycles int64
	var loopStack []loopFrame
	maxLoopDepth := in.Limits.MaxLoopDepth
	if maxLoopDepth == 0 {
		maxLoopDepth = DefaultMaxLoopDepth
	}

	charge := func(n int64) error {
		cycles += n
		if in.Limits.MaxCycles > 0 && cycles > in.Limits.MaxCycles {
			return errs.New(errs.MaxCyclesExceeded, "cycle budget exceeded")
		}
		return nil
	}

	pc := 0
	for pc < len(program.Ops) {
		if in.Halt != nil && in.Halt() {
			return cycles, errs.New(errs.Interrupted, "halted")
		}
		op := program.Ops[pc]

		switch op.Type {
		case lang.NOP:
			pc++
			continue

		case lang.LPB:
			if len(loopStack) >= maxLoopDepth {
				return cycles, errs.New(errs.StackOverflow, "loop nesting exceeds limit")
			}
			frame, err := in.pushLoop(op, pc, memory)
			if err != nil {
				return cycles, err
			}
			loopStack = append(loopStack, frame)
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc++

		case lang.LPE:
			if len(loopStack) == 0 {
				return cycles, errs.New(errs.UnbalancedLoops, "lpe without matching lpb")
			}
			next, _, err := in.closeLoop(&loopStack, memory, pc)
			if err != nil {
				return cycles, err
			}
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc = next

		case lang.CLR:
			if err := in.execClr(op, memory); err != nil {
				return cycles, err
			}
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc++

		case lang.SEQ:
			steps, err := in.execSeq(op, memory)
			if err != nil {
				return cycles, err
			}
			if err := charge(steps); err != nil {
				return cycles, err
			}
			pc++

		case lang.PRG:
			steps, err := in.execPrg(op, memory)
			if err != nil {
				return cycles, err
			}
			if err := charge(steps); err != nil {
				return cycles, err
			}
			pc++

		case lang.DBG:
			if in.Debug != nil {
				in.Debug.Debug(runID, pc, memory)
			}
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc++

		case lang.MOV:
			v, err := in.resolveRead(op.Source, memory)
			if err != nil {
				return cycles, err
			}
			if err := in.writeTarget(op.Target, v, memory); err != nil {
				return cycles, err
			}
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc++

		default:
			fn, ok := dispatch[op.Type]
			if !ok {
				return cycles, errs.Newf(errs.InvalidOperand, "unsupported operation %s", op.Type)
			}
			a, err := in.resolveRead(op.Target, memory)
			if err != nil {
				return cycles, err
			}
			b, err := in.resolveRead(op.Source, memory)
			if err != nil {
				return cycles, err
			}
			v := fn(a, b)
			if err := in.writeTarget(op.Target, v, memory); err != nil {
				return cycles, err
			}
			if err := charge(1); err != nil {
				return cycles, err
			}
			pc++
		}
	}
	return cycles, nil
}

// resolveRead evaluates an operand to its current Number value.
func (in *Interpreter) resolveRead(op lang.Operand, memory *mem.Memory) (Number, error) {
	switch op.Type {
	case lang.Constant:
		return op.Value, nil
	case lang.Direct:
		k, ok := op.Value.Int64()
		if !ok || k < 0 {
			return Number{}, negativeIndexErr()
		}
		return memory.Get(k)
	case lang.Indirect:
		k, ok := op.Value.Int64()
		if !ok || k < 0 {
			return Number{}, negativeIndexErr()
		}
		addrNum, err := memory.Get(k)
		if err != nil {
			return Number{}, err
		}
		addr, ok := addrNum.Int64()
		if !ok || addr < 0 {
			return Number{}, negativeIndexErr()
		}
		return memory.Get(addr)
	default:
		return Number{}, errs.New(errs.InvalidOperand, "unknown operand type")
	}
}

// writeTarget resolves the target address (Direct or Indirect) and writes
// v, enforcing the memory budget and the Overflow rule (writing Inf fails).
func (in *Interpreter) writeTarget(op lang.Operand, v Number, memory *mem.Memory) error {
	if op.Type == lang.Constant {
		return lang.InvalidTargetErr(lang.Operation{Type: lang.MOV, Target: op})
	}
	if v.IsInf() {
		return errs.New(errs.Overflow, "write of INF to a cell")
	}
	addr, err := in.resolveAddress(op, memory)
	if err != nil {
		return err
	}
	if in.Limits.MaxMemory > 0 && addr > in.Limits.MaxMemory {
		return errs.New(errs.MaxMemoryExceeded, "cell index exceeds memory budget")
	}
	if err := memory.Set(addr, v); err != nil {
		if err == mem.ErrNegativeIndex {
			return negativeIndexErr()
		}
		return err
	}
	if in.Limits.MaxMemory > 0 && int64(memory.ApproximateSize()) > in.Limits.MaxMemory {
		return errs.New(errs.MaxMemoryExceeded, "memory size exceeds budget")
	}
	return nil
}

func (in *Interpreter) resolveAddress(op lang.Operand, memory *mem.Memory) (int64, error) {
	switch op.Type {
	case lang.Direct:
		k, ok := op.Value.Int64()
		if !ok || k < 0 {
			return 0, negativeIndexErr()
		}
		return k, nil
	case lang.Indirect:
		k, ok := op.Value.Int64()
		if !ok || k < 0 {
			return 0, negativeIndexErr()
		}
		addrNum, err := memory.Get(k)
		if err != nil {
			return 0, err
		}
		addr, ok := addrNum.Int64()
		if !ok || addr < 0 {
			return 0, negativeIndexErr()
		}
		return addr, nil
	default:
		return 0, errs.New(errs.InvalidOperand, "not a writable operand")
	}
}

func (in *Interpreter) execClr(op lang.Operation, memory *mem.Memory) error {
	start, err := in.resolveAddress(op.Target, memory)
	if err != nil {
		return err
	}
	lengthNum, err := in.resolveRead(op.Source, memory)
	if err != nil {
		return err
	}
	length, ok := lengthNum.Int64()
	if !ok || length < 0 {
		return negativeIndexErr()
	}
	if err := memory.ClearRegion(start, length); err != nil {
		if err == mem.ErrNegativeIndex {
			return negativeIndexErr()
		}
		return err
	}
	return nil
}
