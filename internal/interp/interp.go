package interp

import (
	"github.com/google/uuid"

	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

// Number is an alias kept local to this package for readability.
type Number = number.Number

// Limits bounds a single Interpreter's resource usage.
type Limits struct {
	MaxCycles    int64 // 0 means unlimited
	MaxMemory    int64 // 0 means unlimited
	MaxLoopDepth int   // 0 uses DefaultMaxLoopDepth
}

// DefaultMaxLoopDepth bounds the number of simultaneously open loops,
// preventing pathological nesting from exhausting the loop stack.
const DefaultMaxLoopDepth = 100

// DefaultMemoizeProbeEvery is how often (in term-cache inserts) the
// interpreter re-queries its memory-budget hook.
const DefaultMemoizeProbeEvery = 10000

// DebugSink receives formatted dumps emitted by the DBG operation. A nil
// sink makes DBG a pure no-op (still consuming a cycle).
type DebugSink interface {
	Debug(runID uuid.UUID, pc int, m *mem.Memory)
}

// HaltFunc is polled once per executed step; a true result aborts the run
// with Interrupted. It models the sticky external halt signal of §5.
type HaltFunc func() bool

// MemoryBudgetHook reports whether the term-memoization cache may keep
// growing. It is re-queried every DefaultMemoizeProbeEvery inserts.
type MemoryBudgetHook func() bool

// Interpreter executes programs against Memory. One instance owns its own
// program cache and term-memoization cache and must not be shared across
// goroutines; §5 requires each concurrent worker to own an independent
// instance.
type Interpreter struct {
	Limits     Limits
	Programs   ProgramCache
	Halt       HaltFunc
	BudgetHook MemoryBudgetHook
	Debug      DebugSink

	running      map[int64]bool
	programCache map[int64]*lang.Program
	terms        map[termKey]termEntry
	termInserts  int64
	termsFull    bool
}

// New builds an Interpreter. programs may be nil if the interpreter never
// executes SEQ/PRG.
func New(limits Limits, programs ProgramCache) *Interpreter {
	if limits.MaxLoopDepth == 0 {
		limits.MaxLoopDepth = DefaultMaxLoopDepth
	}
	return &Interpreter{
		Limits:       limits,
		Programs:     programs,
		running:      make(map[int64]bool),
		programCache: make(map[int64]*lang.Program),
		terms:        make(map[termKey]termEntry),
	}
}

// ClearCaches drops the program and term caches. Their lifetime otherwise
// equals the Interpreter instance.
func (in *Interpreter) ClearCaches() {
	in.programCache = make(map[int64]*lang.Program)
	in.terms = make(map[termKey]termEntry)
	in.termInserts = 0
	in.termsFull = false
}

func (in *Interpreter) lookupProgram(id int64) (*lang.Program, error) {
	if p, ok := in.programCache[id]; ok {
		return p, nil
	}
	if in.Programs == nil {
		return nil, errNoProgramCache
	}
	p, err := in.Programs.Get(id)
	if err != nil {
		return nil, err
	}
	in.programCache[id] = p
	return p, nil
}
