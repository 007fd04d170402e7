package lang

import "loda/internal/errs"

// INPUT_CELL and OUTPUT_CELL name the same cell by convention: the input
// argument is read from it before execution and the result is read from it
// after.
const (
	InputCell  int64 = 0
	OutputCell int64 = 0
)

// Program is an ordered sequence of operations plus a map of directive
// name to integer value (e.g. "offset", "inputs", "outputs").
type Program struct {
	Ops        []Operation
	Directives map[string]int64
}

// New returns an empty Program with no directives.
func New() *Program {
	return &Program{Directives: make(map[string]int64)}
}

// Directive looks up a directive, returning (0, false) if absent.
func (p *Program) Directive(name string) (int64, bool) {
	v, ok := p.Directives[name]
	return v, ok
}

// DirectiveOr returns the directive value, or def if absent.
func (p *Program) DirectiveOr(name string, def int64) int64 {
	if v, ok := p.Directives[name]; ok {
		return v
	}
	return def
}

// SetDirective sets a directive value.
func (p *Program) SetDirective(name string, v int64) {
	if p.Directives == nil {
		p.Directives = make(map[string]int64)
	}
	p.Directives[name] = v
}

// Clone returns a deep, independent copy of the program.
func (p *Program) Clone() *Program {
	c := &Program{
		Ops:        make([]Operation, len(p.Ops)),
		Directives: make(map[string]int64, len(p.Directives)),
	}
	copy(c.Ops, p.Ops)
	for k, v := range p.Directives {
		c.Directives[k] = v
	}
	return c
}

// Eq reports equality ignoring comments (Operation.Eq already does) and
// ignoring directives (directives are metadata about evaluation, not
// program behavior).
func (p *Program) Eq(other *Program) bool {
	if len(p.Ops) != len(other.Ops) {
		return false
	}
	for i := range p.Ops {
		if !p.Ops[i].Eq(other.Ops[i]) {
			return false
		}
	}
	return true
}

// Less gives programs a total (lexicographic) order over their operation
// sequences.
func (p *Program) Less(other *Program) bool {
	n := len(p.Ops)
	if len(other.Ops) < n {
		n = len(other.Ops)
	}
	for i := 0; i < n; i++ {
		if p.Ops[i].Eq(other.Ops[i]) {
			continue
		}
		return p.Ops[i].Less(other.Ops[i])
	}
	return len(p.Ops) < len(other.Ops)
}

// NumOps counts operations, excluding NOPs unless includeNops is set (the size metric the minimizer
// and checker use).
func (p *Program) NumOps(includeNops bool) int {
	if includeNops {
		return len(p.Ops)
	}
	n := 0
	for _, op := range p.Ops {
		if !op.IsNop() {
			n++
		}
	}
	return n
}

// StripNops returns a copy of p with every NOP operation removed.
func (p *Program) StripNops() *Program {
	c := &Program{Directives: p.Directives}
	for _, op := range p.Ops {
		if !op.IsNop() {
			c.Ops = append(c.Ops, op)
		}
	}
	return c
}

// Validate rejects unbalanced LPB/LPE nesting.
func (p *Program) Validate() error {
	depth := 0
	for _, op := range p.Ops {
		switch op.Type {
		case LPB:
			depth++
		case LPE:
			depth--
			if depth < 0 {
				return errs.New(errs.UnbalancedLoops, "lpe without matching lpb")
			}
		}
	}
	if depth != 0 {
		return errs.New(errs.UnbalancedLoops, "lpb without matching lpe")
	}
	return nil
}

// MatchingLpe returns the index of the LPE that closes the LPB at index i,
// or -1 if the program is unbalanced at that point.
func (p *Program) MatchingLpe(i int) int {
	depth := 0
	for j := i; j < len(p.Ops); j++ {
		switch p.Ops[j].Type {
		case LPB:
			depth++
		case LPE:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
