package lang

// Type enumerates the fixed set of operation types the language supports.
// The zero value, NOP, is the no-op; it and comment-only lines contribute
// zero steps but round-trip through parse/print.
type Type int

const (
	NOP Type = iota
	MOV
	ADD
	SUB
	TRN
	MUL
	DIV
	DIF
	DIR
	MOD
	POW
	GCD
	LEX
	BIN
	FAC
	LOG
	NRT
	DGS
	DGR
	EQU
	NEQ
	LEQ
	GEQ
	MIN
	MAX
	BAN
	BOR
	BXO
	LPB
	LPE
	CLR
	SEQ
	PRG
	DBG
)

// Arity is the number of operands an operation type consumes: 0 (ignores
// both), 1 (uses only target), or 2 (uses target and source).
type Arity int

const (
	Arity0 Arity = iota
	Arity1
	Arity2
)

// TypeInfo is the immutable per-type metadata record: short mnemonic,
// arity, and the read/write/visibility flags the interpreter and parser
// consult.
type TypeInfo struct {
	Name            string
	Arity           Arity
	IsReadingTarget bool
	IsWritingTarget bool
	IsPublic        bool
}

// typeTable is the fixed, indexed metadata array keyed by Type, mirroring
// the source's operation-type switch cascade as a dispatch table instead.
var typeTable = [...]TypeInfo{
	NOP: {"nop", Arity0, false, false, false},
	MOV: {"mov", Arity2, false, true, true},
	ADD: {"add", Arity2, true, true, true},
	SUB: {"sub", Arity2, true, true, true},
	TRN: {"trn", Arity2, true, true, true},
	MUL: {"mul", Arity2, true, true, true},
	DIV: {"div", Arity2, true, true, true},
	DIF: {"dif", Arity2, true, true, true},
	DIR: {"dir", Arity2, true, true, true},
	MOD: {"mod", Arity2, true, true, true},
	POW: {"pow", Arity2, true, true, true},
	GCD: {"gcd", Arity2, true, true, true},
	LEX: {"lex", Arity2, true, true, true},
	BIN: {"bin", Arity2, true, true, true},
	FAC: {"fac", Arity2, true, true, true},
	LOG: {"log", Arity2, true, true, true},
	NRT: {"nrt", Arity2, true, true, true},
	DGS: {"dgs", Arity2, true, true, true},
	DGR: {"dgr", Arity2, true, true, true},
	EQU: {"equ", Arity2, true, true, true},
	NEQ: {"neq", Arity2, true, true, true},
	LEQ: {"leq", Arity2, true, true, true},
	GEQ: {"geq", Arity2, true, true, true},
	MIN: {"min", Arity2, true, true, true},
	MAX: {"max", Arity2, true, true, true},
	BAN: {"ban", Arity2, true, true, true},
	BOR: {"bor", Arity2, true, true, true},
	BXO: {"bxo", Arity2, true, true, true},
	LPB: {"lpb", Arity2, true, false, true},
	LPE: {"lpe", Arity0, false, false, true},
	CLR: {"clr", Arity2, false, true, true},
	SEQ: {"seq", Arity2, true, true, true},
	PRG: {"prg", Arity2, true, true, true},
	DBG: {"dbg", Arity0, false, false, false},
}

var mnemonicToType map[string]Type

func init() {
	mnemonicToType = make(map[string]Type, len(typeTable))
	for t, info := range typeTable {
		mnemonicToType[info.Name] = Type(t)
	}
}

// Info returns the metadata record for t.
func (t Type) Info() TypeInfo { return typeTable[t] }

// String returns the lowercase mnemonic, e.g. "mov".
func (t Type) String() string { return typeTable[t].Name }

// TypeByMnemonic resolves a mnemonic (already lowercase) to its Type.
func TypeByMnemonic(s string) (Type, bool) {
	t, ok := mnemonicToType[s]
	return t, ok
}

// Operation is one instruction: a type, target/source operands (unused
// operands retain their zero Operand when the type's arity doesn't need
// them), and an optional trailing comment.
type Operation struct {
	Type    Type
	Target  Operand
	Source  Operand
	Comment string
}

// Eq reports equality ignoring comments, per the Program equality rule in
// the data model.
func (o Operation) Eq(other Operation) bool {
	if o.Type != other.Type {
		return false
	}
	info := o.Type.Info()
	if info.Arity >= Arity1 && !o.Target.Eq(other.Target) {
		return false
	}
	if info.Arity >= Arity2 && !o.Source.Eq(other.Source) {
		return false
	}
	return true
}

// Less gives operations the total order used for lexicographic Program
// comparison: by type, then target, then source.
func (o Operation) Less(other Operation) bool {
	if o.Type != other.Type {
		return o.Type < other.Type
	}
	if !o.Target.Eq(other.Target) {
		return o.Target.Less(other.Target)
	}
	return o.Source.Less(other.Source)
}

// IsNop reports whether the operation contributes no steps: a bare NOP, or
// (equivalently, for the writer/parser) a comment-only line represented as
// NOP with a comment.
func (o Operation) IsNop() bool { return o.Type == NOP }
