// Package lang defines the program model: operands, operations, programs,
// and directives, plus the text format parser/writer.
package lang

import (
	"fmt"

	"loda/internal/number"
)

// OperandType tags the three operand variants.
type OperandType int

const (
	Constant OperandType = iota
	Direct
	Indirect
)

func (t OperandType) String() string {
	switch t {
	case Constant:
		return "constant"
	case Direct:
		return "direct"
	case Indirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// Operand is a tagged union: a literal Constant, a Direct memory cell
// index, or an Indirect cell (whose index is itself stored in a cell).
type Operand struct {
	Type  OperandType
	Value number.Number
}

// NewConstant builds a Constant operand.
func NewConstant(n number.Number) Operand { return Operand{Type: Constant, Value: n} }

// NewDirect builds a Direct operand referencing cell k (k must be >= 0).
func NewDirect(k number.Number) Operand { return Operand{Type: Direct, Value: k} }

// NewIndirect builds an Indirect operand referencing cell k (k must be >= 0).
func NewIndirect(k number.Number) Operand { return Operand{Type: Indirect, Value: k} }

// Eq reports structural equality (type and value).
func (o Operand) Eq(other Operand) bool {
	return o.Type == other.Type && o.Value.Eq(other.Value)
}

// Less gives the operands a total order: first by type, then by value,
// used when comparing programs lexicographically.
func (o Operand) Less(other Operand) bool {
	if o.Type != other.Type {
		return o.Type < other.Type
	}
	return o.Value.Less(other.Value)
}

// String renders the operand using the text format conventions: a bare
// literal for Constant, "$k" for Direct, "$$k" for Indirect.
func (o Operand) String() string {
	switch o.Type {
	case Constant:
		return o.Value.String()
	case Direct:
		return fmt.Sprintf("$%s", o.Value)
	case Indirect:
		return fmt.Sprintf("$$%s", o.Value)
	default:
		return "?"
	}
}
