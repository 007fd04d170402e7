// Package mem implements the sparse, cell-indexed Memory used by the
// interpreter: a small dense prefix plus an overflow map, following the
// source interpreter's memory layout.
package mem

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"loda/internal/number"
)

// denseSize is the size of the fast inline prefix. Cells beyond it live in
// the overflow map. This only affects performance, never correctness.
const denseSize = 16

// Memory is a sparse mapping from non-negative cell indices to Number.
// The zero value is a valid, empty Memory.
type Memory struct {
	dense    [denseSize]number.Number
	denseSet [denseSize]bool
	overflow map[int64]number.Number
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{}
}

// Get reads cell k, returning the default (zero) if unset. Negative indices
// are a caller error (ErrNegativeIndex).
func (m *Memory) Get(k int64) (number.Number, error) {
	if k < 0 {
		return number.Number{}, ErrNegativeIndex
	}
	if k < denseSize {
		if m.denseSet[k] {
			return m.dense[k], nil
		}
		return number.Zero, nil
	}
	if m.overflow != nil {
		if v, ok := m.overflow[k]; ok {
			return v, nil
		}
	}
	return number.Zero, nil
}

// Set writes cell k. Writing ZERO erases any stored entry so the sparse
// representation never grows for zero writes.
func (m *Memory) Set(k int64, v number.Number) error {
	if k < 0 {
		return ErrNegativeIndex
	}
	if k < denseSize {
		if v.IsZero() {
			m.dense[k] = number.Number{}
			m.denseSet[k] = false
			return nil
		}
		m.dense[k] = v
		m.denseSet[k] = true
		return nil
	}
	if v.IsZero() {
		if m.overflow != nil {
			delete(m.overflow, k)
		}
		return nil
	}
	if m.overflow == nil {
		m.overflow = make(map[int64]number.Number)
	}
	m.overflow[k] = v
	return nil
}

// Clear zeroes cell k.
func (m *Memory) Clear(k int64) error {
	return m.Set(k, number.Zero)
}

// ClearRegion zeroes cells [start, start+length).
func (m *Memory) ClearRegion(start, length int64) error {
	for i := int64(0); i < length; i++ {
		if err := m.Clear(start + i); err != nil {
			return err
		}
	}
	return nil
}

// Fragment returns a shifted copy of the window [start, start+length): the
// value previously at start+i now lives at index i in the returned Memory.
// Used to snapshot loop counters for region-mode loops.
func (m *Memory) Fragment(start, length int64) (*Memory, error) {
	f := New()
	for i := int64(0); i < length; i++ {
		v, err := m.Get(start + i)
		if err != nil {
			return nil, err
		}
		if err := f.Set(i, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteFragment writes f back into the window starting at start, the
// inverse of Fragment (restores the window when f == original.Fragment).
func (m *Memory) WriteFragment(start int64, f *Memory, length int64) error {
	for i := int64(0); i < length; i++ {
		v, err := f.Get(i)
		if err != nil {
			return err
		}
		if err := m.Set(start+i, v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep, independent copy.
func (m *Memory) Clone() *Memory {
	c := &Memory{dense: m.dense, denseSet: m.denseSet}
	if m.overflow != nil {
		c.overflow = maps.Clone(m.overflow)
	}
	return c
}

// Eq reports whether two memories hold identical values everywhere.
func (m *Memory) Eq(o *Memory) bool {
	for i := 0; i < denseSize; i++ {
		av, _ := m.Get(int64(i))
		bv, _ := o.Get(int64(i))
		if !av.Eq(bv) {
			return false
		}
	}
	keys := make(map[int64]struct{})
	for k := range m.overflow {
		keys[k] = struct{}{}
	}
	for k := range o.overflow {
		keys[k] = struct{}{}
	}
	for k := range keys {
		av, _ := m.Get(k)
		bv, _ := o.Get(k)
		if !av.Eq(bv) {
			return false
		}
	}
	return true
}

// IsLess implements the lexicographic comparison on cells [0,length) used
// by region-mode loop termination. If checkNonNegative is set, any negative
// cell on the receiver's side forces "not less" (the region is considered
// to have escaped its valid domain rather than making progress).
func (m *Memory) IsLess(o *Memory, length int64, checkNonNegative bool) (bool, error) {
	if checkNonNegative {
		for i := int64(0); i < length; i++ {
			v, err := m.Get(i)
			if err != nil {
				return false, err
			}
			if v.IsNegative() {
				return false, nil
			}
		}
	}
	for i := int64(0); i < length; i++ {
		av, err := m.Get(i)
		if err != nil {
			return false, err
		}
		bv, err := o.Get(i)
		if err != nil {
			return false, err
		}
		if av.Eq(bv) {
			continue
		}
		return av.Less(bv), nil
	}
	return false, nil
}

// ApproximateSize is dense_size + overflow_size: used only for the memory
// budget check, never for correctness.
func (m *Memory) ApproximateSize() int {
	n := 0
	for i := 0; i < denseSize; i++ {
		if m.denseSet[i] {
			n++
		}
	}
	return n + len(m.overflow)
}

// MaxIndex returns the highest index with a non-default entry, or -1 if
// Memory is entirely zero.
func (m *Memory) MaxIndex() int64 {
	max := int64(-1)
	for i := denseSize - 1; i >= 0; i-- {
		if m.denseSet[i] {
			if int64(i) > max {
				max = int64(i)
			}
			break
		}
	}
	for k := range m.overflow {
		if k > max {
			max = k
		}
	}
	return max
}

// String renders a debug dump sorted by index, e.g. "$0=1 $3=42".
func (m *Memory) String() string {
	var keys []int64
	for i := 0; i < denseSize; i++ {
		if m.denseSet[i] {
			keys = append(keys, int64(i))
		}
	}
	keys = append(keys, maps.Keys(m.overflow)...)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		v, _ := m.Get(k)
		s += fmt.Sprintf("$%d=%s", k, v)
	}
	return s
}
