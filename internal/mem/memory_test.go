package mem

import (
	"testing"

	"loda/internal/number"
)

func TestSetZeroErasesEntry(t *testing.T) {
	m := New()
	if err := m.Set(20, number.FromInt64(5)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(20, number.Zero); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := m.overflow[20]; ok {
		t.Errorf("expected overflow entry erased after zero write")
	}
	v, err := m.Get(20)
	if err != nil || !v.Eq(number.Zero) {
		t.Errorf("Get(20) = %v, %v; want 0, nil", v, err)
	}
}

func TestNegativeIndex(t *testing.T) {
	m := New()
	if _, err := m.Get(-1); err != ErrNegativeIndex {
		t.Errorf("expected ErrNegativeIndex, got %v", err)
	}
	if err := m.Set(-1, number.One); err != ErrNegativeIndex {
		t.Errorf("expected ErrNegativeIndex, got %v", err)
	}
}

func TestFragmentRoundTrip(t *testing.T) {
	m := New()
	for i := int64(0); i < 5; i++ {
		m.Set(10+i, number.FromInt64(i*i))
	}
	orig := m.Clone()

	f, err := m.Fragment(10, 5)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	// Mutate the live window, then restore from the fragment.
	for i := int64(0); i < 5; i++ {
		m.Set(10+i, number.FromInt64(999))
	}
	if err := m.WriteFragment(10, f, 5); err != nil {
		t.Fatalf("WriteFragment: %v", err)
	}
	if !m.Eq(orig) {
		t.Errorf("fragment round trip did not restore original window")
	}
}

func TestIsLess(t *testing.T) {
	a := New()
	b := New()
	a.Set(0, number.FromInt64(1))
	b.Set(0, number.FromInt64(2))
	less, err := a.IsLess(b, 1, false)
	if err != nil || !less {
		t.Errorf("IsLess = %v, %v; want true, nil", less, err)
	}

	a.Set(0, number.FromInt64(-1))
	less, err = a.IsLess(b, 1, true)
	if err != nil || less {
		t.Errorf("IsLess with negative cell under check_non_negative should be false, got %v, %v", less, err)
	}
}

func TestCloneIndependence(t *testing.T) {
	m := New()
	m.Set(0, number.FromInt64(1))
	c := m.Clone()
	m.Set(0, number.FromInt64(2))
	v, _ := c.Get(0)
	if !v.Eq(number.FromInt64(1)) {
		t.Errorf("clone should be independent of original, got %v", v)
	}
}
