// Package matcher implements the Matcher Index of §4.7: given a newly
// evaluated candidate sequence, it finds catalog IDs whose registered
// sequences are related under a restorable reducer, and extends the
// candidate program into one that reproduces the exact match.
package matcher

import (
	"math/rand"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"loda/internal/lang"
	"loda/internal/number"
)

// Hit is one successful extension: the catalog id it matched and the
// extended program.
type Hit struct {
	ID      int64
	Program *lang.Program
}

// reduceFunc normalizes seq to a canonical form, returning the reduced
// sequence and the data needed to invert the reduction. match distinguishes
// registration (false) from probing (true): some reducers only accept
// sequences for registration that satisfy a stricter precondition.
type reduceFunc func(seq lang.Sequence, match bool) (lang.Sequence, any)

// extendFunc rewrites p in place so that, having produced the reduced
// sequence under "gen" data, it instead produces the sequence registered
// under "base" data. Reports whether the rewrite succeeded.
type extendFunc func(p *lang.Program, base, gen any) bool

// Matcher is a single reducer/extender pair plus its index: the reduced
// form maps to candidate ids, and each id's original reducer data is
// cached so match() can invert the reduction for each hit.
type Matcher struct {
	name    string
	reduce  reduceFunc
	extend  extendFunc
	backoff bool

	ids  map[string][]int64
	data map[int64]any

	attempted map[string]bool
}

// Name returns the matcher's identifying name ("direct", "linear1", ...).
func (m *Matcher) Name() string { return m.name }

// newMatcher builds a Matcher from its reduce/extend pair.
func newMatcher(name string, backoff bool, reduce reduceFunc, extend extendFunc) *Matcher {
	return &Matcher{
		name:      name,
		reduce:    reduce,
		extend:    extend,
		backoff:   backoff,
		ids:       make(map[string][]int64),
		data:      make(map[int64]any),
		attempted: make(map[string]bool),
	}
}

// NewDirect builds the identity matcher: it only finds exact duplicates.
func NewDirect(backoff bool) *Matcher {
	return newMatcher("direct", backoff,
		func(seq lang.Sequence, match bool) (lang.Sequence, any) { return seq, nil },
		func(p *lang.Program, base, gen any) bool { return true },
	)
}

// NewLinear1 builds the linear1 matcher (offset stripped, then shrunk).
func NewLinear1(backoff bool) *Matcher {
	return newMatcher("linear1", backoff,
		func(seq lang.Sequence, match bool) (lang.Sequence, any) {
			terms := cloneTerms(seq)
			line := reduceLinear(terms)
			return lang.NewSequence(terms...), line
		},
		func(p *lang.Program, base, gen any) bool {
			return extendLinear(p, gen.(Line), base.(Line))
		},
	)
}

// NewLinear2 builds the linear2 matcher (shrunk, then offset stripped).
func NewLinear2(backoff bool) *Matcher {
	return newMatcher("linear2", backoff,
		func(seq lang.Sequence, match bool) (lang.Sequence, any) {
			terms := cloneTerms(seq)
			line := reduceLinear2(terms)
			return lang.NewSequence(terms...), line
		},
		func(p *lang.Program, base, gen any) bool {
			return extendLinear2(p, gen.(Line), base.(Line))
		},
	)
}

// NewDelta builds the delta matcher (up to 4 rounds of first-differencing,
// then a linear1 reduction of what remains).
func NewDelta(backoff bool) *Matcher {
	return newMatcher("delta", backoff,
		func(seq lang.Sequence, match bool) (lang.Sequence, any) {
			terms := cloneTerms(seq)
			d := reduceDelta(terms)
			return lang.NewSequence(terms...), d
		},
		func(p *lang.Program, base, gen any) bool {
			b, g := base.(Delta), gen.(Delta)
			if b.Offset.Eq(g.Offset) && b.Factor.Eq(g.Factor) {
				return extendDeltaIt(p, b.Steps-g.Steps)
			}
			if !extendDeltaIt(p, -g.Steps) {
				return false
			}
			if !extendLinear(p, Line{Offset: g.Offset, Factor: g.Factor}, Line{Offset: b.Offset, Factor: b.Factor}) {
				return false
			}
			return extendDeltaIt(p, b.Steps)
		},
	)
}

// NewDigit builds a digit matcher for the given base (2 for binary, 10 for
// decimal): values are taken modulo base, remembering the rotation that
// maximized the count of the most frequent residue.
func NewDigit(name string, numDigits int64, backoff bool) *Matcher {
	return newMatcher(name, backoff,
		func(seq lang.Sequence, match bool) (lang.Sequence, any) {
			terms := cloneTerms(seq)
			index := reduceDigit(terms, numDigits)
			reduced := lang.NewSequence(terms...)
			if !match && !allDigitsInRange(seq, numDigits) {
				reduced = lang.Sequence{}
			}
			return reduced, index
		},
		func(p *lang.Program, base, gen any) bool {
			return extendDigit(p, numDigits, base.(int64)-gen.(int64))
		},
	)
}

func cloneTerms(seq lang.Sequence) []number.Number {
	out := make([]number.Number, len(seq.Terms))
	copy(out, seq.Terms)
	return out
}

// Insert registers id under norm_seq's reduced form. No-op if the reducer
// rejects the sequence (an empty reduced form).
func (m *Matcher) Insert(seq lang.Sequence, id int64) {
	reduced, data := m.reduce(seq, false)
	if reduced.Len() == 0 {
		return
	}
	key := reduced.String()
	m.data[id] = data
	m.ids[key] = append(m.ids[key], id)
}

// Remove undoes a prior Insert for the same (seq, id) pair.
func (m *Matcher) Remove(seq lang.Sequence, id int64) {
	reduced, _ := m.reduce(seq, false)
	if reduced.Len() == 0 {
		return
	}
	key := reduced.String()
	ids := m.ids[key]
	for i, v := range ids {
		if v == id {
			m.ids[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(m.data, id)
}

// Match reduces seq, looks up its reduced form, and for each registered id
// attempts to extend a copy of p into one reproducing the id's original
// sequence. Backoff (when enabled) skips sequences recently probed and
// randomly stops scanning a hit list early, matching the source's "avoid
// too many matches for the same sequence" policy.
func (m *Matcher) Match(p *lang.Program, seq lang.Sequence) []Hit {
	if !m.shouldMatch(seq) {
		return nil
	}
	reduced, genData := m.reduce(seq, true)
	if !m.shouldMatch(reduced) && !seq.Eq(reduced) {
		return nil
	}
	key := reduced.String()
	ids, ok := m.ids[key]
	if !ok {
		return nil
	}
	var result []Hit
	for _, id := range ids {
		candidate := p.Clone()
		if m.extend(candidate, m.data[id], genData) {
			result = append(result, Hit{ID: id, Program: candidate})
			if m.backoff && rand.Intn(10) == 0 {
				break
			}
		}
	}
	return result
}

// shouldMatch applies the backoff policy: once a sequence has been
// recorded as attempted it is skipped thereafter, with a 10% chance of
// being recorded on any given probe (bounding attempted's size at 1000
// entries, mirroring the source's magic numbers).
func (m *Matcher) shouldMatch(seq lang.Sequence) bool {
	if !m.backoff {
		return true
	}
	key := seq.String()
	if m.attempted[key] {
		return false
	}
	if len(m.attempted) < 1000 && rand.Intn(10) == 0 {
		m.attempted[key] = true
	}
	return true
}

// CompactionRatio reports, as a percentage, how much the index collapses
// distinct sequences into shared buckets: 0 means every registered
// sequence reduced to a distinct key, and the value approaches 100 as ids
// collapse onto fewer keys.
func (m *Matcher) CompactionRatio() float64 {
	total := 0
	for _, ids := range m.ids {
		total += len(ids)
	}
	if total == 0 {
		return 100
	}
	return 100.0 - (100.0 * float64(len(m.ids)) / float64(total))
}

// Index holds a fixed set of matchers (one per reducer) and fans Insert,
// Remove, and Match out across all of them, the way a miner worker
// consults every configured matcher for each candidate sequence.
type Index struct {
	matchers []*Matcher
}

// NewIndex builds an Index from the given matchers, applied in the given
// order (the order Match returns results in).
func NewIndex(matchers ...*Matcher) *Index {
	return &Index{matchers: matchers}
}

// Default builds the standard Index used by the miner: direct, linear1,
// linear2, delta, binary, and decimal, all with backoff enabled.
func Default() *Index {
	return NewIndex(
		NewDirect(true),
		NewLinear1(true),
		NewLinear2(true),
		NewDelta(true),
		NewDigit("binary", 2, true),
		NewDigit("decimal", 10, true),
	)
}

// Insert registers id under seq in every matcher.
func (idx *Index) Insert(seq lang.Sequence, id int64) {
	for _, m := range idx.matchers {
		m.Insert(seq, id)
	}
}

// Remove undoes Insert in every matcher.
func (idx *Index) Remove(seq lang.Sequence, id int64) {
	for _, m := range idx.matchers {
		m.Remove(seq, id)
	}
}

// Match probes every matcher and concatenates their hits, matcher by
// matcher in registration order, each matcher's hits in ascending id
// order.
func (idx *Index) Match(p *lang.Program, seq lang.Sequence) []Hit {
	var result []Hit
	for _, m := range idx.matchers {
		hits := m.Match(p, seq)
		slices.SortFunc(hits, func(a, b Hit) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			default:
				return 0
			}
		})
		result = append(result, hits...)
	}
	return result
}

// Names returns the configured matcher names in registration order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.matchers))
	for i, m := range idx.matchers {
		names[i] = m.name
	}
	return names
}

// SortedKeys returns the matcher's reduced-form keys in sorted order, for
// callers that want deterministic iteration over its id buckets (e.g. a
// reporter printing compaction statistics per bucket).
func (m *Matcher) SortedKeys() []string {
	keys := maps.Keys(m.ids)
	slices.Sort(keys)
	return keys
}
