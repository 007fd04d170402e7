// Package eval implements the Evaluator façade of §6: it wraps an
// Interpreter (and, optionally, the Incremental Evaluator) behind the two
// operations callers actually need — eval and check — the way the
// teacher's own VM exposes a small façade over its instruction dispatch
// rather than making callers drive the interpreter loop themselves.
package eval

import (
	"fmt"
	"time"

	"loda/internal/errs"
	"loda/internal/ie"
	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/rangean"
)

// Settings configures an Evaluator. A zero Settings is usable: NumTerms
// defaults to DefaultNumTerms, MaxEvalSecs<=0 disables the wall-clock
// budget.
type Settings struct {
	NumTerms     int64
	UseIncEval   bool
	CheckRange   bool
	MaxEvalSecs  int64
	PrintAsBFile bool
	UseSteps     bool
}

// DefaultNumTerms is the term count New puts in Settings.NumTerms when it is
// not positive.
const DefaultNumTerms = 10

// Status is the three-valued verdict check returns.
type Status string

const (
	OK      Status = "OK"
	WARNING Status = "WARNING"
	ERROR   Status = "ERROR"
)

// Steps accumulates step-count statistics across a run of eval/check calls,
// mirroring the teacher's own running min/max/total/runs counters.
type Steps struct {
	Min, Max, Total int64
	Runs            int64
}

func (s *Steps) add(n int64) {
	if s.Runs == 0 || n < s.Min {
		s.Min = n
	}
	if n > s.Max {
		s.Max = n
	}
	s.Total += n
	s.Runs++
}

// Evaluator is the façade §6 names: eval populates a Sequence, check
// compares one against a reference with a step and range budget. One
// Evaluator owns one Interpreter and must not be shared across goroutines,
// matching §5's "each concurrent worker owns its own interpreter".
type Evaluator struct {
	Settings  Settings
	Interp    *interp.Interpreter
	Ranges    *rangean.Analyzer
	incEval   *ie.IncrementalEvaluator
	startTime time.Time
}

// New builds an Evaluator around interp. ranges may be nil, which disables
// CheckRange regardless of Settings.
func New(settings Settings, interpreter *interp.Interpreter, ranges *rangean.Analyzer) *Evaluator {
	if settings.NumTerms <= 0 {
		settings.NumTerms = DefaultNumTerms
	}
	return &Evaluator{
		Settings: settings,
		Interp:   interpreter,
		Ranges:   ranges,
		incEval:  ie.New(interpreter),
	}
}

func (e *Evaluator) checkEvalTime() error {
	if e.Settings.MaxEvalSecs <= 0 {
		return nil
	}
	if time.Since(e.startTime) > time.Duration(e.Settings.MaxEvalSecs)*time.Second {
		return errs.New(errs.Timeout, "maximum evaluation time exceeded")
	}
	return nil
}

// SupportsIncEval reports whether p's simple-loop shape qualifies for the
// Incremental Evaluator, without leaving that evaluator primed for use.
func (e *Evaluator) SupportsIncEval(p *lang.Program) bool {
	ok := e.incEval.Init(p)
	e.incEval.Reset()
	return ok
}

// Eval populates and returns the first numTerms terms of p starting at its
// offset directive, plus the total step count. numTerms<0 uses
// Settings.NumTerms. A mid-run error is swallowed (the returned sequence is
// truncated to the last successful term) unless throwOnError is set, in
// which case the error is returned.
func (e *Evaluator) Eval(p *lang.Program, numTerms int64, throwOnError bool) (lang.Sequence, Steps, error) {
	if numTerms < 0 {
		numTerms = e.Settings.NumTerms
	}
	var steps Steps
	terms := make([]number.Number, 0, numTerms)
	if e.Settings.MaxEvalSecs > 0 {
		e.startTime = time.Now()
	}
	offset := p.DirectiveOr("offset", 0)
	useInc := e.Settings.UseIncEval && e.incEval.Init(p)

	for i := int64(0); i < numTerms; i++ {
		out, n, err := e.runOne(p, i, offset, useInc)
		if err != nil {
			if throwOnError {
				return lang.NewSequence(terms...), steps, err
			}
			return lang.NewSequence(terms...), steps, nil
		}
		if err := e.checkEvalTime(); err != nil {
			if throwOnError {
				return lang.NewSequence(terms...), steps, err
			}
			return lang.NewSequence(terms...), steps, nil
		}
		steps.add(n)
		if e.Settings.UseSteps {
			out = number.FromInt64(n)
		}
		terms = append(terms, out)
		if e.Settings.PrintAsBFile {
			printTerm(offset+i, out.String())
		}
	}
	return lang.NewSequence(terms...), steps, nil
}

func (e *Evaluator) runOne(p *lang.Program, i, offset int64, useInc bool) (number.Number, int64, error) {
	if useInc {
		out, n, err := e.incEval.Next()
		return out, n, err
	}
	m := mem.New()
	if err := m.Set(lang.InputCell, number.FromInt64(i+offset)); err != nil {
		return number.Number{}, 0, err
	}
	n, err := e.Interp.Run(p, m)
	if err != nil {
		return number.Number{}, n, err
	}
	out, err := m.Get(lang.OutputCell)
	return out, n, err
}

// printTerm writes a single b-file line to standard output, per §6.
func printTerm(index int64, value string) {
	fmt.Println(index, value)
}

// Check compares p against expectedSeq, treating the first numRequiredTerms
// terms as mandatory. numRequiredTerms<0 means all of expectedSeq. id
// participates in the Interpreter's recursion guard the same way a
// top-level SEQ/PRG call does.
func (e *Evaluator) Check(p *lang.Program, expectedSeq lang.Sequence, numRequiredTerms int64, id int64) (Status, Steps) {
	if numRequiredTerms < 0 {
		numRequiredTerms = int64(expectedSeq.Len())
	}
	if e.Settings.MaxEvalSecs > 0 {
		e.startTime = time.Now()
	}

	offset := p.DirectiveOr("offset", 0)
	var rng rangean.Range
	haveRange := false
	if e.Settings.CheckRange && e.Ranges != nil {
		upperBound := offset + int64(expectedSeq.Len()) - 1
		if rm, err := e.Ranges.Generate(p, number.FromInt64(upperBound)); err == nil {
			rng = rm.Get(lang.OutputCell)
			haveRange = true
		}
	}

	e.Interp.ClearCaches()
	useInc := e.Settings.UseIncEval && e.incEval.Init(p)

	var steps Steps
	status := OK
	for i := int64(0); i < int64(expectedSeq.Len()); i++ {
		index := i + offset
		expected := expectedSeq.Terms[i]
		var out number.Number

		if status == OK {
			o, n, err := e.runOneWithID(p, i, offset, id, useInc)
			if err == nil {
				if terr := e.checkEvalTime(); terr != nil {
					err = terr
				}
			}
			if err != nil {
				if i < numRequiredTerms {
					if e.Settings.PrintAsBFile {
						printTerm(index, "-> "+err.Error())
					}
					return ERROR, steps
				}
				status = WARNING
				if !e.Settings.CheckRange || !haveRange || !rng.IsFinite() {
					return status, steps
				}
			} else {
				steps.add(n)
				out = o
				if !out.Eq(expected) {
					if e.Settings.PrintAsBFile {
						printTerm(index, out.String()+" -> expected "+expected.String())
					}
					return ERROR, steps
				}
			}
		}

		if e.Settings.CheckRange && haveRange && !rng.Contains(expected) {
			if e.Settings.PrintAsBFile {
				printTerm(index, expected.String()+" -> expected range "+rng.String())
			}
			return ERROR, steps
		}

		if e.Settings.PrintAsBFile {
			if status == OK {
				printTerm(index, expected.String())
			} else {
				printTerm(index, rng.String())
			}
		}
	}
	return status, steps
}

func (e *Evaluator) runOneWithID(p *lang.Program, i, offset, id int64, useInc bool) (number.Number, int64, error) {
	if useInc {
		return e.incEval.Next()
	}
	m := mem.New()
	if err := m.Set(lang.InputCell, number.FromInt64(i+offset)); err != nil {
		return number.Number{}, 0, err
	}
	n, err := e.Interp.RunWithID(p, m, id)
	if err != nil {
		return number.Number{}, n, err
	}
	out, err := m.Get(lang.OutputCell)
	return out, n, err
}
