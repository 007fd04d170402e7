// Package commands implements the loda CLI's subcommands, one function per
// command, the way cmd/sentra/commands splits BuildCommand/WatchCommand/
// CleanCommand into their own top-level funcs taking the trailing argument
// slice and returning an error for main to report.
package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"loda/internal/batch"
	"loda/internal/checker"
	"loda/internal/errs"
	"loda/internal/eval"
	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/matcher"
	"loda/internal/number"
	"loda/internal/report"
	"loda/internal/store"
)

// openCache opens the SQLite-backed program cache at path, used by any
// command whose programs reference other catalog entries via seq/prg.
func openCache(path string) (*store.SQLiteProgramCache, error) {
	if path == "" {
		return nil, nil
	}
	return store.Open(path)
}

// readProgram loads and parses the assembly program in path.
func readProgram(path string) (*lang.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperand, err, "reading program file")
	}
	return lang.Parse(string(src))
}

// parseSequence parses a comma-separated list of terms, as produced by
// Sequence.String, back into a Sequence.
func parseSequence(s string) (lang.Sequence, error) {
	fields := strings.Split(s, ",")
	terms := make([]number.Number, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := number.Parse(f)
		if err != nil {
			return lang.Sequence{}, errs.Wrap(errs.InvalidOperand, err, "parsing sequence term")
		}
		terms = append(terms, n)
	}
	return lang.NewSequence(terms...), nil
}

// evalSettings builds an eval.Settings from the flags common to eval/check/
// mine, defaulting numTerms<0 to eval.DefaultNumTerms via the Evaluator
// itself.
func evalSettings(numTerms int64, useIncEval, checkRange bool) eval.Settings {
	return eval.Settings{
		NumTerms:   numTerms,
		UseIncEval: useIncEval,
		CheckRange: checkRange,
	}
}

// newEvaluator wires an Interpreter (backed by cache, which may be nil) and
// an Evaluator with the given settings, the way every subcommand needs one.
func newEvaluator(settings eval.Settings, cache *store.SQLiteProgramCache) *eval.Evaluator {
	var programs interp.ProgramCache
	if cache != nil {
		programs = cache
	}
	in := interp.New(interp.Limits{}, programs)
	return eval.New(settings, in, nil)
}

// EvalCommand evaluates a program and prints its first numTerms terms.
//
//	loda eval <program.asm> [-terms N] [-cache path.db]
func EvalCommand(args []string) error {
	fs := newFlagSet("eval")
	terms := fs.Int64("terms", eval.DefaultNumTerms, "number of terms to compute")
	cachePath := fs.String("cache", "", "path to a SQLite program cache, for programs using seq/prg")
	if err := fs.parse(args); err != nil {
		return err
	}
	if fs.nargs() < 1 {
		return fmt.Errorf("usage: loda eval <program.asm> [-terms N] [-cache path.db]")
	}

	p, err := readProgram(fs.arg(0))
	if err != nil {
		return err
	}
	cache, err := openCache(*cachePath)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	e := newEvaluator(evalSettings(*terms, false, false), cache)
	seq, steps, err := e.Eval(p, *terms, false)
	if err != nil {
		return err
	}

	r := report.New(os.Stdout)
	r.EvalResult(0, seq, steps)
	fmt.Println(seq.String())
	return nil
}

// CheckCommand evaluates a program and checks it against an expected
// comma-separated sequence.
//
//	loda check <program.asm> <expected,terms,...> [-id N] [-cache path.db]
func CheckCommand(args []string) error {
	fs := newFlagSet("check")
	id := fs.Int64("id", 0, "catalog id, for self-reference checks")
	cachePath := fs.String("cache", "", "path to a SQLite program cache")
	if err := fs.parse(args); err != nil {
		return err
	}
	if fs.nargs() < 2 {
		return fmt.Errorf("usage: loda check <program.asm> <expected,terms,...> [-id N] [-cache path.db]")
	}

	p, err := readProgram(fs.arg(0))
	if err != nil {
		return err
	}
	expected, err := parseSequence(fs.arg(1))
	if err != nil {
		return err
	}
	cache, err := openCache(*cachePath)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	e := newEvaluator(evalSettings(int64(expected.Len()), false, false), cache)
	status, steps := e.Check(p, expected, int64(expected.Len()), *id)

	r := report.New(os.Stdout)
	r.CheckStatus(*id, status)
	if status != eval.OK {
		return fmt.Errorf("check failed: %s (%d steps)", status, steps.Total)
	}
	return nil
}

// CompareCommand runs the Checker against an existing and a candidate
// program for the same catalog id, printing the verdict.
//
//	loda compare <existing.asm> <candidate.asm> -id N [-full] [-usages N]
func CompareCommand(args []string) error {
	fs := newFlagSet("compare")
	id := fs.Int64("id", 0, "catalog id")
	full := fs.Bool("full", false, "run the full evaluation-based comparison even for low-usage programs")
	usages := fs.Int64("usages", 0, "number of other programs that call this program via seq/prg")
	if err := fs.parse(args); err != nil {
		return err
	}
	if fs.nargs() < 2 {
		return fmt.Errorf("usage: loda compare <existing.asm> <candidate.asm> -id N [-full] [-usages N]")
	}

	existing, err := readProgram(fs.arg(0))
	if err != nil {
		return err
	}
	candidate, err := readProgram(fs.arg(1))
	if err != nil {
		return err
	}

	e := newEvaluator(evalSettings(eval.DefaultNumTerms, true, false), nil)
	c := checker.New(e)
	verdict := c.Compare(existing, candidate, *id, *full, *usages)

	r := report.New(os.Stdout)
	if verdict == checker.None {
		fmt.Println("no improvement")
		return nil
	}
	r.Verdict(*id, verdict)
	return nil
}

// MineCommand evaluates a batch of programs concurrently against a shared
// catalog cache and matcher index, reporting each result as it completes.
//
//	loda mine <dir-of-programs> -cache path.db [-terms N] [-concurrency N]
func MineCommand(args []string) error {
	fs := newFlagSet("mine")
	cachePath := fs.String("cache", "", "path to a SQLite program cache (required)")
	terms := fs.Int64("terms", eval.DefaultNumTerms, "number of terms to compute per program")
	concurrency := fs.Int("concurrency", 0, "max concurrent workers (0 = unbounded)")
	if err := fs.parse(args); err != nil {
		return err
	}
	if fs.nargs() < 1 || *cachePath == "" {
		return fmt.Errorf("usage: loda mine <dir-of-programs> -cache path.db [-terms N] [-concurrency N]")
	}

	entries, err := os.ReadDir(fs.arg(0))
	if err != nil {
		return errs.Wrap(errs.InvalidOperand, err, "reading program directory")
	}

	cache, err := openCache(*cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	var jobs []batch.Job
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".asm") {
			continue
		}
		id, err := idFromFilename(entry.Name())
		if err != nil {
			continue
		}
		p, err := readProgram(fs.arg(0) + "/" + entry.Name())
		if err != nil {
			return err
		}
		jobs = append(jobs, batch.Job{Index: len(jobs), ID: id, Program: p})
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no .asm programs found in %s", fs.arg(0))
	}

	settings := batch.Settings{
		Programs:     cache,
		EvalSettings: evalSettings(*terms, false, false),
		Concurrency:  *concurrency,
		Index:        matcher.Default(),
	}

	start := time.Now()
	results, err := batch.Run(context.Background(), jobs, settings)
	r := report.New(os.Stdout)
	r.Header("mining run")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "A%06d: %v\n", res.ID, res.Err)
			continue
		}
		r.EvalResult(res.ID, res.Sequence, res.Steps)
		for _, hit := range res.Hits {
			fmt.Printf("  matches A%06d\n", hit.ID)
		}
	}
	r.Duration("mining", time.Since(start))
	return err
}

// idFromFilename extracts the catalog id from a "A000045.asm"-style name.
func idFromFilename(name string) (int64, error) {
	base := strings.TrimSuffix(name, ".asm")
	base = strings.TrimPrefix(base, "A")
	return strconv.ParseInt(base, 10, 64)
}
