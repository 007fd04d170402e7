// Package batch implements the bounded-concurrency fan-out described in
// §5: each worker builds its own Interpreter and Evaluator. The matcher
// Index in Settings is not copied per worker: all workers share it, and
// their Match calls on it are serialized by a mutex. Each worker writes its
// Result into a shared slice at its Job's Index.
package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"loda/internal/eval"
	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/matcher"
)

// Job is one unit of work: a program to evaluate against its catalog id,
// tagged with an index so results can be reassembled in input order
// regardless of completion order.
type Job struct {
	Index   int
	ID      int64
	Program *lang.Program
}

// Result is one job's outcome, carrying the correlation ID of the worker
// goroutine that produced it so concurrent runs can be told apart in logs.
type Result struct {
	Index         int
	ID            int64
	Sequence      lang.Sequence
	Steps         eval.Steps
	Hits          []matcher.Hit
	Err           error
	CorrelationID uuid.UUID
}

// Settings configures a batch run. NumTerms (via EvalSettings) defaults to
// eval.DefaultNumTerms, the same as a standalone Evaluator.
type Settings struct {
	Limits       interp.Limits
	Programs     interp.ProgramCache
	EvalSettings eval.Settings
	Concurrency  int // 0 means unbounded (errgroup default)
	Index        *matcher.Index
}

// Run evaluates every job against its own worker's Interpreter+Evaluator,
// matches the resulting sequence against settings.Index (shared by all
// workers, one Match call at a time, since matching updates the index's
// backoff state; callers must not use it concurrently from elsewhere), and
// returns one Result per job in the same order as jobs. It stops launching
// new workers, but lets in-flight ones finish, once ctx is canceled.
func Run(ctx context.Context, jobs []Job, settings Settings) ([]Result, error) {
	results := make([]Result, len(jobs))
	var matchMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if settings.Concurrency > 0 {
		g.SetLimit(settings.Concurrency)
	}

	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[job.Index] = runJob(job, settings, &matchMu)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runJob builds a fresh Interpreter/Evaluator pair, private to this call,
// evaluates job.Program, and (if an Index was supplied) matches the result
// against the catalog.
func runJob(job Job, settings Settings, matchMu *sync.Mutex) Result {
	correlationID := uuid.New()

	in := interp.New(settings.Limits, settings.Programs)
	e := eval.New(settings.EvalSettings, in, nil)

	numTerms := e.Settings.NumTerms

	seq, steps, err := e.Eval(job.Program, numTerms, false)
	result := Result{
		Index:         job.Index,
		ID:            job.ID,
		Sequence:      seq,
		Steps:         steps,
		Err:           err,
		CorrelationID: correlationID,
	}
	if err == nil && settings.Index != nil {
		matchMu.Lock()
		result.Hits = settings.Index.Match(job.Program, seq)
		matchMu.Unlock()
	}
	return result
}
