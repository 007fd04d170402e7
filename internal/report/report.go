// Package report renders human-facing output for evaluation and check
// results: step counts, verdicts, and periodic progress lines. It follows
// the teacher's own plain fmt-write style for the actual printing, but
// picks readable formatting (humanize) and timestamps (strftime) the
// teacher's own visible code never needed, and switches between a plain
// and a colorized layout depending on whether stdout is a terminal
// (isatty) — a distinction a batch-run log should make but a single
// CLI invocation's stdout usually doesn't need to.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"loda/internal/checker"
	"loda/internal/eval"
	"loda/internal/lang"
)

// ansi escape codes for the handful of colors this reporter uses. Left
// empty in plain mode.
const (
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// Reporter writes formatted progress and result lines to Out, adapting to
// whether Out is a terminal.
type Reporter struct {
	Out   io.Writer
	Color bool
	Now   func() time.Time
}

// New builds a Reporter writing to out, auto-detecting color support via
// isatty when out is an *os.File.
func New(out io.Writer) *Reporter {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{Out: out, Color: color, Now: time.Now}
}

// Header prints a report header of the form "=== <title> (<timestamp>) ===".
func (r *Reporter) Header(title string) {
	ts := strftime.Format("%Y-%m-%d %H:%M:%S", r.Now())
	fmt.Fprintf(r.Out, "=== %s (%s) ===\n", title, ts)
}

// EvalResult prints a one-line summary of an Eval call: the catalog id,
// how many terms it produced, and a humanized step count.
func (r *Reporter) EvalResult(id int64, seq lang.Sequence, steps eval.Steps) {
	fmt.Fprintf(r.Out, "A%06d: %d terms, %s steps (min=%s max=%s)\n",
		id, seq.Len(),
		humanize.Comma(steps.Total),
		humanize.Comma(steps.Min),
		humanize.Comma(steps.Max))
}

// CheckStatus prints the outcome of an Evaluator.Check call, colored green
// for OK, yellow otherwise, when color is enabled.
func (r *Reporter) CheckStatus(id int64, status eval.Status) {
	fmt.Fprintf(r.Out, "A%06d: check %s\n", id, r.colorize(string(status), status == eval.OK))
}

// Verdict prints a Checker verdict line. An empty verdict (no improvement)
// is not printed — callers should only call this once they have a
// non-empty verdict worth announcing.
func (r *Reporter) Verdict(id int64, v checker.Verdict) {
	if v == checker.None {
		return
	}
	fmt.Fprintf(r.Out, "A%06d: %s\n", id, r.colorize(string(v), true))
}

// Duration prints a humanized elapsed-time line, e.g. "mined for 3.0 minutes".
func (r *Reporter) Duration(label string, d time.Duration) {
	fmt.Fprintf(r.Out, "%s for %s\n", label, humanizeDuration(d))
}

// Debug pretty-prints v (typically a *mem.Memory or *lang.Program snapshot)
// to stderr, for the DBG operation handler and test diagnostics.
func Debug(v any) {
	pretty.Fprintf(os.Stderr, "%# v\n", v)
}

func (r *Reporter) colorize(s string, good bool) string {
	if !r.Color {
		return s
	}
	color := ansiYellow
	if good {
		color = ansiGreen
	}
	return color + s + ansiReset
}

// humanizeDuration renders d at whichever of seconds/minutes/hours gives
// the most readable whole-ish number, since humanize has no Duration
// formatter of its own.
func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}
