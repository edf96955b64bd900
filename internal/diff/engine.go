// internal/diff/engine.go
package diff

import (
	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/hunk"
	"github.com/qosmio/gitsigns/internal/logging"
)

// Options configures an Engine.
type Options struct {
	// Algorithm names the line-diff implementation ("myers" or "lcs").
	Algorithm string

	// IndentHeuristic slides one-sided hunks to visually better split
	// points, the way git's own indent heuristic does.
	IndentHeuristic bool

	// Workers off-loads the line-diff primitive to a worker pool of the
	// given size. Zero keeps the synchronous path. Output is identical
	// either way.
	Workers int
}

// Engine computes structured change lists between two text snapshots.
type Engine struct {
	algo    Algorithm
	indent  bool
	pool    *pool
	logger  *logging.Logger
	algName string
}

func NewEngine(opts Options, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		algo:    ForName(opts.Algorithm),
		indent:  opts.IndentHeuristic,
		logger:  logger,
		algName: opts.Algorithm,
	}
	if opts.Workers > 0 {
		e.pool = newPool(opts.Workers)
	}
	return e
}

// Close stops the worker pool, if any.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.close()
	}
}

// DiffLines computes the hunks turning before into after.
func (e *Engine) DiffLines(before, after []string) []hunk.Hunk {
	var edits []edit
	if e.pool != nil {
		edits = e.pool.diff(e.algo, before, after)
	} else {
		edits = e.algo(before, after)
	}

	hunks := hunksFromTuples(tuplesFromEdits(edits), before, after)
	if e.indent {
		hunks = slideHunks(hunks, before, after)
	}

	e.logger.Debug("diff computed",
		zap.String("algorithm", e.algName),
		zap.Int("hunks", len(hunks)))
	return hunks
}

// slideHunks applies the indent heuristic: pure insertions and deletions
// that can rotate within repeated context are moved to the split point
// with the nicest boundary (blank preceding line, then least indented
// first line).
func slideHunks(hunks []hunk.Hunk, before, after []string) []hunk.Hunk {
	for i := range hunks {
		h := &hunks[i]

		var lines []string
		var start, count int
		switch h.Type {
		case hunk.Add:
			lines, start, count = after, h.Added.Start, h.Added.Count
		case hunk.Delete:
			lines, start, count = before, h.Removed.Start, h.Removed.Count
		default:
			continue
		}

		lo, hi := slideRange(lines, start, count)

		// Never slide across a neighboring hunk.
		if i > 0 {
			if m := hunks[i-1].Added.Start + hunks[i-1].Added.Count - h.Added.Start + 1; m > lo {
				lo = m
			}
		}
		if i < len(hunks)-1 {
			if m := hunks[i+1].Added.Start - (h.Added.Start + h.Added.Count); m < hi {
				hi = m
			}
		}

		best, bestScore := 0, slideScore(lines, start, 0)
		for off := lo; off <= hi; off++ {
			if off == 0 {
				continue
			}
			if s := slideScore(lines, start, off); s > bestScore {
				best, bestScore = off, s
			}
		}
		if best == 0 {
			continue
		}

		h.Added.Start += best
		h.Removed.Start += best
		h.Vend += best
		if h.Type == hunk.Add {
			h.Added.Lines = sliceLines(after, h.Added.Start, h.Added.Count)
		} else {
			h.Removed.Lines = sliceLines(before, h.Removed.Start, h.Removed.Count)
		}
	}
	return hunks
}

// slideRange returns the inclusive offset range [lo, hi] a block of count
// lines starting at the 1-based start can rotate within.
func slideRange(lines []string, start, count int) (int, int) {
	const limit = 100

	lo := 0
	for -lo < limit {
		i := start - 2 + lo // line entering at the top
		j := start - 2 + count + lo
		if i < 0 || j >= len(lines) || lines[i] != lines[j] {
			break
		}
		lo--
	}

	hi := 0
	for hi < limit {
		i := start - 1 + hi // line leaving at the top
		j := start - 1 + count + hi
		if i < 0 || j >= len(lines) || lines[i] != lines[j] {
			break
		}
		hi++
	}

	return lo, hi
}

func slideScore(lines []string, start, off int) int {
	score := 0

	prev := start - 2 + off
	if prev < 0 || lines[prev] == "" {
		score += 100
	}

	first := start - 1 + off
	if first >= 0 && first < len(lines) {
		score -= indentWidth(lines[first])
	}

	return score
}

func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 8
		default:
			return w
		}
	}
	return w
}
