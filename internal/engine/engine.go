package engine

import (
	"math"
	"strconv"
	"time"

	"github.com/hailam/tungsten/internal/board"
)

// DefaultDepth is the search depth used when none is configured.
const DefaultDepth = 4

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Depth   int
	Score   Score
	Move    board.Move
	Nodes   uint64
	Leaves  uint64
	Cutoffs uint64
	Time    time.Duration
}

// Engine wraps a Searcher with a fixed depth and reports search info.
type Engine struct {
	searcher *Searcher
	depth    int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine searching to depth plies with the default evaluator.
// A non-positive depth selects DefaultDepth.
func NewEngine(depth int) *Engine {
	e := &Engine{searcher: NewSearcher(nil)}
	e.SetDepth(depth)
	return e
}

// SetDepth sets the search depth. A non-positive depth selects DefaultDepth.
func (e *Engine) SetDepth(depth int) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	e.depth = depth
}

// Depth returns the configured search depth.
func (e *Engine) Depth() int {
	return e.depth
}

// SetEvaluator replaces the leaf evaluator. Nil restores the default.
func (e *Engine) SetEvaluator(ev *Evaluator) {
	e.searcher = NewSearcher(ev)
}

// Search finds the best move for the side to move in pos.
func (e *Engine) Search(pos board.Position) Result {
	start := time.Now()
	res := e.searcher.AlphaBeta(pos, e.depth)

	if e.OnInfo != nil {
		stats := e.searcher.Stats()
		e.OnInfo(SearchInfo{
			Depth:   e.depth,
			Score:   res.Score,
			Move:    res.Move,
			Nodes:   stats.Nodes,
			Leaves:  stats.Leaves,
			Cutoffs: stats.Cutoffs,
			Time:    time.Since(start),
		})
	}
	return res
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos board.Position) Score {
	return e.searcher.eval.Evaluate(pos)
}

// IsWin reports whether s is one of the forced-win sentinels.
func (s Score) IsWin() bool {
	return math.IsInf(float64(s), 0)
}

// Centipawns converts a finite score to integer centipawns.
// Win sentinels map to +/-MateCentipawns.
func (s Score) Centipawns() int {
	if s.IsWin() {
		if s > 0 {
			return MateCentipawns
		}
		return -MateCentipawns
	}
	return int(math.Round(float64(s) * 100))
}

// MateCentipawns stands in for a forced win where an integer score is required.
const MateCentipawns = 30000

// String implements fmt.Stringer.
func (s Score) String() string {
	return ScoreToString(s)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(s Score) string {
	if s.IsWin() {
		if s > 0 {
			return "White wins"
		}
		return "Black wins"
	}
	return strconv.FormatFloat(float64(s), 'f', 2, 64)
}
