package engine

import (
	"fmt"
	"math"

	"github.com/hailam/tungsten/internal/board"
)

// Result is the outcome of a search: the backed-up score and the move that
// achieves it. Move is board.NoMove at terminal nodes and at depth zero.
type Result struct {
	Score Score
	Move  board.Move
}

// Stats counts the work done by the last search.
type Stats struct {
	Nodes   uint64 // positions visited, root included
	Leaves  uint64 // static evaluations plus terminal positions
	Cutoffs uint64
}

// Searcher performs minimax search with alpha-beta pruning.
// White maximizes the score and black minimizes it.
type Searcher struct {
	eval  *Evaluator
	stats Stats
}

// NewSearcher creates a searcher scoring leaves with ev.
// A nil evaluator selects the default material evaluator.
func NewSearcher(ev *Evaluator) *Searcher {
	if ev == nil {
		ev = defaultEvaluator
	}
	return &Searcher{eval: ev}
}

// Stats returns the counters of the most recent search.
func (s *Searcher) Stats() Stats {
	return s.stats
}

// AlphaBeta searches pos to the given depth in plies with a full window.
// A negative depth is a programming error and panics.
func (s *Searcher) AlphaBeta(pos board.Position, depth int) Result {
	if depth < 0 {
		panic(fmt.Sprintf("engine: negative search depth %d", depth))
	}
	s.stats = Stats{}
	return s.search(pos, depth, Score(math.Inf(-1)), Score(math.Inf(1)))
}

// search returns the minimax value of pos within the window (alpha, beta).
func (s *Searcher) search(pos board.Position, depth int, alpha, beta Score) Result {
	s.stats.Nodes++

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		s.stats.Leaves++
		if !pos.InCheck() {
			return Result{Score: Draw}
		}
		// The side to move is mated.
		if pos.SideToMove == board.White {
			return Result{Score: BlackWin}
		}
		return Result{Score: WhiteWin}
	}

	if depth == 0 {
		s.stats.Leaves++
		return Result{Score: s.eval.Evaluate(pos)}
	}

	maximizing := pos.SideToMove == board.White
	best := Result{Score: BlackWin}
	if !maximizing {
		best.Score = WhiteWin
	}

	for _, m := range moves {
		child := s.search(pos.Apply(m), depth-1, alpha, beta)

		if maximizing {
			if child.Score > best.Score {
				best = Result{Score: child.Score, Move: m}
			}
			if best.Score > alpha {
				alpha = best.Score
			}
			if alpha >= beta {
				s.stats.Cutoffs++
				break
			}
		} else {
			if child.Score < best.Score {
				best = Result{Score: child.Score, Move: m}
			}
			if best.Score < beta {
				beta = best.Score
			}
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
	}

	return best
}

// AlphaBeta searches pos to depth with the default evaluator.
func AlphaBeta(pos board.Position, depth int) Result {
	return NewSearcher(nil).AlphaBeta(pos, depth)
}
