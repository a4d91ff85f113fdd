// Package engine implements the chess search engine: a weighted-sum static
// evaluator and a depth-limited minimax search with alpha-beta pruning.
package engine

import (
	"math"

	"github.com/hailam/tungsten/internal/board"
)

// Score is a position evaluation from white's point of view.
// Positive values favor white, negative values favor black.
type Score float64

// Score sentinels. The two win values lie strictly outside any finite
// evaluation.
var (
	WhiteWin = Score(math.Inf(1))
	BlackWin = Score(math.Inf(-1))
	Draw     = Score(0)
)

// Material values in pawns
const (
	PawnWorth   = 1.0
	KnightWorth = 3.0
	BishopWorth = 3.5
	RookWorth   = 5.0
	QueenWorth  = 9.0
	KingWorth   = 0.0
)

// MaterialWeight is the coefficient of the material term in the default evaluator.
const MaterialWeight = 1.0

// Piece worths indexed by board.PieceType
var pieceWorths = [6]float64{PawnWorth, KnightWorth, BishopWorth, RookWorth, QueenWorth, KingWorth}

// PieceWorth returns the material worth of a piece type.
func PieceWorth(pt board.PieceType) float64 {
	if int(pt) >= len(pieceWorths) {
		return 0
	}
	return pieceWorths[pt]
}

// MaterialTotals sums the worth of every piece on the board for each side.
func MaterialTotals(pos board.Position) (white, black float64) {
	for sq := board.A1; sq <= board.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		if piece.Color() == board.White {
			white += PieceWorth(piece.Type())
		} else {
			black += PieceWorth(piece.Type())
		}
	}
	return white, black
}

// Material is the material balance, white minus black.
func Material(pos board.Position) float64 {
	white, black := MaterialTotals(pos)
	return white - black
}

// Feature extracts one numeric feature of a position.
type Feature func(pos board.Position) float64

// Term is a weighted feature of the evaluation.
type Term struct {
	Name    string
	Weight  float64
	Feature Feature
}

// Evaluator scores positions as a weighted sum of its terms.
type Evaluator struct {
	terms []Term
}

// NewEvaluator creates an evaluator from the given terms.
func NewEvaluator(terms ...Term) *Evaluator {
	return &Evaluator{terms: terms}
}

// DefaultEvaluator returns the material-only evaluator.
func DefaultEvaluator() *Evaluator {
	return NewEvaluator(Term{Name: "material", Weight: MaterialWeight, Feature: Material})
}

// Terms returns a copy of the evaluator's terms.
func (e *Evaluator) Terms() []Term {
	return append([]Term(nil), e.terms...)
}

// Evaluate returns the static evaluation of pos.
func (e *Evaluator) Evaluate(pos board.Position) Score {
	var sum float64
	for _, t := range e.terms {
		sum += t.Weight * t.Feature(pos)
	}
	return Score(sum)
}

var defaultEvaluator = DefaultEvaluator()

// Evaluate scores pos with the default material evaluator.
func Evaluate(pos board.Position) Score {
	return defaultEvaluator.Evaluate(pos)
}
