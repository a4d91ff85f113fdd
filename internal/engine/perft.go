package engine

import "github.com/hailam/tungsten/internal/board"

// Perft counts the leaf nodes of the legal move tree below pos
// (for debugging move generation).
func Perft(pos board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		nodes += Perft(pos.Apply(m), depth-1)
	}
	return nodes
}

// Divide returns the perft count below each legal root move, in generation order.
func Divide(pos board.Position, depth int) []DivideEntry {
	if depth < 1 {
		return nil
	}
	moves := pos.LegalMoves()
	entries := make([]DivideEntry, 0, len(moves))
	for _, m := range moves {
		entries = append(entries, DivideEntry{Move: m, Nodes: Perft(pos.Apply(m), depth-1)})
	}
	return entries
}

// DivideEntry is one root move and its subtree leaf count.
type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}
