package board

// Status is the game state of a position from the rules' point of view.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Status reports whether the side to move is checkmated, stalemated or can
// still play.
func (p Position) Status() Status {
	if p.HasLegalMoves() {
		return Ongoing
	}
	if p.InCheck() {
		return Checkmate
	}
	return Stalemate
}

// IsCheckmate returns true if the side to move is checkmated.
func (p Position) IsCheckmate() bool {
	return p.Status() == Checkmate
}

// IsStalemate returns true if the side to move is stalemated.
func (p Position) IsStalemate() bool {
	return p.Status() == Stalemate
}

// IsFiftyMoveDraw reports whether fifty full moves passed without a pawn
// move or capture.
func (p Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// IsInsufficientMaterial returns true if neither side can deliver mate.
func (p Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	bMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	// K vs K, K+minor vs K
	return (wMinors <= 1 && bMinors == 0) || (bMinors <= 1 && wMinors == 0)
}
