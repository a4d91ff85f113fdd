package board

// LegalMoves returns every legal move for the side to move. The order is
// fixed: pawns (pushes, double pushes, captures, promotions, en passant),
// then knights, bishops, rooks, queens, king steps and castling, each
// piece and target scanned from a1 upward.
func (p Position) LegalMoves() []Move {
	pseudo := p.pseudoLegalMoves(make([]Move, 0, 64))
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.leavesKingSafe(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p Position) HasLegalMoves() bool {
	for _, m := range p.pseudoLegalMoves(make([]Move, 0, 64)) {
		if p.leavesKingSafe(m) {
			return true
		}
	}
	return false
}

func (p Position) leavesKingSafe(m Move) bool {
	us := p.SideToMove
	next := p.Apply(m)
	return !next.IsSquareAttacked(next.KingSquare(us), us.Other())
}

func (p Position) pseudoLegalMoves(ml []Move) []Move {
	us := p.SideToMove
	own := p.Occupied[us]
	occupied := p.AllOccupied

	ml = p.pawnMoves(ml)

	for _, pt := range [4]PieceType{Knight, Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			case Queen:
				attacks = QueenAttacks(from, occupied)
			}
			attacks &^= own
			for attacks != 0 {
				ml = append(ml, NewMove(from, attacks.PopLSB()))
			}
		}
	}

	if from := p.KingSquare(us); from != NoSquare {
		attacks := KingAttacks(from) &^ own
		for attacks != 0 {
			ml = append(ml, NewMove(from, attacks.PopLSB()))
		}
	}

	return p.castlingMoves(ml)
}

func (p Position) pawnMoves(ml []Move) []Move {
	us := p.SideToMove
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	// from-square offsets relative to the target
	targets := []struct {
		set    Bitboard
		offset int
	}{
		{push1, pushDir},
		{push2, 2 * pushDir},
		{attackL, pushDir - 1},
		{attackR, pushDir + 1},
	}

	for _, t := range targets {
		quiet := t.set &^ promotionRank
		for quiet != 0 {
			to := quiet.PopLSB()
			ml = append(ml, NewMove(Square(int(to)-t.offset), to))
		}
	}

	for _, t := range [3]int{0, 2, 3} {
		promo := targets[t].set & promotionRank
		for promo != 0 {
			to := promo.PopLSB()
			from := Square(int(to) - targets[t].offset)
			for _, pt := range [4]PieceType{Queen, Rook, Bishop, Knight} {
				ml = append(ml, NewPromotion(from, to, pt))
			}
		}
	}

	if p.EnPassant != NoSquare {
		epAttackers := PawnAttacks(p.EnPassant, us.Other()) & pawns
		for epAttackers != 0 {
			ml = append(ml, NewEnPassant(epAttackers.PopLSB(), p.EnPassant))
		}
	}

	return ml
}

type castleRule struct {
	right          CastlingRights
	color          Color
	king, to, rook Square
	empty          []Square
	safe           []Square
}

var castleRules = [4]castleRule{
	{WhiteKingSideCastle, White, E1, G1, H1, []Square{F1, G1}, []Square{E1, F1, G1}},
	{WhiteQueenSideCastle, White, E1, C1, A1, []Square{B1, C1, D1}, []Square{E1, D1, C1}},
	{BlackKingSideCastle, Black, E8, G8, H8, []Square{F8, G8}, []Square{E8, F8, G8}},
	{BlackQueenSideCastle, Black, E8, C8, A8, []Square{B8, C8, D8}, []Square{E8, D8, C8}},
}

func (p Position) castlingMoves(ml []Move) []Move {
	us := p.SideToMove
	them := us.Other()

rules:
	for _, r := range castleRules {
		if r.color != us || p.CastlingRights&r.right == 0 {
			continue
		}
		if p.PieceAt(r.king) != NewPiece(King, us) || p.PieceAt(r.rook) != NewPiece(Rook, us) {
			continue
		}
		for _, sq := range r.empty {
			if !p.IsEmpty(sq) {
				continue rules
			}
		}
		for _, sq := range r.safe {
			if p.IsSquareAttacked(sq, them) {
				continue rules
			}
		}
		ml = append(ml, NewCastling(r.king, r.to))
	}

	return ml
}

// Apply returns the position after m. The receiver is left untouched.
// m must come from LegalMoves (or at least be pseudo-legal) for p.
func (p Position) Apply(m Move) Position {
	next := p
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	next.Hash ^= zobristCastling[next.CastlingRights]
	if next.EnPassant != NoSquare {
		next.Hash ^= zobristEnPassant[next.EnPassant.File()]
	}
	next.EnPassant = NoSquare

	var captured Piece
	if m.IsEnPassant() {
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		captured = next.removePiece(capturedSq)
	} else {
		captured = next.removePiece(to)
	}

	piece := next.removePiece(from)
	pt := piece.Type()
	if m.IsPromotion() {
		next.setPiece(NewPiece(m.Promotion(), us), to)
	} else {
		next.setPiece(piece, to)
	}

	if m.IsCastling() {
		rookFrom, rookTo := NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		if to < from {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		next.setPiece(next.removePiece(rookFrom), rookTo)
	}

	if pt == King {
		if us == White {
			next.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			next.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	for _, sq := range [2]Square{from, to} {
		switch sq {
		case A1:
			next.CastlingRights &^= WhiteQueenSideCastle
		case H1:
			next.CastlingRights &^= WhiteKingSideCastle
		case A8:
			next.CastlingRights &^= BlackQueenSideCastle
		case H8:
			next.CastlingRights &^= BlackKingSideCastle
		}
	}
	next.Hash ^= zobristCastling[next.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		next.EnPassant = Square((int(from) + int(to)) / 2)
		next.Hash ^= zobristEnPassant[next.EnPassant.File()]
	}

	if pt == Pawn || captured != NoPiece {
		next.HalfMoveClock = 0
	} else {
		next.HalfMoveClock++
	}
	if us == Black {
		next.FullMoveNumber++
	}

	next.SideToMove = them
	next.Hash ^= zobristSideToMove

	return next
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
