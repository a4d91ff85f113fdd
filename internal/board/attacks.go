package board

// direction indexes into rayAttacks. The first four step toward higher
// square indexes, the last four toward lower ones.
type direction int

const (
	north direction = iota
	east
	northEast
	northWest
	south
	west
	southEast
	southWest
)

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	// rayAttacks[d][sq] holds every square from sq toward the edge in direction d.
	rayAttacks [8][64]Bitboard
)

var directionSteps = [8][2]int{
	north:     {0, 1},
	east:      {1, 0},
	northEast: {1, 1},
	northWest: {-1, 1},
	south:     {0, -1},
	west:      {-1, 0},
	southEast: {1, -1},
	southWest: {-1, -1},
}

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()

		for _, d := range [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			f, r := sq.File()+d[0], sq.Rank()+d[1]
			if f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				knightAttacks[sq] |= SquareBB(NewSquare(f, r))
			}
		}

		for dir, step := range directionSteps {
			f, r := sq.File()+step[0], sq.Rank()+step[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				rayAttacks[dir][sq] |= SquareBB(NewSquare(f, r))
				f += step[0]
				r += step[1]
			}
		}
	}
}

// slide returns the attacks along one ray, stopping at (and including) the
// first occupied square.
func slide(sq Square, dir direction, occupied Bitboard) Bitboard {
	ray := rayAttacks[dir][sq]
	blockers := ray & occupied
	if blockers == 0 {
		return ray
	}
	var blocker Square
	if dir < south {
		blocker = blockers.LSB()
	} else {
		blocker = blockers.MSB()
	}
	return ray &^ rayAttacks[dir][blocker]
}

// KnightAttacks returns the knight attack set for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack set for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the diagonal attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, northEast, occupied) | slide(sq, northWest, occupied) |
		slide(sq, southEast, occupied) | slide(sq, southWest, occupied)
}

// RookAttacks returns the orthogonal attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, north, occupied) | slide(sq, east, occupied) |
		slide(sq, south, occupied) | slide(sq, west, occupied)
}

// QueenAttacks returns the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersByColor returns the pieces of color c attacking sq.
func (p Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether sq is attacked by color c.
func (p Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.AttackersByColor(sq, c, p.AllOccupied) != 0
}
