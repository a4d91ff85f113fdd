// Package notation renders moves in Standard Algebraic Notation and
// assembles game transcripts and PGN records.
package notation

import (
	"fmt"
	"strings"

	"github.com/hailam/tungsten/internal/board"
)

// SAN converts a move to Standard Algebraic Notation in the position before
// the move is played. The move is assumed legal; only an empty source square
// is detected and reported as ErrIllegalReplayMove.
func SAN(pos board.Position, m board.Move) (string, error) {
	from := m.From()
	to := m.To()
	piece := pos.PieceAt(from)
	if piece == board.NoPiece {
		return "", fmt.Errorf("%w: no piece on %s", ErrIllegalReplayMove, from)
	}
	pt := piece.Type()

	// Castling is recognized by the king's file distance.
	if pt == board.King && abs(from.File()-to.File()) > 1 {
		if to.File() == board.G1.File() {
			return "O-O", nil
		}
		return "O-O-O", nil
	}

	var sb strings.Builder

	isCapture := !pos.IsEmpty(to) || (pt == board.Pawn && from.File() != to.File())

	if pt != board.Pawn {
		sb.WriteByte(pt.Letter())
		sb.WriteString(disambiguation(pos, m, pt))
	} else if isCapture {
		// Pawn captures include the file of origin
		sb.WriteByte(from.FileChar())
	}

	if isCapture {
		sb.WriteByte('x')
	}

	sb.WriteString(to.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte(m.Promotion().Letter())
	}

	after := pos.Apply(m)
	if after.IsCheckmate() {
		sb.WriteByte('#')
	} else if after.InCheck() {
		sb.WriteByte('+')
	}

	return sb.String(), nil
}

// disambiguation returns the source file and/or rank needed to tell m apart
// from other legal moves of the same piece type to the same square.
func disambiguation(pos board.Position, m board.Move, pt board.PieceType) string {
	from := m.From()

	var competitors []board.Square
	for _, other := range pos.LegalMoves() {
		if other.To() != m.To() || other.From() == from {
			continue
		}
		if pos.PieceAt(other.From()).Type() == pt {
			competitors = append(competitors, other.From())
		}
	}

	if len(competitors) == 0 {
		return ""
	}

	fileNeeded, rankNeeded := false, false
	for _, sq := range competitors {
		if sq.File() == from.File() {
			rankNeeded = true
		}
		if sq.Rank() == from.Rank() {
			fileNeeded = true
		}
	}
	if !fileNeeded && !rankNeeded {
		fileNeeded = true
	}

	var s []byte
	if fileNeeded {
		s = append(s, from.FileChar())
	}
	if rankNeeded {
		s = append(s, from.RankChar())
	}
	return string(s)
}

// ParseSAN resolves SAN text to the legal move it names in pos.
// Check and annotation suffixes are ignored, as is a redundant disambiguator.
func ParseSAN(pos board.Position, text string) (board.Move, error) {
	s := strings.TrimRight(strings.TrimSpace(text), "+#!?")
	if s == "" {
		return board.NoMove, fmt.Errorf("%w: empty move", ErrInvalidSAN)
	}

	legal := pos.LegalMoves()

	// Castling
	switch s {
	case "O-O", "0-0", "O-O-O", "0-0-0":
		kingside := len(s) == 3
		for _, m := range legal {
			if !m.IsCastling() {
				continue
			}
			if (m.To().File() == board.G1.File()) == kingside {
				return m, nil
			}
		}
		return board.NoMove, fmt.Errorf("%w: %q: castling not legal", ErrInvalidSAN, text)
	}

	// Promotion
	promo := board.NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		if idx+1 >= len(s) {
			return board.NoMove, fmt.Errorf("%w: %q: missing promotion piece", ErrInvalidSAN, text)
		}
		promo = pieceTypeFromLetter(s[idx+1])
		if promo == board.NoPieceType || promo == board.Pawn || promo == board.King {
			return board.NoMove, fmt.Errorf("%w: %q: bad promotion piece", ErrInvalidSAN, text)
		}
		s = s[:idx]
	}

	s = strings.ReplaceAll(s, "x", "")

	pt := board.Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = pieceTypeFromLetter(s[0])
		if pt == board.NoPieceType || pt == board.Pawn {
			return board.NoMove, fmt.Errorf("%w: %q: unknown piece %q", ErrInvalidSAN, text, s[0])
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return board.NoMove, fmt.Errorf("%w: %q: missing destination", ErrInvalidSAN, text)
	}
	to, err := board.ParseSquare(s[len(s)-2:])
	if err != nil {
		return board.NoMove, fmt.Errorf("%w: %q: %v", ErrInvalidSAN, text, err)
	}

	// Remaining characters narrow the source square.
	fromFile, fromRank := -1, -1
	for _, c := range []byte(s[:len(s)-2]) {
		switch {
		case c >= 'a' && c <= 'h':
			fromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			fromRank = int(c - '1')
		default:
			return board.NoMove, fmt.Errorf("%w: %q: unexpected %q", ErrInvalidSAN, text, c)
		}
	}

	match := board.NoMove
	for _, m := range legal {
		if m.To() != to || m.Promotion() != promo {
			continue
		}
		from := m.From()
		if pos.PieceAt(from).Type() != pt {
			continue
		}
		if fromFile >= 0 && from.File() != fromFile {
			continue
		}
		if fromRank >= 0 && from.Rank() != fromRank {
			continue
		}
		if match != board.NoMove {
			return board.NoMove, fmt.Errorf("%w: %q", ErrAmbiguousSAN, text)
		}
		match = m
	}

	if match == board.NoMove {
		return board.NoMove, fmt.Errorf("%w: %q: no legal move matches", ErrInvalidSAN, text)
	}
	return match, nil
}

func pieceTypeFromLetter(c byte) board.PieceType {
	for _, pt := range board.PieceTypes {
		if pt.Letter() == c {
			return pt
		}
	}
	return board.NoPieceType
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
