package notation

import (
	"strconv"
	"strings"

	"github.com/hailam/tungsten/internal/board"
)

// MovesToSAN replays moves from start and returns the SAN of each one.
// A failure is reported as a *ReplayError carrying the 1-based ply.
func MovesToSAN(start board.Position, moves []board.Move) ([]string, error) {
	sans := make([]string, 0, len(moves))
	pos := start
	for i, m := range moves {
		san, err := SAN(pos, m)
		if err != nil {
			return nil, &ReplayError{Err: err, Ply: i + 1, Move: m}
		}
		sans = append(sans, san)
		pos = pos.Apply(m)
	}
	return sans, nil
}

// RenderGame assembles the movetext of a game: moves are numbered in pairs,
// a white move is followed by a space and a black move by a line break.
func RenderGame(start board.Position, moves []board.Move) (string, error) {
	sans, err := MovesToSAN(start, moves)
	if err != nil {
		return "", err
	}
	return joinMovetext(sans), nil
}

func joinMovetext(sans []string) string {
	var sb strings.Builder
	for i, san := range sans {
		if i%2 == 0 {
			sb.WriteString(strconv.Itoa(i/2 + 1))
			sb.WriteString(". ")
		}
		sb.WriteString(san)
		if i%2 == 1 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return strings.TrimSpace(sb.String())
}
