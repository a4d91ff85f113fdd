package board

import (
	"errors"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		// back rank: pawns on g7 and h7 block the king
		{"BackRankMate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", Checkmate},
		// the king can take the unprotected rook
		{"KingCapturesChecker", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", Ongoing},
		{"CornerStalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"StartingPosition", StartFEN, Ongoing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := pos.Status(); got != tc.want {
				t.Errorf("Status() = %v, want %v", got, tc.want)
			}
			if got := pos.IsCheckmate(); got != (tc.want == Checkmate) {
				t.Errorf("IsCheckmate() = %v", got)
			}
			if got := pos.IsStalemate(); got != (tc.want == Stalemate) {
				t.Errorf("IsStalemate() = %v", got)
			}
		})
	}
}

func TestInCheck(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.InCheck() {
		t.Error("white should not be in check")
	}

	next := pos.Apply(NewMove(H1, H8))
	if !next.InCheck() {
		t.Error("black should be in check after Rh8")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"3k4/8/8/8/8/8/8/3K4 w - - 0 1", true},
		{"3k4/8/8/8/8/8/8/2NK4 w - - 0 1", true},
		{"3k4/8/8/8/8/8/8/1BNK4 w - - 0 1", false},
		{"3k4/8/8/8/8/8/P7/3K4 w - - 0 1", false},
		{"3kb3/8/8/8/8/8/8/2NK4 w - - 0 1", false},
	}

	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		if got := pos.IsInsufficientMaterial(); got != tc.want {
			t.Errorf("IsInsufficientMaterial(%q) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8 w - -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNZ w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"8/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K2P w - - 0 1",
		"4k3/4R3/8/8/8/8/8/4K3 w - - 0 1",
		// En passant square that no double push could have produced.
		"4k3/8/8/3Pq3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d3 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 b - d6 0 1",
		"4k3/8/3n4/3pP3/8/8/8/4K3 w - d6 0 1",
		"4k3/3r4/8/3pP3/8/8/8/4K3 w - d6 0 1",
		"4k3/8/8/8/8/8/8/4K3 b - d3 0 1",
	}

	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestEnPassantAfterDoublePush(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e2e4", "d7d5", "e4e5", "f7f5"} {
		m, err := ParseUCI(s, pos)
		if err != nil {
			t.Fatalf("ParseUCI(%q): %v", s, err)
		}
		pos = pos.Apply(m)
		if _, err := ParseFEN(pos.FEN()); err != nil {
			t.Errorf("after %s: ParseFEN(%q): %v", s, pos.FEN(), err)
		}
	}
	if pos.EnPassant.String() != "f6" {
		t.Errorf("EnPassant = %s, want f6", pos.EnPassant)
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 b - - 12 40",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
	}
}
