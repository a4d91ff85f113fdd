package selfplay

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/hailam/tungsten/internal/board"
	"github.com/hailam/tungsten/internal/notation"
)

func mustFEN(t *testing.T, fen string) board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestPlay(t *testing.T) {
	tests := []struct {
		name        string
		fen         string
		depth       int
		maxPlies    int
		plies       int
		result      string
		termination Termination
	}{
		{"MateInOne", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 1, 0, 1, notation.ResultWhiteWins, Checkmate},
		{"BlackMatesInOne", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", 1, 0, 1, notation.ResultBlackWins, Checkmate},
		{"AlreadyStalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 2, 0, 0, notation.ResultDraw, Stalemate},
		{"BareKings", "3k4/8/8/8/8/8/8/3K4 w - - 0 1", 2, 0, 0, notation.ResultDraw, InsufficientMaterial},
		{"FiftyMoveRule", "4k3/8/8/8/8/8/8/R3K3 w - - 99 80", 1, 0, 1, notation.ResultDraw, FiftyMoveRule},
		{"PlyLimit", board.StartFEN, 1, 4, 4, notation.ResultIncomplete, PlyLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(Config{Logger: zerolog.Nop(), Depth: tt.depth, MaxPlies: tt.maxPlies})
			g, err := r.Play(context.Background(), mustFEN(t, tt.fen))
			if err != nil {
				t.Fatalf("Play: %v", err)
			}
			if len(g.Moves) != tt.plies {
				t.Errorf("plies = %d, want %d", len(g.Moves), tt.plies)
			}
			if g.Result != tt.result {
				t.Errorf("result = %q, want %q", g.Result, tt.result)
			}
			if g.Termination != tt.termination {
				t.Errorf("termination = %s, want %s", g.Termination, tt.termination)
			}
			if len(g.Scores) != len(g.Moves) || len(g.Durations) != len(g.Moves) {
				t.Errorf("records out of step: %d moves, %d scores, %d durations",
					len(g.Moves), len(g.Scores), len(g.Durations))
			}
		})
	}
}

func TestPlayMovetext(t *testing.T) {
	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1})
	g, err := r.Play(context.Background(), mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	text, err := g.Movetext()
	if err != nil {
		t.Fatalf("Movetext: %v", err)
	}
	if text != "1. Ra8#" {
		t.Errorf("Movetext = %q, want %q", text, "1. Ra8#")
	}
}

func TestPlayPGNExport(t *testing.T) {
	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1, MaxPlies: 2})
	g, err := r.Play(context.Background(), board.NewPosition())
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	var buf bytes.Buffer
	if err := notation.WritePGN(&buf, g.PGN(map[string]string{"Site": "localhost"})); err != nil {
		t.Fatalf("WritePGN: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`[Event "Self-play"]`,
		`[Site "localhost"]`,
		`[White "tungsten depth 1"]`,
		`[Result "*"]`,
		`[Termination "ply limit"]`,
		`[PlyCount "2"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PGN missing %s:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, " *\n\n") {
		t.Errorf("PGN does not end with result token:\n%s", out)
	}
}

func TestPlayContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1})
	g, err := r.Play(ctx, board.NewPosition())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(g.Moves) != 0 {
		t.Errorf("plies = %d, want 0", len(g.Moves))
	}
}

func TestPlayLogs(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(Config{Logger: zerolog.New(&buf), Depth: 1})
	if _, err := r.Play(context.Background(), mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"component":"selfplay"`, `"message":"game finished"`, `"result":"1-0"`, `"move":"Ra8#"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}
}

func TestAdjudicateThreefold(t *testing.T) {
	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1})
	pos := board.NewPosition()

	if _, _, done := r.adjudicate(pos, map[uint64]int{pos.Hash: 2}, 10); done {
		t.Error("two occurrences adjudicated as a draw")
	}
	result, term, done := r.adjudicate(pos, map[uint64]int{pos.Hash: 3}, 10)
	if !done || result != notation.ResultDraw || term != ThreefoldRepetition {
		t.Errorf("adjudicate = (%q, %s, %v), want draw by repetition", result, term, done)
	}
}

func TestRepetitionReachedByPlay(t *testing.T) {
	// Knights shuttling out and back repeat the start position.
	start := board.NewPosition()
	pos := start
	seen := map[uint64]int{pos.Hash: 1}
	for i := 0; i < 2; i++ {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			m, err := board.ParseUCI(s, pos)
			if err != nil {
				t.Fatalf("ParseUCI(%q): %v", s, err)
			}
			pos = pos.Apply(m)
			seen[pos.Hash]++
		}
	}
	if seen[start.Hash] != 3 {
		t.Fatalf("start position seen %d times, want 3", seen[start.Hash])
	}

	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1})
	if _, term, done := r.adjudicate(pos, seen, 8); !done || term != ThreefoldRepetition {
		t.Errorf("adjudicate = (%s, %v), want threefold repetition", term, done)
	}
}

func TestTiming(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		want      Timing
	}{
		{"Empty", nil, Timing{}},
		{"Single", []time.Duration{5 * time.Millisecond}, Timing{
			Moves: 1, Total: 5 * time.Millisecond, Mean: 5 * time.Millisecond, Max: 5 * time.Millisecond,
		}},
		{"Three", []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}, Timing{
			Moves:  3,
			Total:  6 * time.Millisecond,
			Mean:   2 * time.Millisecond,
			StdDev: time.Millisecond,
			Max:    3 * time.Millisecond,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{Durations: tt.durations}
			if diff := cmp.Diff(tt.want, g.Timing()); diff != "" {
				t.Errorf("Timing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := NewRunner(Config{Logger: zerolog.Nop(), Depth: 1, MaxPlies: 3})
	g, err := r.Play(context.Background(), board.NewPosition())
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	rec, err := g.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Result != notation.ResultIncomplete || rec.Termination != "ply limit" || rec.Plies() != 3 {
		t.Errorf("unexpected record %+v", rec)
	}

	start, moves, err := rec.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if start != g.Start {
		t.Error("replayed start differs")
	}
	if diff := cmp.Diff(g.Moves, moves); diff != "" {
		t.Errorf("replayed moves (-want +got):\n%s", diff)
	}
}
