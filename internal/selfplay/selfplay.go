// Package selfplay runs games in which the engine plays both sides.
package selfplay

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/hailam/tungsten/internal/board"
	"github.com/hailam/tungsten/internal/engine"
	"github.com/hailam/tungsten/internal/notation"
	"github.com/hailam/tungsten/internal/storage"
)

// Termination is the reason a self-play game ended.
type Termination uint8

const (
	Checkmate Termination = iota
	Stalemate
	ThreefoldRepetition
	FiftyMoveRule
	InsufficientMaterial
	PlyLimit
)

func (t Termination) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case ThreefoldRepetition:
		return "threefold repetition"
	case FiftyMoveRule:
		return "fifty-move rule"
	case InsufficientMaterial:
		return "insufficient material"
	case PlyLimit:
		return "ply limit"
	default:
		return "unknown"
	}
}

// Config configures a self-play run.
type Config struct {
	Logger   zerolog.Logger
	Depth    int // Search depth in plies (0 = engine.DefaultDepth)
	MaxPlies int // Stop unfinished games after this many plies (0 = no limit)
}

// Game is the record of one finished self-play game.
type Game struct {
	Start       board.Position
	Moves       []board.Move
	Scores      []engine.Score  // Search score before each move
	Durations   []time.Duration // Search time of each move
	Result      string          // PGN result token
	Termination Termination
	Depth       int
}

// Timing summarizes per-move search times.
type Timing struct {
	Moves  int
	Total  time.Duration
	Mean   time.Duration
	StdDev time.Duration
	Max    time.Duration
}

// Timing returns the per-move search time summary.
func (g *Game) Timing() Timing {
	t := Timing{Moves: len(g.Durations)}
	if t.Moves == 0 {
		return t
	}

	ns := make([]float64, len(g.Durations))
	for i, d := range g.Durations {
		ns[i] = float64(d)
		t.Total += d
		if d > t.Max {
			t.Max = d
		}
	}

	if t.Moves < 2 {
		t.Mean = t.Total
		return t
	}
	mean, std := stat.MeanStdDev(ns, nil)
	t.Mean = time.Duration(math.Round(mean))
	t.StdDev = time.Duration(math.Round(std))
	return t
}

// Movetext renders the game's moves in SAN.
func (g *Game) Movetext() (string, error) {
	return notation.RenderGame(g.Start, g.Moves)
}

// PGN converts the game into a notation.Game for export.
func (g *Game) PGN(tags map[string]string) notation.Game {
	all := map[string]string{
		"Event":       "Self-play",
		"White":       fmt.Sprintf("tungsten depth %d", g.Depth),
		"Black":       fmt.Sprintf("tungsten depth %d", g.Depth),
		"Termination": g.Termination.String(),
		"PlyCount":    fmt.Sprint(len(g.Moves)),
	}
	for k, v := range tags {
		all[k] = v
	}
	return notation.Game{Tags: all, Start: g.Start, Moves: g.Moves, Result: g.Result}
}

// Record converts the game into an archive record.
func (g *Game) Record() (*storage.GameRecord, error) {
	movetext, err := g.Movetext()
	if err != nil {
		return nil, err
	}

	moves := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		moves[i] = m.String()
	}

	timing := g.Timing()
	return &storage.GameRecord{
		StartFEN:     g.Start.FEN(),
		Moves:        moves,
		Movetext:     movetext,
		Result:       g.Result,
		Termination:  g.Termination.String(),
		Depth:        g.Depth,
		ThinkTime:    timing.Total,
		MeanMoveTime: timing.Mean,
	}, nil
}

// Runner plays self-play games with a fixed-depth engine.
type Runner struct {
	cfg    Config
	log    zerolog.Logger
	engine *engine.Engine
}

// NewRunner creates a self-play runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Depth <= 0 {
		cfg.Depth = engine.DefaultDepth
	}
	return &Runner{
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "selfplay").Logger(),
		engine: engine.NewEngine(cfg.Depth),
	}
}

// Play runs one game from start until it is decided, drawn, or the ply limit
// is reached. The context is checked between moves.
func (r *Runner) Play(ctx context.Context, start board.Position) (*Game, error) {
	g := &Game{Start: start, Depth: r.cfg.Depth}

	r.log.Info().
		Str("fen", start.FEN()).
		Int("depth", r.cfg.Depth).
		Int("max_plies", r.cfg.MaxPlies).
		Msg("starting self-play game")

	pos := start
	seen := map[uint64]int{pos.Hash: 1}

	for {
		if result, term, done := r.adjudicate(pos, seen, len(g.Moves)); done {
			g.Result = result
			g.Termination = term
			break
		}

		if err := ctx.Err(); err != nil {
			return g, fmt.Errorf("self-play interrupted at ply %d: %w", len(g.Moves), err)
		}

		begin := time.Now()
		res := r.engine.Search(pos)
		elapsed := time.Since(begin)

		if res.Move == board.NoMove {
			// Every line loses by force; play the first legal move.
			res.Move = pos.LegalMoves()[0]
		}

		san, err := notation.SAN(pos, res.Move)
		if err != nil {
			return g, fmt.Errorf("render ply %d: %w", len(g.Moves)+1, err)
		}

		r.log.Debug().
			Int("ply", len(g.Moves)+1).
			Str("move", san).
			Str("score", engine.ScoreToString(res.Score)).
			Dur("time", elapsed).
			Msg("eval")

		g.Moves = append(g.Moves, res.Move)
		g.Scores = append(g.Scores, res.Score)
		g.Durations = append(g.Durations, elapsed)

		pos = pos.Apply(res.Move)
		seen[pos.Hash]++
	}

	timing := g.Timing()
	r.log.Info().
		Str("result", g.Result).
		Str("termination", g.Termination.String()).
		Int("plies", len(g.Moves)).
		Dur("mean_move_time", timing.Mean).
		Dur("stddev_move_time", timing.StdDev).
		Msg("game finished")

	return g, nil
}

// adjudicate reports whether the game is over at pos.
func (r *Runner) adjudicate(pos board.Position, seen map[uint64]int, plies int) (string, Termination, bool) {
	switch pos.Status() {
	case board.Checkmate:
		if pos.SideToMove == board.White {
			return notation.ResultBlackWins, Checkmate, true
		}
		return notation.ResultWhiteWins, Checkmate, true
	case board.Stalemate:
		return notation.ResultDraw, Stalemate, true
	}

	switch {
	case seen[pos.Hash] >= 3:
		return notation.ResultDraw, ThreefoldRepetition, true
	case pos.IsFiftyMoveDraw():
		return notation.ResultDraw, FiftyMoveRule, true
	case pos.IsInsufficientMaterial():
		return notation.ResultDraw, InsufficientMaterial, true
	case r.cfg.MaxPlies > 0 && plies >= r.cfg.MaxPlies:
		return notation.ResultIncomplete, PlyLimit, true
	}
	return "", 0, false
}
