// Tungsten - a depth-limited alpha-beta chess engine with self-play tooling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tungsten/internal/board"
	"github.com/hailam/tungsten/internal/engine"
	"github.com/hailam/tungsten/internal/notation"
	"github.com/hailam/tungsten/internal/selfplay"
	"github.com/hailam/tungsten/internal/storage"
	"github.com/hailam/tungsten/internal/uci"
)

const usageText = `Usage: tungsten <command> [flags]

Commands:
  play-self   let the engine play both sides from a position
  games       list archived self-play games and statistics
  eval        print the static evaluation of a position
  perft       count leaf nodes of the legal move tree
  uci         speak UCI on stdin/stdout

Run "tungsten <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "play-self":
		err = runPlaySelf(args)
	case "games":
		err = runGames(args)
	case "eval":
		err = runEval(args)
	case "perft":
		err = runPerft(args)
	case "uci":
		err = runUCI(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usageText)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usageText)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log := newLogger(false)
		log.Error().Err(err).Str("cmd", cmd).Msg("command failed")
		os.Exit(1)
	}
}

// newLogger returns a colored console logger on stderr.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// startProfile starts CPU profiling to path and returns the stop function.
func startProfile(path string, log zerolog.Logger) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	log.Info().Str("path", path).Msg("CPU profiling enabled")
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

// parsePosition parses fen and plays the SAN moves of line on top of it.
// Move numbers such as "1." or "3..." in line are skipped.
func parsePosition(fen, line string) (board.Position, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return board.Position{}, fmt.Errorf("position %q: %w", fen, err)
	}
	for _, tok := range strings.Fields(line) {
		if i := strings.LastIndexByte(tok, '.'); i >= 0 {
			tok = tok[i+1:]
		}
		if tok == "" {
			continue
		}
		m, err := notation.ParseSAN(pos, tok)
		if err != nil {
			return board.Position{}, fmt.Errorf("opening move %q: %w", tok, err)
		}
		pos = pos.Apply(m)
	}
	return pos, nil
}

func runPlaySelf(args []string) error {
	fs := flag.NewFlagSet("play-self", flag.ContinueOnError)
	position := fs.String("position", board.StartFEN, "starting position in FEN")
	opening := fs.String("moves", "", "SAN moves played from -position before the engine takes over")
	depth := fs.Int("depth", 0, "search depth in plies (required)")
	outputPGN := fs.Bool("output-pgn", false, "print a full PGN record instead of bare movetext")
	maxPlies := fs.Int("max-plies", 500, "stop the game unfinished after this many plies (0 = no limit)")
	dbDir := fs.String("db", "", "game archive directory (default: platform data dir)")
	noSave := fs.Bool("no-save", false, "do not archive the finished game")
	verbose := fs.Bool("v", false, "log every move")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := newLogger(*verbose)
	if *depth <= 0 {
		return fmt.Errorf("-depth must be a positive number of plies")
	}

	log.Info().
		Str("cmd", "play-self").
		Str("position", *position).
		Int("depth", *depth).
		Msg("starting")

	start, err := parsePosition(*position, *opening)
	if err != nil {
		return err
	}

	stop, err := startProfile(*cpuprofile, log)
	if err != nil {
		return err
	}
	defer stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	runner := selfplay.NewRunner(selfplay.Config{
		Logger:   log,
		Depth:    *depth,
		MaxPlies: *maxPlies,
	})
	game, err := runner.Play(ctx, start)
	if err != nil {
		return err
	}

	if *outputPGN {
		if err := notation.WritePGN(os.Stdout, game.PGN(map[string]string{
			"Date": time.Now().Format("2006.01.02"),
		})); err != nil {
			return err
		}
	} else {
		movetext, err := game.Movetext()
		if err != nil {
			return err
		}
		fmt.Println(movetext)
	}

	if *noSave {
		return nil
	}
	return archiveGame(*dbDir, game, log)
}

func archiveGame(dir string, game *selfplay.Game, log zerolog.Logger) error {
	rec, err := game.Record()
	if err != nil {
		return err
	}

	store, err := storage.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveGame(rec)
	if err != nil {
		return err
	}
	log.Info().Uint64("id", id).Msg("game archived")
	return nil
}

func runGames(args []string) error {
	fs := flag.NewFlagSet("games", flag.ContinueOnError)
	dbDir := fs.String("db", "", "game archive directory (default: platform data dir)")
	limit := fs.Int("n", 10, "number of recent games to list (0 = all)")
	show := fs.Uint64("show", 0, "print the PGN of the game with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(*dbDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if *show != 0 {
		return showGame(os.Stdout, store, *show)
	}

	games, err := store.ListGames(*limit)
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Printf("#%-5d %-8s %-22s depth %-2d plies %-4d %s\n",
			g.ID, g.Result, g.Termination, g.Depth, g.Plies(), g.PlayedAt.Format(time.DateTime))
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\nGames: %d  White wins: %d  Black wins: %d  Draws: %d  Unfinished: %d\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.Unfinished)
	fmt.Printf("Average length: %.1f plies  Longest: %d plies  Thinking time: %v\n",
		stats.AveragePlies(), stats.LongestGame, stats.TotalThinking)
	for term, n := range stats.ByTermination {
		fmt.Printf("  %-22s %d\n", term, n)
	}
	return nil
}

func showGame(w io.Writer, store *storage.Storage, id uint64) error {
	rec, err := store.LoadGame(id)
	if err != nil {
		return err
	}
	start, moves, err := rec.Replay()
	if err != nil {
		return err
	}
	return notation.WritePGN(w, notation.Game{
		Tags: map[string]string{
			"Event":       "Self-play",
			"Date":        rec.PlayedAt.Format("2006.01.02"),
			"Round":       fmt.Sprint(rec.ID),
			"White":       fmt.Sprintf("tungsten depth %d", rec.Depth),
			"Black":       fmt.Sprintf("tungsten depth %d", rec.Depth),
			"Termination": rec.Termination,
		},
		Start:  start,
		Moves:  moves,
		Result: rec.Result,
	})
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	position := fs.String("position", board.StartFEN, "position in FEN")
	opening := fs.String("moves", "", "SAN moves played from -position before evaluating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pos, err := parsePosition(*position, *opening)
	if err != nil {
		return err
	}

	white, black := engine.MaterialTotals(pos)
	fmt.Printf("Material: white %.1f black %.1f\n", white, black)
	fmt.Printf("Evaluation: %s\n", engine.ScoreToString(engine.Evaluate(pos)))
	fmt.Printf("Status: %s\n", pos.Status())
	return nil
}

func runPerft(args []string) error {
	fs := flag.NewFlagSet("perft", flag.ContinueOnError)
	position := fs.String("position", board.StartFEN, "position in FEN")
	depth := fs.Int("depth", 4, "perft depth")
	divide := fs.Bool("divide", false, "print the count below each root move")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pos, err := parsePosition(*position, "")
	if err != nil {
		return err
	}
	if *depth < 0 {
		return fmt.Errorf("-depth must not be negative")
	}

	start := time.Now()
	var nodes uint64
	if *divide && *depth > 0 {
		for _, e := range engine.Divide(pos, *depth) {
			fmt.Printf("%s: %d\n", e.Move, e.Nodes)
			nodes += e.Nodes
		}
		fmt.Println()
	} else {
		nodes = engine.Perft(pos, *depth)
	}
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
	return nil
}

func runUCI(args []string) error {
	fs := flag.NewFlagSet("uci", flag.ContinueOnError)
	depth := fs.Int("depth", engine.DefaultDepth, "default search depth in plies")
	verbose := fs.Bool("v", false, "debug logging on stderr")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := newLogger(*verbose)
	stop, err := startProfile(*cpuprofile, log)
	if err != nil {
		return err
	}
	defer stop()

	protocol := uci.New(engine.NewEngine(*depth), os.Stdin, os.Stdout, log)
	return protocol.Run()
}
