// Package uci implements the Universal Chess Interface front end.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tungsten/internal/board"
	"github.com/hailam/tungsten/internal/engine"
	"github.com/hailam/tungsten/internal/notation"
)

// UCI implements the Universal Chess Interface protocol.
// Searches run synchronously on the reading goroutine.
type UCI struct {
	engine   *engine.Engine
	position board.Position
	in       io.Reader
	out      io.Writer
	log      zerolog.Logger
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, log zerolog.Logger) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		in:       in,
		out:      out,
		log:      log.With().Str("component", "uci").Logger(),
	}
}

// Position returns the current position.
func (u *UCI) Position() board.Position {
	return u.position
}

// Run reads commands until "quit" or end of input.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			// Searches are synchronous; nothing is running by now.
		case "setoption":
			u.handleSetOption(args)
		case "quit":
			return nil
		// Debug commands
		case "d":
			u.println(u.position.String())
		case "eval":
			u.handleEval()
		case "perft":
			u.handlePerft(args)
		default:
			u.log.Debug().Str("command", cmd).Msg("unknown command")
			u.printf("info string unknown command %s\n", cmd)
		}
	}

	return scanner.Err()
}

func (u *UCI) println(s string) {
	fmt.Fprintln(u.out, s)
}

func (u *UCI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name Tungsten")
	u.println("id author Tungsten Team")
	u.println("")
	u.printf("option name Depth type spin default %d min 1 max 32\n", engine.DefaultDepth)
	u.println("uciok")
}

// handleNewGame resets the position for a new game.
func (u *UCI) handleNewGame() {
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		p, err := board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.log.Warn().Err(err).Msg("rejected position")
			u.printf("info string Invalid FEN: %v\n", err)
			return
		}
		pos = p
	default:
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := board.ParseUCI(s, pos)
			if err != nil {
				// Some front ends send SAN.
				m, err = notation.ParseSAN(pos, s)
			}
			if err != nil {
				u.log.Warn().Err(err).Str("move", s).Msg("rejected move")
				u.printf("info string Invalid move: %s\n", s)
				return
			}
			pos = pos.Apply(m)
		}
	}

	u.position = pos
}

// handleGo runs a search. Only "depth" is honored; clock arguments are
// accepted and ignored since the search is depth-limited.
func (u *UCI) handleGo(args []string) {
	depth := u.engine.Depth()
	for i := 0; i < len(args); i++ {
		if args[i] == "depth" && i+1 < len(args) {
			if d, err := strconv.Atoi(args[i+1]); err == nil && d > 0 {
				depth = d
			}
			i++
		}
	}

	saved := u.engine.Depth()
	u.engine.SetDepth(depth)
	defer u.engine.SetDepth(saved)

	u.engine.OnInfo = u.sendInfo
	defer func() { u.engine.OnInfo = nil }()

	res := u.engine.Search(u.position)

	u.log.Debug().
		Int("depth", depth).
		Str("move", res.Move.String()).
		Str("score", engine.ScoreToString(res.Score)).
		Msg("search finished")

	move := res.Move
	if move == board.NoMove {
		// Lost in every line, or no legal moves at all.
		if legal := u.position.LegalMoves(); len(legal) > 0 {
			move = legal[0]
		}
	}
	if move == board.NoMove {
		u.println("bestmove 0000")
		return
	}
	u.printf("bestmove %s\n", move)
}

// sendInfo outputs search info in UCI format. Scores are reported from the
// side to move's point of view.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	cp := info.Score.Centipawns()
	if u.position.SideToMove == board.Black {
		cp = -cp
	}

	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("score cp %d", cp),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.Move != board.NoMove {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleSetOption processes "setoption name Depth value <n>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		d, err := strconv.Atoi(strings.Join(value, ""))
		if err != nil || d <= 0 {
			u.printf("info string Invalid depth: %s\n", strings.Join(value, " "))
			return
		}
		u.engine.SetDepth(d)
	default:
		u.printf("info string Unknown option: %s\n", strings.Join(name, " "))
	}
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	score := u.engine.Evaluate(u.position)
	white, black := engine.MaterialTotals(u.position)
	u.printf("Material: white %.1f black %.1f\n", white, black)
	u.printf("Evaluation: %s (white side)\n", engine.ScoreToString(score))
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 {
			u.printf("info string Invalid perft depth: %s\n", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	var nodes uint64
	for _, e := range engine.Divide(u.position, depth) {
		u.printf("%s: %d\n", e.Move, e.Nodes)
		nodes += e.Nodes
	}
	if depth == 0 {
		nodes = 1
	}
	elapsed := time.Since(start)

	u.printf("\nNodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.printf("NPS: %.0f\n", nps)
	}
}
