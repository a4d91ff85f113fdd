package notation

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hailam/tungsten/internal/board"
)

// Game result tokens
const (
	ResultWhiteWins  = "1-0"
	ResultBlackWins  = "0-1"
	ResultDraw       = "1/2-1/2"
	ResultIncomplete = "*"
)

// SevenTagRoster lists the mandatory PGN tags in export order.
var SevenTagRoster = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

var rosterDefaults = map[string]string{
	"Event":  "?",
	"Site":   "?",
	"Date":   "????.??.??",
	"Round":  "?",
	"White":  "?",
	"Black":  "?",
	"Result": ResultIncomplete,
}

// Game is a finished or partial game ready for PGN export.
type Game struct {
	Tags   map[string]string
	Start  board.Position
	Moves  []board.Move
	Result string
}

// WritePGN writes g in PGN export format: the Seven Tag Roster, SetUp and
// FEN tags for a non-standard start, remaining tags sorted by name, a blank
// line, then the movetext terminated by the result token.
func WritePGN(w io.Writer, g Game) error {
	movetext, err := RenderGame(g.Start, g.Moves)
	if err != nil {
		return err
	}

	result := g.Result
	if result == "" {
		result = ResultIncomplete
	}

	tags := make(map[string]string, len(g.Tags)+3)
	for k, v := range g.Tags {
		tags[k] = v
	}
	tags["Result"] = result
	if fen := g.Start.FEN(); fen != board.StartFEN {
		tags["SetUp"] = "1"
		tags["FEN"] = fen
	}

	var sb strings.Builder
	for _, name := range SevenTagRoster {
		v, ok := tags[name]
		if !ok || v == "" {
			v = rosterDefaults[name]
		}
		writeTag(&sb, name, v)
		delete(tags, name)
	}
	for _, name := range []string{"SetUp", "FEN"} {
		if v, ok := tags[name]; ok {
			writeTag(&sb, name, v)
			delete(tags, name)
		}
	}
	rest := make([]string, 0, len(tags))
	for name := range tags {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		writeTag(&sb, name, tags[name])
	}

	sb.WriteByte('\n')
	if movetext != "" {
		sb.WriteString(movetext)
		sb.WriteByte(' ')
	}
	sb.WriteString(result)
	sb.WriteString("\n\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write pgn: %w", err)
	}
	return nil
}

func writeTag(sb *strings.Builder, name, value string) {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	fmt.Fprintf(sb, "[%s \"%s\"]\n", name, value)
}
