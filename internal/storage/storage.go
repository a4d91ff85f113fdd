package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/tungsten/internal/board"
)

// Storage keys
const (
	keyStats    = "stats"
	keyLastGame = "last/game"
	prefixGames = "game/"
)

// ErrGameNotFound is returned when no archived game has the requested ID.
var ErrGameNotFound = errors.New("game not found")

// GameRecord is an archived game.
type GameRecord struct {
	ID           uint64        `json:"id"`
	StartFEN     string        `json:"start_fen"`
	Moves        []string      `json:"moves"` // UCI notation
	Movetext     string        `json:"movetext"`
	Result       string        `json:"result"`
	Termination  string        `json:"termination"`
	Depth        int           `json:"depth"`
	ThinkTime    time.Duration `json:"think_time"`
	MeanMoveTime time.Duration `json:"mean_move_time"`
	PlayedAt     time.Time     `json:"played_at"`
}

// Plies returns the number of half-moves in the game.
func (r *GameRecord) Plies() int {
	return len(r.Moves)
}

// Replay parses the start position and moves of the record.
func (r *GameRecord) Replay() (board.Position, []board.Move, error) {
	start, err := board.ParseFEN(r.StartFEN)
	if err != nil {
		return board.Position{}, nil, fmt.Errorf("game %d: %w", r.ID, err)
	}

	moves := make([]board.Move, 0, len(r.Moves))
	pos := start
	for i, s := range r.Moves {
		m, err := board.ParseUCI(s, pos)
		if err != nil {
			return board.Position{}, nil, fmt.Errorf("game %d ply %d: %w", r.ID, i+1, err)
		}
		moves = append(moves, m)
		pos = pos.Apply(m)
	}
	return start, moves, nil
}

// ArchiveStats aggregates every archived game.
type ArchiveStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	Unfinished    int            `json:"unfinished"`
	TotalPlies    int            `json:"total_plies"`
	LongestGame   int            `json:"longest_game"`
	TotalThinking time.Duration  `json:"total_thinking"`
	ByTermination map[string]int `json:"by_termination"`
}

// NewArchiveStats returns empty statistics.
func NewArchiveStats() *ArchiveStats {
	return &ArchiveStats{ByTermination: make(map[string]int)}
}

// AveragePlies returns the mean game length in plies.
func (s *ArchiveStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func (s *ArchiveStats) add(r *GameRecord) {
	s.GamesPlayed++
	switch r.Result {
	case "1-0":
		s.WhiteWins++
	case "0-1":
		s.BlackWins++
	case "1/2-1/2":
		s.Draws++
	default:
		s.Unfinished++
	}
	s.TotalPlies += r.Plies()
	if r.Plies() > s.LongestGame {
		s.LongestGame = r.Plies()
	}
	s.TotalThinking += r.ThinkTime
	if r.Termination != "" {
		s.ByTermination[r.Termination]++
	}
}

// Storage is a badger-backed game archive. It is safe for concurrent use.
type Storage struct {
	db *badger.DB
}

// Open opens the archive in dir, creating it if needed.
// An empty dir selects DatabaseDir().
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = DatabaseDir(); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	return open(opts)
}

// OpenInMemory opens an archive that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func gameKey(id uint64) []byte {
	key := make([]byte, len(prefixGames)+8)
	copy(key, prefixGames)
	binary.BigEndian.PutUint64(key[len(prefixGames):], id)
	return key
}

// SaveGame assigns rec the next game ID, stores it and updates the
// aggregate statistics. The ID is allocated in the same transaction, so a
// failed save does not use up an ID.
func (s *Storage) SaveGame(rec *GameRecord) (uint64, error) {
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			return saveGame(txn, rec)
		})
		if errors.Is(err, badger.ErrConflict) {
			// Another save committed first; take the next ID.
			continue
		}
		if err != nil {
			rec.ID = 0
			return 0, fmt.Errorf("save game: %w", err)
		}
		return rec.ID, nil
	}
}

func saveGame(txn *badger.Txn, rec *GameRecord) error {
	var last uint64
	item, err := txn.Get([]byte(keyLastGame))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return err
	default:
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt game counter (%d bytes)", len(val))
			}
			last = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}
	}
	rec.ID = last + 1

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	stats, err := loadStats(txn)
	if err != nil {
		return err
	}
	stats.add(rec)
	statsData, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, rec.ID)
	if err := txn.Set([]byte(keyLastGame), counter); err != nil {
		return err
	}
	if err := txn.Set(gameKey(rec.ID), data); err != nil {
		return err
	}
	return txn.Set([]byte(keyStats), statsData)
}

// LoadGame loads the game with the given ID.
func (s *Storage) LoadGame(id uint64) (*GameRecord, error) {
	var rec GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("game %d: %w", id, ErrGameNotFound)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListGames returns up to limit games, newest first. A non-positive limit
// returns every game.
func (s *Storage) ListGames(limit int) ([]GameRecord, error) {
	var games []GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixGames)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(prefixGames), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefixGames)); it.Next() {
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			games = append(games, rec)
			if limit > 0 && len(games) >= limit {
				break
			}
		}
		return nil
	})

	return games, err
}

// Stats loads the aggregate statistics, empty if nothing was archived yet.
func (s *Storage) Stats() (*ArchiveStats, error) {
	var stats *ArchiveStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*ArchiveStats, error) {
	stats := NewArchiveStats()

	item, err := txn.Get([]byte(keyStats))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if stats.ByTermination == nil {
		stats.ByTermination = make(map[string]int)
	}
	return stats, err
}
