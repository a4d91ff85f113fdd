package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"

	"github.com/hailam/tungsten/internal/board"
)

func openTemp(t *testing.T) (*Storage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func sampleRecord(result, termination string, plies int) *GameRecord {
	line := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	moves := make([]string, plies)
	for i := range moves {
		moves[i] = line[i%len(line)]
	}
	return &GameRecord{
		StartFEN:     board.StartFEN,
		Moves:        moves,
		Result:       result,
		Termination:  termination,
		Depth:        3,
		ThinkTime:    time.Duration(plies) * time.Millisecond,
		MeanMoveTime: time.Millisecond,
		PlayedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndLoadGame(t *testing.T) {
	s, _ := openTemp(t)

	rec := sampleRecord("1/2-1/2", "threefold repetition", 8)
	rec.Movetext = "1. Nf3 Nf6\n2. Ng1 Ng8\n3. Nf3 Nf6\n4. Ng1 Ng8"
	id, err := s.SaveGame(rec)
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if id != 1 || rec.ID != 1 {
		t.Errorf("first game id = %d (record %d), want 1", id, rec.ID)
	}

	got, err := s.LoadGame(id)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("LoadGame mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadGameNotFound(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.LoadGame(42)
	if !errors.Is(err, ErrGameNotFound) {
		t.Errorf("err = %v, want ErrGameNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	s, _ := openTemp(t)

	if games, err := s.ListGames(0); err != nil || len(games) != 0 {
		t.Fatalf("ListGames on empty archive = %d games, %v", len(games), err)
	}

	for i := 1; i <= 5; i++ {
		if _, err := s.SaveGame(sampleRecord("1-0", "checkmate", i)); err != nil {
			t.Fatalf("SaveGame %d: %v", i, err)
		}
	}

	all, err := s.ListGames(0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	var ids []uint64
	for _, g := range all {
		ids = append(ids, g.ID)
	}
	if diff := cmp.Diff([]uint64{5, 4, 3, 2, 1}, ids); diff != "" {
		t.Errorf("ListGames order (-want +got):\n%s", diff)
	}

	recent, err := s.ListGames(2)
	if err != nil {
		t.Fatalf("ListGames(2): %v", err)
	}
	if len(recent) != 2 || recent[0].ID != 5 || recent[1].ID != 4 {
		t.Errorf("ListGames(2) returned %d games starting at %d", len(recent), recent[0].ID)
	}
}

func TestStats(t *testing.T) {
	s, _ := openTemp(t)

	empty, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.GamesPlayed != 0 || empty.AveragePlies() != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	records := []*GameRecord{
		sampleRecord("1-0", "checkmate", 3),
		sampleRecord("0-1", "checkmate", 6),
		sampleRecord("1/2-1/2", "stalemate", 10),
		sampleRecord("*", "ply limit", 5),
	}
	for _, r := range records {
		if _, err := s.SaveGame(r); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	got, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := &ArchiveStats{
		GamesPlayed:   4,
		WhiteWins:     1,
		BlackWins:     1,
		Draws:         1,
		Unfinished:    1,
		TotalPlies:    24,
		LongestGame:   10,
		TotalThinking: 24 * time.Millisecond,
		ByTermination: map[string]int{"checkmate": 2, "stalemate": 1, "ply limit": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	if avg := got.AveragePlies(); avg != 6 {
		t.Errorf("AveragePlies = %v, want 6", avg)
	}
}

func TestReopenKeepsGames(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, err := s.SaveGame(sampleRecord("1-0", "checkmate", 1))
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if _, err := s.LoadGame(first); err != nil {
		t.Fatalf("LoadGame after reopen: %v", err)
	}
	second, err := s.SaveGame(sampleRecord("0-1", "checkmate", 2))
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if second != first+1 {
		t.Errorf("id after reopen = %d, want %d", second, first+1)
	}
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.GamesPlayed != 2 {
		t.Errorf("GamesPlayed = %d, want 2", stats.GamesPlayed)
	}
}

func TestFailedSaveKeepsIDs(t *testing.T) {
	s, _ := openTemp(t)

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), []byte("{broken"))
	}); err != nil {
		t.Fatalf("corrupt stats: %v", err)
	}
	rec := sampleRecord("1-0", "checkmate", 1)
	if _, err := s.SaveGame(rec); err == nil {
		t.Fatal("SaveGame succeeded with corrupt stats")
	}
	if rec.ID != 0 {
		t.Errorf("failed save left ID %d on the record", rec.ID)
	}
	if games, err := s.ListGames(0); err != nil || len(games) != 0 {
		t.Fatalf("ListGames = %d games, %v; want none", len(games), err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyStats))
	}); err != nil {
		t.Fatalf("repair stats: %v", err)
	}
	id, err := s.SaveGame(sampleRecord("1-0", "checkmate", 1))
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if id != 1 {
		t.Errorf("id after failed save = %d, want 1", id)
	}
}

func TestConcurrentSaves(t *testing.T) {
	s, _ := openTemp(t)

	const workers, perWorker = 4, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.SaveGame(sampleRecord("1/2-1/2", "stalemate", 2)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("SaveGame: %v", err)
	}

	games, err := s.ListGames(0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	var ids []uint64
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	want := make([]uint64, workers*perWorker)
	for i := range want {
		want[i] = uint64(len(want) - i)
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("game ids (-want +got):\n%s", diff)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.GamesPlayed != workers*perWorker {
		t.Errorf("GamesPlayed = %d, want %d", stats.GamesPlayed, workers*perWorker)
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	id, err := s.SaveGame(sampleRecord("1-0", "checkmate", 1))
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if _, err := s.LoadGame(id); err != nil {
		t.Errorf("LoadGame: %v", err)
	}
}

func TestReplay(t *testing.T) {
	rec := sampleRecord("*", "ply limit", 4)
	start, moves, err := rec.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if start != board.NewPosition() {
		t.Error("start position differs from the standard position")
	}
	if len(moves) != 4 || moves[0].String() != "g1f3" {
		t.Errorf("moves = %v", moves)
	}

	rec.Moves = append(rec.Moves, "e2e5")
	if _, _, err := rec.Replay(); err == nil {
		t.Error("expected error for illegal archived move")
	}

	rec.StartFEN = "not a fen"
	if _, _, err := rec.Replay(); !errors.Is(err, board.ErrInvalidFEN) {
		t.Errorf("err = %v, want ErrInvalidFEN", err)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dbDir, err := DatabaseDir()
	if err != nil {
		t.Fatalf("DatabaseDir: %v", err)
	}
	if want := filepath.Join(base, appName, "games"); dbDir != want {
		t.Errorf("DatabaseDir = %s, want %s", dbDir, want)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}
