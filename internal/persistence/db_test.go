package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func playedCity(t *testing.T) *engine.Simulation {
	t.Helper()
	g := city.Generate(city.DefaultGenConfig())
	s := engine.NewSimulation("Testville", g, entropy.New(3, 0xDEADBEEFCAFEF00D))
	s.Grid.Place(city.KindPowerCoal, 0, 4, 4)
	if err := s.TakeLoan(10000); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		s.Step()
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.CreateCity("Testville", 42)
	if err != nil {
		t.Fatal(err)
	}

	s := playedCity(t)
	want := s.Export()
	if err := db.SaveCity(rec.ID, want); err != nil {
		t.Fatal(err)
	}
	// Saving again replaces the row.
	if err := db.SaveCity(rec.ID, want); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadCity(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("loaded state differs: date %v/%v money %d/%d", got.Date, want.Date, got.Money, want.Money)
	}

	latest, err := db.LatestCity()
	if err != nil || latest.ID != rec.ID {
		t.Fatalf("latest = %+v, %v", latest, err)
	}
}

func TestLoadMissingCity(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LatestCity(); !errors.Is(err, ErrNoCity) {
		t.Fatalf("latest on empty db: %v", err)
	}
	if _, err := db.LoadCity("nope"); !errors.Is(err, ErrNoCity) {
		t.Fatalf("load unknown: %v", err)
	}
	rec, err := db.CreateCity("Unsaved", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadCity(rec.ID); !errors.Is(err, ErrNoCity) {
		t.Fatalf("load unsaved: %v", err)
	}
}

func TestMessagesLog(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.CreateCity("Noisy", 1)
	if err != nil {
		t.Fatal(err)
	}
	ids := []engine.MessageID{engine.MsgFireStarted, engine.MsgTrafficHigh}
	if err := db.AppendMessages(rec.ID, 7, "August 1950", ids); err != nil {
		t.Fatal(err)
	}
	if err := db.AppendMessages(rec.ID, 8, "September 1950", nil); err != nil {
		t.Fatal(err)
	}
	msgs, err := db.RecentMessages(rec.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].MessageID != int(engine.MsgTrafficHigh) || msgs[1].Text != engine.MsgFireStarted.String() {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestStatsHistoryPrune(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.CreateCity("Counted", 1)
	if err != nil {
		t.Fatal(err)
	}
	for tick := int64(1); tick <= 30; tick++ {
		if err := db.RecordStats(rec.ID, StatsRow{Tick: tick, Population: int(tick) * 10}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.StatsHistory(rec.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[0].Tick != 26 || rows[4].Tick != 30 {
		t.Fatalf("history = %+v", rows)
	}

	n, err := db.PruneStats(rec.ID, 12)
	if err != nil {
		t.Fatal(err)
	}
	if n != 18 {
		t.Fatalf("pruned %d rows, want 18", n)
	}
	rows, err = db.StatsHistory(rec.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 12 || rows[0].Tick != 19 {
		t.Fatalf("after prune: %d rows starting at %d", len(rows), rows[0].Tick)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("speed", "2"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("speed", "3"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMeta("speed"); err != nil || v != "3" {
		t.Fatalf("meta = %q, %v", v, err)
	}
	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatal("missing key returned no error")
	}
}
