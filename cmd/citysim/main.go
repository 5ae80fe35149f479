// Command citysim runs a city simulation and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/api"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/config"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/persistence"
)

// tickUpdate is what websocket observers receive after every month.
type tickUpdate struct {
	Tick     uint64        `json:"tick"`
	Status   engine.Status `json:"status"`
	Messages []string      `json:"messages,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("citysim starting", "config", *configPath, "db", cfg.Storage.DBPath)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// ── Load or found the city ────────────────────────────────────────
	sim, cityID, err := loadOrFound(db, cfg.City)
	if err != nil {
		slog.Error("failed to prepare city", "error", err)
		os.Exit(1)
	}
	st := sim.Status()
	slog.Info("city ready",
		"id", cityID,
		"name", st.Name,
		"date", st.DateText,
		"money", humanize.Comma(int64(st.Money)),
		"population", humanize.Comma(int64(st.Stats.Population)),
	)

	// ── Engine ────────────────────────────────────────────────────────
	hub := api.NewHub()

	eng := engine.NewEngine()
	eng.Tick = st.Ticks
	eng.Interval = cfg.Interval()
	eng.SetSpeed(cfg.Engine.Speed)

	eng.OnTick = func(tick uint64) {
		sim.Step()
		status := sim.Status()

		msgs := sim.DrainMessages()
		texts := make([]string, len(msgs))
		for i, id := range msgs {
			texts[i] = id.String()
			slog.Info("city message", "date", status.DateText, "message", texts[i])
		}
		if err := db.AppendMessages(cityID, status.Ticks, status.DateText, msgs); err != nil {
			slog.Error("message log failed", "error", err)
		}
		if err := db.RecordStats(cityID, persistence.StatsRowFrom(status)); err != nil {
			slog.Error("stats record failed", "error", err)
		}
		hub.Publish(tickUpdate{Tick: tick, Status: status, Messages: texts})

		if status.GameOver {
			slog.Warn("city has failed, pausing", "date", status.DateText)
			eng.SetSpeed(0)
		}
	}

	autosave := uint64(max(cfg.Engine.AutosaveQuarters, 1))
	eng.OnQuarter = func(tick uint64) {
		if (tick/engine.TicksPerQuarter)%autosave != 0 {
			return
		}
		if err := db.SaveCity(cityID, sim.Export()); err != nil {
			slog.Error("autosave failed", "error", err)
		}
	}
	eng.OnYear = func(tick uint64) {
		n, err := db.PruneStats(cityID, cfg.Engine.HistoryTicks)
		if err != nil {
			slog.Error("stats prune failed", "error", err)
			return
		}
		if n > 0 {
			slog.Debug("stats pruned", "rows", n)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn(config.AdminKeyEnv + " not set, admin POST endpoints will be disabled")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	apiServer := &api.Server{
		Sim:            sim,
		Eng:            eng,
		DB:             db,
		Hub:            hub,
		CityID:         cityID,
		Port:           cfg.API.Port,
		AdminKey:       cfg.AdminKey,
		SnapshotDir:    cfg.Storage.SnapshotDir,
		EditsPerMinute: cfg.API.EditsPerMinute,
	}
	srv := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\n%s, %s: %s citizens, $%s in the treasury.\n",
		st.Name, st.DateText, humanize.Comma(int64(st.Stats.Population)), humanize.Comma(int64(st.Money)))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveCity(cityID, sim.Export()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. City saved.")
}

// loadOrFound resumes the most recent saved city, or generates a new one
// from the configured parameters and saves it straight away.
func loadOrFound(db *persistence.DB, c config.City) (*engine.Simulation, string, error) {
	rec, err := db.LatestCity()
	switch {
	case err == nil:
		st, err := db.LoadCity(rec.ID)
		if err != nil {
			return nil, "", err
		}
		slog.Info("found saved city, resuming", "id", rec.ID, "name", rec.Name, "date", st.Date.String())
		return engine.Restore(st), rec.ID, nil
	case !errors.Is(err, persistence.ErrNoCity):
		return nil, "", err
	}

	slog.Info("no saved city found, generating a new map...", "seed", c.Seed)
	gen := city.DefaultGenConfig()
	gen.Seed = c.Seed
	gen.WaterOffset = c.WaterOffset
	g := city.Generate(gen)

	counts := city.TerrainCounts(g)
	for k, n := range counts {
		slog.Info("terrain", "kind", k.String(), "count", n)
	}

	var rng *entropy.Source
	if c.Seed != 0 {
		rng = entropy.New(uint32(c.Seed), uint64(c.Seed))
	}
	sim := engine.NewSimulation(c.Name, g, rng)
	sim.Money = c.StartMoney
	sim.Tax = c.Tax
	sim.Date.Year = c.StartYear
	sim.DisastersEnabled = c.Disasters

	rec, err = db.CreateCity(c.Name, c.Seed)
	if err != nil {
		return nil, "", err
	}
	if err := db.SaveCity(rec.ID, sim.Export()); err != nil {
		return nil, "", fmt.Errorf("initial save: %w", err)
	}
	return sim, rec.ID, nil
}
