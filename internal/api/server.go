// Package api provides the HTTP API for observing and editing the city.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/persistence"
)

// Server serves the city over HTTP.
type Server struct {
	Sim         *engine.Simulation
	Eng         *engine.Engine
	DB          *persistence.DB
	Hub         *Hub
	CityID      string
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	SnapshotDir string // Where POST /snapshot writes files. Empty = database only.

	EditsPerMinute int
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	perMinute := s.EditsPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	editLimiter := NewRateLimiter(perMinute, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/tile/", s.handleTile)
	mux.HandleFunc("/api/v1/budget", s.handleBudget)
	mux.HandleFunc("/api/v1/graphs", s.handleGraphs)
	mux.HandleFunc("/api/v1/messages", s.handleMessages)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	if s.Hub != nil {
		mux.HandleFunc("/api/v1/ws", s.Hub.ServeWS)
	}

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/build", s.adminOnly(RateLimitMiddleware(editLimiter, s.handleBuild)))
	mux.HandleFunc("/api/v1/bulldoze", s.adminOnly(RateLimitMiddleware(editLimiter, s.handleBulldoze)))
	mux.HandleFunc("/api/v1/tax", s.adminOnly(s.handleTax))
	mux.HandleFunc("/api/v1/loan", s.adminOnly(s.handleLoan))
	mux.HandleFunc("/api/v1/disaster", s.adminOnly(s.handleDisaster))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server is
// for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS holds a comma-separated list; localhost dev servers are
// always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CITYSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

type statusResponse struct {
	engine.Status
	CityID    string  `json:"city_id"`
	MoneyText string  `json:"money_text"`
	Speed     float64 `json:"speed"`
	Running   bool    `json:"running"`
	Observers int     `json:"observers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	resp := statusResponse{
		Status:    st,
		CityID:    s.CityID,
		MoneyText: humanize.Comma(int64(st.Money)),
	}
	if s.Eng != nil {
		resp.Speed = s.Eng.Speed()
		resp.Running = s.Eng.Running()
	}
	if s.Hub != nil {
		resp.Observers = s.Hub.Observers()
	}
	writeJSON(w, resp)
}

// handleMap returns the whole grid as flat row-major arrays, plus the
// overlays (base64 byte maps) when ?overlays=1.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	g := s.Sim.MapSnapshot()
	n := len(g.Tiles)
	kinds := make([]int, n)
	flags := make([]int, n)
	variants := make([]int, n)
	for i, t := range g.Tiles {
		kinds[i] = int(t.Kind)
		flags[i] = int(t.Flags)
		variants[i] = int(t.Variant)
	}

	legend := map[uint8]string{}
	for k := city.Kind(0); k.Valid(); k++ {
		legend[uint8(k)] = k.String()
	}

	resp := map[string]any{
		"width":    city.Width,
		"height":   city.Height,
		"kinds":    kinds,
		"flags":    flags,
		"variants": variants,
		"legend":   legend,
	}
	if r.URL.Query().Get("overlays") == "1" {
		resp["overlays"] = s.Sim.Overlays()
	}
	writeJSON(w, resp)
}

// handleTile serves GET /api/v1/tile/{x}/{y}.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/tile/"), "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "want /api/v1/tile/{x}/{y}", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}
	info, err := s.Sim.TileInfo(x, y)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	writeJSON(w, map[string]any{
		"money":     st.Money,
		"tax":       st.Tax,
		"loan":      st.Loan,
		"projected": s.Sim.ProjectBudget(),
		"last":      s.Sim.LastBudget(),
	})
}

type graphResponse struct {
	Shift   int   `json:"shift"`
	Samples []int `json:"samples"`
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	g := s.Sim.GraphSeries()
	series := func(gr engine.Graph) graphResponse {
		return graphResponse{Shift: gr.Shift, Samples: gr.Samples()}
	}
	writeJSON(w, map[string]graphResponse{
		"population":  series(g.Population),
		"residential": series(g.Residential),
		"commercial":  series(g.Commercial),
		"industrial":  series(g.Industrial),
		"funds":       series(g.Funds),
	})
}

func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= max {
			return v
		}
	}
	return def
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	msgs, err := s.DB.RecentMessages(s.CityID, queryLimit(r, 20, 200))
	if err != nil {
		slog.Error("messages query failed", "error", err)
		http.Error(w, "messages unavailable", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []persistence.MessageRecord{}
	}
	writeJSON(w, msgs)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	rows, err := s.DB.StatsHistory(s.CityID, queryLimit(r, 120, 1000))
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// The table may simply be empty this early.
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

var networkFlags = map[string]city.Flags{
	"road":  city.FlagRoad,
	"rail":  city.FlagTrain,
	"power": city.FlagPower,
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Kind    string `json:"kind"`
		Network string `json:"network"`
		X       int    `json:"x"`
		Y       int    `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var err error
	switch {
	case req.Network != "":
		f, ok := networkFlags[req.Network]
		if !ok {
			http.Error(w, "network must be road, rail or power", http.StatusBadRequest)
			return
		}
		err = s.Sim.BuildNetwork(req.X, req.Y, f)
	default:
		k, ok := city.KindByName(req.Kind)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown kind %q", req.Kind), http.StatusBadRequest)
			return
		}
		err = s.Sim.Build(k, req.X, req.Y)
	}
	if err != nil {
		editError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "money": s.Sim.Status().Money})
}

func (s *Server) handleBulldoze(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Sim.Bulldoze(req.X, req.Y); err != nil {
		editError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "money": s.Sim.Status().Money})
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Tax int `json:"tax"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.Sim.SetTax(req.Tax); err != nil {
			editError(w, err)
			return
		}
		slog.Info("tax changed", "tax", req.Tax)
	}
	writeJSON(w, map[string]int{"tax": s.Sim.Status().Tax})
}

func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Sim.TakeLoan(req.Amount); err != nil {
		editError(w, err)
		return
	}
	st := s.Sim.Status()
	writeJSON(w, map[string]any{"money": st.Money, "loan": st.Loan})
}

func (s *Server) handleDisaster(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Type    string `json:"type"`
		Enabled *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Enabled != nil {
		s.Sim.SetDisastersEnabled(*req.Enabled)
		slog.Info("random disasters toggled", "enabled", *req.Enabled)
	}

	queued := false
	switch req.Type {
	case "":
	case "fire":
		queued = s.Sim.RequestDisaster(engine.DisasterFire)
	case "meltdown":
		queued = s.Sim.RequestDisaster(engine.DisasterMeltdown)
	default:
		http.Error(w, "type must be fire or meltdown", http.StatusBadRequest)
		return
	}
	if req.Type != "" && !queued {
		http.Error(w, "a disaster is already pending or under way", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"queued": queued, "disasters_enabled": s.Sim.Status().DisastersEnabled})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	st := s.Sim.Export()
	if err := s.DB.SaveCity(s.CityID, st); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"ticks":   st.Ticks,
		"date":    st.Date.String(),
		"message": "snapshot saved",
	}
	if s.SnapshotDir != "" {
		path := filepath.Join(s.SnapshotDir, fmt.Sprintf("%s-%06d.zst", s.CityID, st.Ticks))
		snap := persistence.Snapshot{
			Header: persistence.Header{CityID: s.CityID, Name: st.Name, Ticks: st.Ticks, Date: st.Date.String()},
			State:  st,
		}
		if err := persistence.WriteSnapshot(path, snap); err != nil {
			slog.Error("snapshot file write failed", "path", path, "error", err)
			http.Error(w, "snapshot file failed", http.StatusInternalServerError)
			return
		}
		resp["file"] = path
	}
	writeJSON(w, resp)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// editError maps a rejected edit to an HTTP status.
func editError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBusy):
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
	case errors.Is(err, city.ErrOutOfBounds), errors.Is(err, city.ErrNotPlaceable),
		errors.Is(err, engine.ErrTax), errors.Is(err, engine.ErrLoanAmount):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrInsufficientFunds), errors.Is(err, engine.ErrTechnology),
		errors.Is(err, engine.ErrClass), errors.Is(err, engine.ErrLoanActive),
		errors.Is(err, city.ErrBlocked), errors.Is(err, city.ErrNetwork), errors.Is(err, city.ErrNothing):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
