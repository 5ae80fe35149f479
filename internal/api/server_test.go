package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/persistence"
)

const testKey = "s3cret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	rec, err := db.CreateCity("test", 1)
	if err != nil {
		t.Fatal(err)
	}

	sim := engine.NewSimulation("test", city.NewGrid(), entropy.New(1, 2))
	sim.SetDisastersEnabled(false)
	return &Server{
		Sim:            sim,
		Eng:            engine.NewEngine(),
		DB:             db,
		CityID:         rec.ID,
		AdminKey:       testKey,
		EditsPerMinute: 100,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if method == http.MethodPost {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["city_id"] != s.CityID || got["name"] != "test" {
		t.Fatalf("status body = %v", got)
	}
	if got["money_text"] != "20,000" {
		t.Fatalf("money_text = %v", got["money_text"])
	}
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name     string
		adminKey string
		header   string
		want     int
	}{
		{"disabled", "", "Bearer anything", http.StatusForbidden},
		{"missing header", testKey, "", http.StatusUnauthorized},
		{"wrong token", testKey, "Bearer nope", http.StatusUnauthorized},
		{"not bearer", testKey, testKey, http.StatusUnauthorized},
		{"ok", testKey, "Bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.AdminKey = tt.adminKey
			req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed":2}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	// GET on a mixed endpoint needs no token.
	s := newTestServer(t)
	if rec := do(t, s.Handler(), http.MethodGet, "/api/v1/speed", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET speed = %d", rec.Code)
	}
}

func TestSpeedRange(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", map[string]float64{"speed": 101}); rec.Code != http.StatusBadRequest {
		t.Fatalf("speed 101 = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", map[string]float64{"speed": 0}); rec.Code != http.StatusOK {
		t.Fatalf("speed 0 = %d", rec.Code)
	}
	if s.Eng.Speed() != 0 {
		t.Fatalf("engine speed = %v", s.Eng.Speed())
	}
}

func TestBuildEndpoints(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	start := s.Sim.Status().Money

	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{"police", "/api/v1/build", map[string]any{"kind": "police", "x": 10, "y": 10}, http.StatusOK},
		{"occupied", "/api/v1/build", map[string]any{"kind": "police", "x": 11, "y": 11}, http.StatusConflict},
		{"unknown kind", "/api/v1/build", map[string]any{"kind": "castle", "x": 0, "y": 0}, http.StatusBadRequest},
		{"off map", "/api/v1/build", map[string]any{"kind": "park_small", "x": 70, "y": 0}, http.StatusBadRequest},
		{"dock by hand", "/api/v1/build", map[string]any{"kind": "dock", "x": 0, "y": 0}, http.StatusBadRequest},
		{"road", "/api/v1/build", map[string]any{"network": "road", "x": 0, "y": 0}, http.StatusOK},
		{"canal", "/api/v1/build", map[string]any{"network": "canal", "x": 1, "y": 0}, http.StatusBadRequest},
		{"bulldoze police", "/api/v1/bulldoze", map[string]any{"x": 12, "y": 12}, http.StatusOK},
		{"bulldoze grass", "/api/v1/bulldoze", map[string]any{"x": 40, "y": 40}, http.StatusConflict},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodPost, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s: code = %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}

	want := start - city.KindPolice.Info().Price - city.NetworkPrice(city.FlagRoad) - city.PriceDemolish
	if got := s.Sim.Status().Money; got != want {
		t.Fatalf("money = %d, want %d", got, want)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/build", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET build = %d", rec.Code)
	}
}

func TestEditRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.EditsPerMinute = 2
	h := s.Handler()
	for i := 0; i < 2; i++ {
		do(t, h, http.MethodPost, "/api/v1/bulldoze", map[string]int{"x": i, "y": 0})
	}
	rec := do(t, h, http.MethodPost, "/api/v1/bulldoze", map[string]int{"x": 5, "y": 0})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third edit = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("no Retry-After header")
	}
	// Non-edit endpoints are not limited.
	if rec := do(t, h, http.MethodPost, "/api/v1/tax", map[string]int{"tax": 5}); rec.Code != http.StatusOK {
		t.Fatalf("tax after limit = %d", rec.Code)
	}
}

func TestTile(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/v1/build", map[string]any{"kind": "school", "x": 3, "y": 3})

	rec := do(t, h, http.MethodGet, "/api/v1/tile/4/4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tile = %d", rec.Code)
	}
	var info engine.TileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.KindName != "school" || info.X != 4 {
		t.Fatalf("tile info = %+v", info)
	}

	for path, want := range map[string]int{
		"/api/v1/tile/99/0": http.StatusNotFound,
		"/api/v1/tile/a/b":  http.StatusBadRequest,
		"/api/v1/tile/1":    http.StatusBadRequest,
	} {
		if rec := do(t, h, http.MethodGet, path, nil); rec.Code != want {
			t.Fatalf("%s = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestMap(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Step()
	h := s.Handler()

	var plain map[string]json.RawMessage
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/map", nil).Body.Bytes(), &plain); err != nil {
		t.Fatal(err)
	}
	if _, ok := plain["overlays"]; ok {
		t.Fatal("overlays sent without asking")
	}

	var full struct {
		Width    int               `json:"width"`
		Kinds    []int             `json:"kinds"`
		Legend   map[string]string `json:"legend"`
		Overlays engine.Overlays   `json:"overlays"`
	}
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/map?overlays=1", nil).Body.Bytes(), &full); err != nil {
		t.Fatal(err)
	}
	if full.Width != city.Width || len(full.Kinds) != city.Width*city.Height {
		t.Fatalf("map %d wide with %d kinds", full.Width, len(full.Kinds))
	}
	if len(full.Overlays.Traffic) != city.Width*city.Height {
		t.Fatalf("traffic overlay has %d tiles", len(full.Overlays.Traffic))
	}
	if full.Legend["0"] != "grass" {
		t.Fatalf("legend = %v", full.Legend)
	}
}

func TestBudgetTaxLoan(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		path string
		body map[string]int
		want int
	}{
		{"/api/v1/tax", map[string]int{"tax": 25}, http.StatusBadRequest},
		{"/api/v1/tax", map[string]int{"tax": 7}, http.StatusOK},
		{"/api/v1/loan", map[string]int{"amount": 5000}, http.StatusBadRequest},
		{"/api/v1/loan", map[string]int{"amount": 10000}, http.StatusOK},
		{"/api/v1/loan", map[string]int{"amount": 10000}, http.StatusConflict},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodPost, tt.path, tt.body); rec.Code != tt.want {
			t.Fatalf("%s %v = %d, want %d", tt.path, tt.body, rec.Code, tt.want)
		}
	}

	var budget struct {
		Tax       int           `json:"tax"`
		Money     int           `json:"money"`
		Loan      engine.Loan   `json:"loan"`
		Projected engine.Budget `json:"projected"`
	}
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/budget", nil).Body.Bytes(), &budget); err != nil {
		t.Fatal(err)
	}
	if budget.Tax != 7 || budget.Money != 30000 || !budget.Loan.Active() {
		t.Fatalf("budget = %+v", budget)
	}
}

func TestDisasterEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/disaster", map[string]any{"type": "flood"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("flood = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/disaster", map[string]any{"type": "fire"}); rec.Code != http.StatusOK {
		t.Fatalf("fire = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/disaster", map[string]any{"type": "meltdown"}); rec.Code != http.StatusConflict {
		t.Fatalf("second request = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/disaster", map[string]any{"enabled": true}); rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d", rec.Code)
	}
	if !s.Sim.Status().DisastersEnabled {
		t.Fatal("random disasters still off")
	}
}

func TestMessagesAndHistory(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if err := s.DB.AppendMessages(s.CityID, 3, "April 1950", []engine.MessageID{engine.MsgFireStarted}); err != nil {
		t.Fatal(err)
	}
	for tick := int64(1); tick <= 3; tick++ {
		if err := s.DB.RecordStats(s.CityID, persistence.StatsRow{Tick: tick, Population: 100}); err != nil {
			t.Fatal(err)
		}
	}

	var msgs []persistence.MessageRecord
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/messages", nil).Body.Bytes(), &msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != engine.MsgFireStarted.String() {
		t.Fatalf("messages = %+v", msgs)
	}

	var rows []persistence.StatsRow
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/stats/history?limit=2", nil).Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].Tick != 3 {
		t.Fatalf("history = %+v", rows)
	}
}

func TestGraphs(t *testing.T) {
	s := newTestServer(t)
	var got map[string]graphResponse
	if err := json.Unmarshal(do(t, s.Handler(), http.MethodGet, "/api/v1/graphs", nil).Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("graphs = %v", got)
	}
	if _, ok := got["funds"]; !ok {
		t.Fatal("no funds series")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.SnapshotDir = filepath.Join(t.TempDir(), "snaps")
	s.Sim.Step()

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/snapshot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot = %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	snap, err := persistence.ReadSnapshot(resp.File)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != s.Sim.Export() {
		t.Fatal("snapshot file differs from the live city")
	}
	if _, err := s.DB.LoadCity(s.CityID); err != nil {
		t.Fatalf("database copy: %v", err)
	}
}

func TestCORS(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://city.example.org")
	s := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://city.example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://city.example.org" {
		t.Fatalf("preflight = %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin allowed")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests refused")
	}
	if rl.Allow("a") {
		t.Fatal("third request allowed")
	}
	if !rl.Allow("b") {
		t.Fatal("other client refused")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("retry after = %d", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("refused after the window")
	}
	if NewRateLimiter(0, time.Minute).Allow("a") {
		t.Fatal("zero-rate limiter allowed a request")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	if got := clientIP(req); got != "10.0.0.7" {
		t.Fatalf("remote = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("forwarded = %q", got)
	}
}

func TestHubBroadcast(t *testing.T) {
	s := newTestServer(t)
	s.Hub = NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub.Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub.Observers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Hub.Publish(map[string]int{"tick": 7})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != `{"tick":7}` {
		t.Fatalf("message = %s", msg)
	}

	var status map[string]any
	if err := json.Unmarshal(do(t, s.Handler(), http.MethodGet, "/api/v1/status", nil).Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status["observers"] != float64(1) {
		t.Fatalf("observers = %v", status["observers"])
	}
}
