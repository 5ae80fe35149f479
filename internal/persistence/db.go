// Package persistence provides SQLite-based city storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
)

// ErrNoCity is returned when the requested city has never been saved.
var ErrNoCity = errors.New("persistence: no saved city")

// DB wraps a SQLite connection for city persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_state (
		city_id TEXT PRIMARY KEY REFERENCES cities(id),
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		money INTEGER NOT NULL,
		tax INTEGER NOT NULL,
		technology INTEGER NOT NULL,
		loan_payments INTEGER NOT NULL,
		loan_amount INTEGER NOT NULL,
		disasters_enabled INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		fast_seed INTEGER NOT NULL,
		slow_seed INTEGER NOT NULL,
		disaster INTEGER NOT NULL,
		fire_stations INTEGER NOT NULL,
		negative_quarters INTEGER NOT NULL,
		game_over INTEGER NOT NULL,
		messages_shown INTEGER NOT NULL,
		grid BLOB NOT NULL,
		traffic BLOB NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graphs (
		city_id TEXT NOT NULL REFERENCES cities(id),
		series TEXT NOT NULL,
		shift INTEGER NOT NULL,
		pos INTEGER NOT NULL,
		values_json TEXT NOT NULL,
		PRIMARY KEY (city_id, series)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city_id TEXT NOT NULL REFERENCES cities(id),
		tick INTEGER NOT NULL,
		date TEXT NOT NULL,
		message_id INTEGER NOT NULL,
		text TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats_history (
		city_id TEXT NOT NULL REFERENCES cities(id),
		tick INTEGER NOT NULL,
		date TEXT NOT NULL,
		population INTEGER NOT NULL,
		residential INTEGER NOT NULL,
		commercial INTEGER NOT NULL,
		industrial INTEGER NOT NULL,
		money INTEGER NOT NULL,
		pollution_percent INTEGER NOT NULL,
		traffic_jam_percent INTEGER NOT NULL,
		PRIMARY KEY (city_id, tick)
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_city ON messages(city_id, id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CityRecord is one row of the cities table.
type CityRecord struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Seed      int64  `db:"seed" json:"seed"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// CreateCity registers a new city and returns its id.
func (db *DB) CreateCity(name string, seed int64) (CityRecord, error) {
	rec := CityRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Seed:      seed,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO cities (id, name, seed, created_at) VALUES (:id, :name, :seed, :created_at)",
		rec,
	)
	if err != nil {
		return CityRecord{}, fmt.Errorf("create city: %w", err)
	}
	return rec, nil
}

// LatestCity returns the most recently created city that has been saved.
func (db *DB) LatestCity() (CityRecord, error) {
	var rec CityRecord
	err := db.conn.Get(&rec, `SELECT c.id, c.name, c.seed, c.created_at
		FROM cities c JOIN city_state s ON s.city_id = c.id
		ORDER BY c.created_at DESC, c.rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNoCity
	}
	return rec, err
}

type stateRow struct {
	CityID           string `db:"city_id"`
	Month            int    `db:"month"`
	Year             int    `db:"year"`
	Money            int    `db:"money"`
	Tax              int    `db:"tax"`
	Technology       int    `db:"technology"`
	LoanPayments     int    `db:"loan_payments"`
	LoanAmount       int    `db:"loan_amount"`
	DisastersEnabled bool   `db:"disasters_enabled"`
	Ticks            int64  `db:"ticks"`
	FastSeed         int64  `db:"fast_seed"`
	SlowSeed         int64  `db:"slow_seed"`
	Disaster         int    `db:"disaster"`
	FireStations     int    `db:"fire_stations"`
	NegativeQuarters int    `db:"negative_quarters"`
	GameOver         bool   `db:"game_over"`
	MessagesShown    int    `db:"messages_shown"`
	Grid             []byte `db:"grid"`
	Traffic          []byte `db:"traffic"`
	SavedAt          string `db:"saved_at"`
}

type graphRow struct {
	Series     string `db:"series"`
	Shift      int    `db:"shift"`
	Pos        int    `db:"pos"`
	ValuesJSON string `db:"values_json"`
}

// graphSeries names the stored series and points at them inside Graphs.
func graphSeries(g *engine.Graphs) map[string]*engine.Graph {
	return map[string]*engine.Graph{
		"population":  &g.Population,
		"residential": &g.Residential,
		"commercial":  &g.Commercial,
		"industrial":  &g.Industrial,
		"funds":       &g.Funds,
	}
}

// SaveCity writes the full state of a city (full replace).
func (db *DB) SaveCity(id string, st engine.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := stateRow{
		CityID:           id,
		Month:            st.Date.Month,
		Year:             st.Date.Year,
		Money:            st.Money,
		Tax:              st.Tax,
		Technology:       st.Technology,
		LoanPayments:     st.Loan.Payments,
		LoanAmount:       st.Loan.Amount,
		DisastersEnabled: st.DisastersEnabled,
		Ticks:            int64(st.Ticks),
		FastSeed:         int64(st.FastSeed),
		SlowSeed:         int64(st.SlowSeed),
		Disaster:         int(st.Disaster),
		FireStations:     st.FireStations,
		NegativeQuarters: st.NegativeQuarters,
		GameOver:         st.GameOver,
		MessagesShown:    int(st.MessagesShown),
		Grid:             encodeGrid(&st.Grid),
		Traffic:          compressBytes(st.Traffic[:]),
		SavedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	_, err = tx.NamedExec(`INSERT OR REPLACE INTO city_state
		(city_id, month, year, money, tax, technology, loan_payments, loan_amount,
		 disasters_enabled, ticks, fast_seed, slow_seed, disaster, fire_stations,
		 negative_quarters, game_over, messages_shown, grid, traffic, saved_at)
		VALUES (:city_id, :month, :year, :money, :tax, :technology, :loan_payments, :loan_amount,
		 :disasters_enabled, :ticks, :fast_seed, :slow_seed, :disaster, :fire_stations,
		 :negative_quarters, :game_over, :messages_shown, :grid, :traffic, :saved_at)`, row)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	if _, err := tx.Exec("UPDATE cities SET name = ? WHERE id = ?", st.Name, id); err != nil {
		return fmt.Errorf("save name: %w", err)
	}

	graphs := st.Graphs
	for name, g := range graphSeries(&graphs) {
		values, _ := json.Marshal(g.Values)
		_, err := tx.Exec(`INSERT OR REPLACE INTO graphs (city_id, series, shift, pos, values_json)
			VALUES (?, ?, ?, ?, ?)`, id, name, g.Shift, g.Pos, string(values))
		if err != nil {
			return fmt.Errorf("save graph %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("city saved", "city", id, "date", st.Date.String(), "ticks", st.Ticks)
	return nil
}

// LoadCity reads back a state written by SaveCity.
func (db *DB) LoadCity(id string) (engine.State, error) {
	var st engine.State
	var rec CityRecord
	if err := db.conn.Get(&rec, "SELECT id, name, seed, created_at FROM cities WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, ErrNoCity
		}
		return st, err
	}
	var row stateRow
	if err := db.conn.Get(&row, "SELECT * FROM city_state WHERE city_id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, ErrNoCity
		}
		return st, err
	}

	g, err := decodeGrid(row.Grid)
	if err != nil {
		return st, err
	}
	traffic, err := decompressBytes(row.Traffic, city.Width*city.Height)
	if err != nil {
		return st, fmt.Errorf("traffic: %w", err)
	}

	st = engine.State{
		Name:             rec.Name,
		Grid:             *g,
		Date:             engine.Date{Month: row.Month, Year: row.Year},
		Money:            row.Money,
		Tax:              row.Tax,
		Technology:       row.Technology,
		Loan:             engine.Loan{Payments: row.LoanPayments, Amount: row.LoanAmount},
		DisastersEnabled: row.DisastersEnabled,
		Ticks:            uint64(row.Ticks),
		FastSeed:         uint32(row.FastSeed),
		SlowSeed:         uint64(row.SlowSeed),
		Disaster:         engine.Disaster(row.Disaster),
		FireStations:     row.FireStations,
		NegativeQuarters: row.NegativeQuarters,
		GameOver:         row.GameOver,
		MessagesShown:    uint16(row.MessagesShown),
	}
	copy(st.Traffic[:], traffic)

	st.Graphs.Reset()
	var rows []graphRow
	if err := db.conn.Select(&rows, "SELECT series, shift, pos, values_json FROM graphs WHERE city_id = ?", id); err != nil {
		return st, fmt.Errorf("load graphs: %w", err)
	}
	series := graphSeries(&st.Graphs)
	for _, r := range rows {
		g, ok := series[r.Series]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(r.ValuesJSON), &g.Values); err != nil {
			return st, fmt.Errorf("graph %s: %w", r.Series, err)
		}
		g.Shift, g.Pos = r.Shift, r.Pos
	}
	return st, nil
}

// MessageRecord is one logged notification.
type MessageRecord struct {
	ID        int64  `db:"id" json:"id"`
	Tick      int64  `db:"tick" json:"tick"`
	Date      string `db:"date" json:"date"`
	MessageID int    `db:"message_id" json:"message_id"`
	Text      string `db:"text" json:"text"`
}

// AppendMessages logs drained notifications.
func (db *DB) AppendMessages(cityID string, tick uint64, date string, ids []engine.MessageID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		_, err := tx.Exec(
			"INSERT INTO messages (city_id, tick, date, message_id, text) VALUES (?, ?, ?, ?, ?)",
			cityID, int64(tick), date, int(id), id.String(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentMessages returns the newest notifications first.
func (db *DB) RecentMessages(cityID string, limit int) ([]MessageRecord, error) {
	var msgs []MessageRecord
	err := db.conn.Select(&msgs,
		"SELECT id, tick, date, message_id, text FROM messages WHERE city_id = ? ORDER BY id DESC LIMIT ?",
		cityID, limit,
	)
	return msgs, err
}

// StatsRow is one per-tick summary line.
type StatsRow struct {
	Tick              int64  `db:"tick" json:"tick"`
	Date              string `db:"date" json:"date"`
	Population        int    `db:"population" json:"population"`
	Residential       int    `db:"residential" json:"residential"`
	Commercial        int    `db:"commercial" json:"commercial"`
	Industrial        int    `db:"industrial" json:"industrial"`
	Money             int    `db:"money" json:"money"`
	PollutionPercent  int    `db:"pollution_percent" json:"pollution_percent"`
	TrafficJamPercent int    `db:"traffic_jam_percent" json:"traffic_jam_percent"`
}

// StatsRowFrom summarises a status for the history table.
func StatsRowFrom(s engine.Status) StatsRow {
	return StatsRow{
		Tick:              int64(s.Ticks),
		Date:              s.DateText,
		Population:        s.Stats.Population,
		Residential:       s.Stats.Residential,
		Commercial:        s.Stats.Commercial,
		Industrial:        s.Stats.Industrial,
		Money:             s.Money,
		PollutionPercent:  s.PollutionPercent,
		TrafficJamPercent: s.TrafficJamPercent,
	}
}

// RecordStats appends (or replaces) the summary for one tick.
func (db *DB) RecordStats(cityID string, r StatsRow) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO stats_history
		(city_id, tick, date, population, residential, commercial, industrial,
		 money, pollution_percent, traffic_jam_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cityID, r.Tick, r.Date, r.Population, r.Residential, r.Commercial, r.Industrial,
		r.Money, r.PollutionPercent, r.TrafficJamPercent,
	)
	return err
}

// StatsHistory returns up to limit rows, oldest first.
func (db *DB) StatsHistory(cityID string, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, `SELECT tick, date, population, residential, commercial,
			industrial, money, pollution_percent, traffic_jam_percent
		FROM (SELECT * FROM stats_history WHERE city_id = ? ORDER BY tick DESC LIMIT ?)
		ORDER BY tick ASC`, cityID, limit)
	return rows, err
}

// PruneStats keeps only the newest keep rows of a city's history.
func (db *DB) PruneStats(cityID string, keep int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM stats_history WHERE city_id = ? AND tick NOT IN
		(SELECT tick FROM stats_history WHERE city_id = ? ORDER BY tick DESC LIMIT ?)`,
		cityID, cityID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveMeta stores a key-value pair in the metadata table.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}
