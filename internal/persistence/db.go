// Package persistence provides SQLite-based storage for completed runs and
// their per-year state series.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"bandsim/internal/engine"
)

// DB wraps a SQLite connection for run storage.
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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		years INTEGER NOT NULL,
		extinction_year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS yearly_states (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		sigma REAL NOT NULL,
		shortfall_active INTEGER NOT NULL,
		shortfall_magnitude REAL NOT NULL,
		bands INTEGER NOT NULL,
		population INTEGER NOT NULL,
		mean_band_size REAL NOT NULL,
		aggregator_share REAL NOT NULL,
		attendance INTEGER NOT NULL,
		headcount INTEGER NOT NULL,
		mean_resources REAL NOT NULL,
		mean_prestige REAL NOT NULL,
		mean_fitness_agg REAL NOT NULL,
		mean_fitness_ind REAL NOT NULL,
		monument_volume REAL NOT NULL,
		exotics_total INTEGER NOT NULL,
		obligation_ties INTEGER NOT NULL,
		PRIMARY KEY (run_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_states_run ON yearly_states(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRow is the stored run header.
type RunRow struct {
	ID             string `db:"id"`
	Scenario       string `db:"scenario"`
	Seed           int64  `db:"seed"`
	Years          int    `db:"years"`
	ExtinctionYear int    `db:"extinction_year"`
	CreatedAt      string `db:"created_at"`
	SummaryJSON    string `db:"summary_json"`
}

// SaveRun stores a completed run and its full year series in one
// transaction. Returns the new run's ID.
func (db *DB) SaveRun(r engine.Results) (string, error) {
	id := uuid.NewString()

	summaryJSON, err := json.Marshal(r.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, scenario, seed, years, extinction_year, created_at, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, r.ScenarioName, r.Seed, len(r.Years), r.ExtinctionYear,
		time.Now().UTC().Format(time.RFC3339), string(summaryJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO yearly_states
		(run_id, year, sigma, shortfall_active, shortfall_magnitude,
		 bands, population, mean_band_size, aggregator_share,
		 attendance, headcount, mean_resources, mean_prestige,
		 mean_fitness_agg, mean_fitness_ind,
		 monument_volume, exotics_total, obligation_ties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, st := range r.Years {
		active := 0
		if st.ShortfallActive {
			active = 1
		}
		_, err := stmt.Exec(
			id, st.Year, st.Sigma, active, st.ShortfallMagnitude,
			st.Bands, st.Population, st.MeanBandSize, st.AggregatorShare,
			st.Attendance, st.Headcount, st.MeanResources, st.MeanPrestige,
			st.MeanFitnessAgg, st.MeanFitnessInd,
			st.MonumentVolume, st.ExoticsTotal, st.ObligationTies,
		)
		if err != nil {
			return "", fmt.Errorf("insert year %d: %w", st.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// LoadRun reads a run header and summary back by ID.
func (db *DB) LoadRun(id string) (RunRow, engine.Summary, error) {
	var row RunRow
	if err := db.conn.Get(&row, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return RunRow{}, engine.Summary{}, fmt.Errorf("load run %s: %w", id, err)
	}
	var sum engine.Summary
	if err := json.Unmarshal([]byte(row.SummaryJSON), &sum); err != nil {
		return RunRow{}, engine.Summary{}, fmt.Errorf("decode summary for %s: %w", id, err)
	}
	return row, sum, nil
}

// LoadYears reads a run's full year series in order.
func (db *DB) LoadYears(id string) ([]engine.YearState, error) {
	var states []engine.YearState
	err := db.conn.Select(&states, `SELECT
		year, sigma, shortfall_active, shortfall_magnitude,
		bands, population, mean_band_size, aggregator_share,
		attendance, headcount, mean_resources, mean_prestige,
		mean_fitness_agg, mean_fitness_ind,
		monument_volume, exotics_total, obligation_ties
		FROM yearly_states WHERE run_id = ? ORDER BY year`, id)
	return states, err
}

// ListRuns returns run headers for a scenario, newest first. An empty
// scenario lists everything.
func (db *DB) ListRuns(scenarioName string) ([]RunRow, error) {
	var rows []RunRow
	if scenarioName == "" {
		err := db.conn.Select(&rows, "SELECT * FROM runs ORDER BY created_at DESC")
		return rows, err
	}
	err := db.conn.Select(&rows,
		"SELECT * FROM runs WHERE scenario = ? ORDER BY created_at DESC", scenarioName)
	return rows, err
}
