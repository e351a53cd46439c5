// Package sqlite stores sweep runs in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	site       TEXT NOT NULL,
	weather    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs (scenario, created_at);

CREATE TABLE IF NOT EXISTS run_points (
	run_id             TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
	idx                INTEGER NOT NULL,
	air_temperature    REAL,
	net_rad            REAL,
	stability_regime   TEXT,
	vapor_regime       TEXT,
	total_melt         REAL,
	total_ablation     REAL,
	total_water_output REAL,
	ti_total_melt      REAL,
	ti_water_output    REAL,
	error              TEXT,
	PRIMARY KEY (run_id, idx)
);
`

// Storage holds the connection for a SQLite storage backend
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at path
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	log.Info("creating SQLite run tables...")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create run tables: %w", err)
	}

	return &Storage{db: db}, nil
}

// StartStorageEngine creates a goroutine loop to receive runs and store them
// in SQLite
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- storage.Run {
	return storage.StartEngine(ctx, wg, s, "sqlite")
}

// StoreRun writes a run and all of its points in one transaction
func (s *Storage) StoreRun(ctx context.Context, r storage.Run) error {
	site, err := json.Marshal(r.Site)
	if err != nil {
		return fmt.Errorf("could not encode site: %w", err)
	}
	weather, err := json.Marshal(r.Weather)
	if err != nil {
		return fmt.Errorf("could not encode weather: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, created_at, site, weather) VALUES (?, ?, ?, ?, ?)`,
		r.ID.String(), r.Scenario, r.CreatedAt.UTC().Format(time.RFC3339Nano), string(site), string(weather))
	if err != nil {
		return fmt.Errorf("could not insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_points (
			run_id, idx, air_temperature, net_rad, stability_regime, vapor_regime,
			total_melt, total_ablation, total_water_output, ti_total_melt, ti_water_output, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range r.Points {
		if _, err := stmt.ExecContext(ctx, pointArgs(r.ID, i, p)...); err != nil {
			return fmt.Errorf("could not insert point %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func pointArgs(id uuid.UUID, i int, p snowmelt.Point) []any {
	// SQLite has no NaN, so an unparseable sample temperature is stored as NULL
	ta := sql.NullFloat64{Float64: p.AirTemperature, Valid: !math.IsNaN(p.AirTemperature)}

	if p.Err != nil {
		return []any{id.String(), i, ta, nil, nil, nil, nil, nil, nil, nil, nil, p.Err.Error()}
	}

	res := p.Result
	return []any{
		id.String(), i, ta, res.NetRad,
		res.StabilityRegime.String(), res.VaporRegime.String(),
		res.TotalMelt, res.TotalAblation, res.TotalWaterOutput,
		res.TITotalMelt, res.TITotalWaterOutput, nil,
	}
}

// StoredPoint is one row of a stored run
type StoredPoint struct {
	AirTemperature   float64 `json:"air_temperature"`
	NetRad           float64 `json:"net_rad"`
	StabilityRegime  string  `json:"stability_regime,omitempty"`
	VaporRegime      string  `json:"vapor_regime,omitempty"`
	TotalMelt        float64 `json:"total_melt"`
	TotalAblation    float64 `json:"total_ablation"`
	TotalWaterOutput float64 `json:"total_water_output"`
	TITotalMelt      float64 `json:"ti_total_melt"`
	TIWaterOutput    float64 `json:"ti_total_water_output"`
	Error            string  `json:"error,omitempty"`
}

// StoredRun is a run as read back from the database
type StoredRun struct {
	ID        uuid.UUID              `json:"id"`
	Scenario  string                 `json:"scenario"`
	CreatedAt time.Time              `json:"created_at"`
	Site      snowmelt.SiteConfig    `json:"site"`
	Weather   snowmelt.WeatherConfig `json:"weather"`
	Points    []StoredPoint          `json:"points"`
}

// LoadRun reads a stored run by ID. It returns sql.ErrNoRows if there is none.
func (s *Storage) LoadRun(ctx context.Context, id uuid.UUID) (*StoredRun, error) {
	var created, site, weather string
	run := &StoredRun{ID: id}

	err := s.db.QueryRowContext(ctx,
		`SELECT scenario, created_at, site, weather FROM runs WHERE id = ?`, id.String()).
		Scan(&run.Scenario, &created, &site, &weather)
	if err != nil {
		return nil, err
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	if err := json.Unmarshal([]byte(site), &run.Site); err != nil {
		return nil, fmt.Errorf("bad site: %w", err)
	}
	if err := json.Unmarshal([]byte(weather), &run.Weather); err != nil {
		return nil, fmt.Errorf("bad weather: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT air_temperature, net_rad, stability_regime, vapor_regime,
		       total_melt, total_ablation, total_water_output, ti_total_melt, ti_water_output, error
		FROM run_points
		WHERE run_id = ?
		ORDER BY idx`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p StoredPoint
		var ta, netRad, melt, ablation, water, tiMelt, tiWater sql.NullFloat64
		var stability, vapor, errText sql.NullString

		if err := rows.Scan(&ta, &netRad, &stability, &vapor,
			&melt, &ablation, &water, &tiMelt, &tiWater, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		p.AirTemperature = math.NaN()
		if ta.Valid {
			p.AirTemperature = ta.Float64
		}
		p.NetRad = netRad.Float64
		p.StabilityRegime = stability.String
		p.VaporRegime = vapor.String
		p.TotalMelt = melt.Float64
		p.TotalAblation = ablation.Float64
		p.TotalWaterOutput = water.Float64
		p.TITotalMelt = tiMelt.Float64
		p.TIWaterOutput = tiWater.Float64
		p.Error = errText.String

		run.Points = append(run.Points, p)
	}

	return run, rows.Err()
}

// ListRuns returns the IDs of the stored runs of a scenario, newest first
func (s *Storage) ListRuns(ctx context.Context, scenario string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE scenario = ? ORDER BY created_at DESC`, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CheckHealth pings the database
func (s *Storage) CheckHealth(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
