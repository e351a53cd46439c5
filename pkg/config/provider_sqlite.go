package config

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenarios (
	name                  TEXT PRIMARY KEY,
	measurement_height    REAL NOT NULL,
	roughness_height      REAL NOT NULL,
	forest_cover_fraction REAL NOT NULL,
	albedo                REAL NOT NULL,
	snow_density          REAL NOT NULL,
	clear_sky_solar_rad   REAL NOT NULL,
	cloud_cover_fraction  REAL NOT NULL,
	relative_humidity     REAL NOT NULL,
	wind_speed            REAL NOT NULL,
	rain_rate             REAL NOT NULL,
	atmospheric_pressure  REAL NOT NULL,
	clear_sky_latitude    REAL,
	clear_sky_longitude   REAL,
	clear_sky_altitude    REAL,
	clear_sky_date        TEXT,
	sweep_min             REAL NOT NULL DEFAULT 0,
	sweep_max             REAL NOT NULL DEFAULT 49,
	sweep_step            REAL NOT NULL DEFAULT 1,
	sweep_workers         INTEGER NOT NULL DEFAULT 0,
	diagnostics           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS output_configs (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	directory TEXT NOT NULL DEFAULT '.',
	formats   TEXT NOT NULL DEFAULT 'csv'
);

CREATE TABLE IF NOT EXISTS storage_configs (
	backend           TEXT PRIMARY KEY,
	path              TEXT,
	connection_string TEXT,
	url               TEXT,
	token             TEXT,
	org               TEXT,
	bucket            TEXT
);

CREATE TABLE IF NOT EXISTS server_configs (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	listen_addr TEXT,
	port        INTEGER
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (creating if needed) a SQLite configuration database
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	scenarios, err := s.GetScenarios()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	config.Scenarios = scenarios

	output, err := s.GetOutputConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load output config: %w", err)
	}
	config.Output = *output

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = server

	config.applyDefaults()

	for _, sc := range config.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// GetScenarios returns scenario configurations ordered by name
func (s *SQLiteProvider) GetScenarios() ([]ScenarioData, error) {
	query := `
		SELECT name, measurement_height, roughness_height, forest_cover_fraction,
		       albedo, snow_density, clear_sky_solar_rad, cloud_cover_fraction,
		       relative_humidity, wind_speed, rain_rate, atmospheric_pressure,
		       clear_sky_latitude, clear_sky_longitude, clear_sky_altitude, clear_sky_date,
		       sweep_min, sweep_max, sweep_step, sweep_workers, diagnostics
		FROM scenarios
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []ScenarioData
	for rows.Next() {
		var sc ScenarioData
		var lat, lon, alt sql.NullFloat64
		var date sql.NullString

		err := rows.Scan(
			&sc.Name, &sc.Site.MeasurementHeight, &sc.Site.RoughnessHeight,
			&sc.Site.ForestCoverFraction, &sc.Site.Albedo, &sc.Site.SnowDensity,
			&sc.Weather.ClearSkySolarRad, &sc.Weather.CloudCoverFraction,
			&sc.Weather.RelativeHumidity, &sc.Weather.WindSpeed, &sc.Weather.RainRate,
			&sc.Weather.AtmosphericPressure,
			&lat, &lon, &alt, &date,
			&sc.Sweep.Min, &sc.Sweep.Max, &sc.Sweep.Step, &sc.Sweep.Workers, &sc.Diagnostics,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}

		// A clear-sky location is only meaningful with a date
		if date.Valid && date.String != "" {
			sc.ClearSky = &ClearSkyData{
				Latitude:  lat.Float64,
				Longitude: lon.Float64,
				Altitude:  alt.Float64,
				Date:      date.String,
			}
		}

		scenarios = append(scenarios, sc)
	}

	return scenarios, rows.Err()
}

// GetOutputConfig returns the output configuration
func (s *SQLiteProvider) GetOutputConfig() (*OutputData, error) {
	output := DefaultOutput()

	var directory, formats string
	err := s.db.QueryRow(`SELECT directory, formats FROM output_configs WHERE id = 1`).Scan(&directory, &formats)
	if err == sql.ErrNoRows {
		return &output, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query output config: %w", err)
	}

	output.Directory = directory
	output.Formats = splitFormats(formats)
	return &output, nil
}

// GetStorageConfig returns storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	storage := &StorageData{}

	rows, err := s.db.Query(`SELECT backend, path, connection_string, url, token, org, bucket FROM storage_configs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var path, connStr, url, token, org, bucket sql.NullString

		if err := rows.Scan(&backend, &path, &connStr, &url, &token, &org, &bucket); err != nil {
			return nil, fmt.Errorf("failed to scan storage row: %w", err)
		}

		switch backend {
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: path.String}
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connStr.String}
		case "influxdb":
			storage.InfluxDB = &InfluxDBData{
				URL:    url.String,
				Token:  token.String,
				Org:    org.String,
				Bucket: bucket.String,
			}
		default:
			return nil, fmt.Errorf("unknown storage backend %q", backend)
		}
	}

	return storage, rows.Err()
}

// GetServerConfig returns the HTTP server configuration, or nil when absent
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	var addr sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(`SELECT listen_addr, port FROM server_configs WHERE id = 1`).Scan(&addr, &port)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	return &ServerData{ListenAddr: addr.String, Port: int(port.Int64)}, nil
}

// SaveConfig replaces the stored configuration with cfg
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"scenarios", "output_configs", "storage_configs", "server_configs"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, sc := range cfg.Scenarios {
		var lat, lon, alt sql.NullFloat64
		var date sql.NullString
		if sc.ClearSky != nil {
			lat = sql.NullFloat64{Float64: sc.ClearSky.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: sc.ClearSky.Longitude, Valid: true}
			alt = sql.NullFloat64{Float64: sc.ClearSky.Altitude, Valid: true}
			date = sql.NullString{String: sc.ClearSky.Date, Valid: true}
		}

		_, err := tx.Exec(`
			INSERT INTO scenarios (
				name, measurement_height, roughness_height, forest_cover_fraction,
				albedo, snow_density, clear_sky_solar_rad, cloud_cover_fraction,
				relative_humidity, wind_speed, rain_rate, atmospheric_pressure,
				clear_sky_latitude, clear_sky_longitude, clear_sky_altitude, clear_sky_date,
				sweep_min, sweep_max, sweep_step, sweep_workers, diagnostics
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sc.Name, sc.Site.MeasurementHeight, sc.Site.RoughnessHeight, sc.Site.ForestCoverFraction,
			sc.Site.Albedo, sc.Site.SnowDensity, sc.Weather.ClearSkySolarRad, sc.Weather.CloudCoverFraction,
			sc.Weather.RelativeHumidity, sc.Weather.WindSpeed, sc.Weather.RainRate, sc.Weather.AtmosphericPressure,
			lat, lon, alt, date,
			sc.Sweep.Min, sc.Sweep.Max, sc.Sweep.Step, sc.Sweep.Workers, sc.Diagnostics,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scenario %s: %w", sc.Name, err)
		}
	}

	if cfg.Output.Directory != "" || len(cfg.Output.Formats) > 0 {
		_, err := tx.Exec(`INSERT INTO output_configs (id, directory, formats) VALUES (1, ?, ?)`,
			cfg.Output.Directory, strings.Join(cfg.Output.Formats, ","))
		if err != nil {
			return fmt.Errorf("failed to insert output config: %w", err)
		}
	}

	if st := cfg.Storage.SQLite; st != nil {
		if _, err := tx.Exec(`INSERT INTO storage_configs (backend, path) VALUES ('sqlite', ?)`, st.Path); err != nil {
			return fmt.Errorf("failed to insert sqlite storage config: %w", err)
		}
	}
	if st := cfg.Storage.TimescaleDB; st != nil {
		if _, err := tx.Exec(`INSERT INTO storage_configs (backend, connection_string) VALUES ('timescaledb', ?)`, st.ConnectionString); err != nil {
			return fmt.Errorf("failed to insert timescaledb storage config: %w", err)
		}
	}
	if st := cfg.Storage.InfluxDB; st != nil {
		_, err := tx.Exec(`INSERT INTO storage_configs (backend, url, token, org, bucket) VALUES ('influxdb', ?, ?, ?, ?)`,
			st.URL, st.Token, st.Org, st.Bucket)
		if err != nil {
			return fmt.Errorf("failed to insert influxdb storage config: %w", err)
		}
	}

	if cfg.Server != nil {
		if _, err := tx.Exec(`INSERT INTO server_configs (id, listen_addr, port) VALUES (1, ?, ?)`, cfg.Server.ListenAddr, cfg.Server.Port); err != nil {
			return fmt.Errorf("failed to insert server config: %w", err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func splitFormats(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
