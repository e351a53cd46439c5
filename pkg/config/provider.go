package config

import (
	"fmt"
	"time"

	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/frasertheking/toy-snowmodel/pkg/solar"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetScenarios() ([]ScenarioData, error)
	GetOutputConfig() (*OutputData, error)
	GetStorageConfig() (*StorageData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Scenarios []ScenarioData `json:"scenarios"`
	Output    OutputData     `json:"output,omitempty"`
	Storage   StorageData    `json:"storage,omitempty"`
	Server    *ServerData    `json:"server,omitempty"`
}

// ScenarioData is one site/weather pairing plus the temperature sweep to run
// against it
type ScenarioData struct {
	Name        string                 `json:"name"`
	Site        snowmelt.SiteConfig    `json:"site"`
	Weather     snowmelt.WeatherConfig `json:"weather"`
	ClearSky    *ClearSkyData          `json:"clear_sky,omitempty"`
	Sweep       SweepData              `json:"sweep"`
	Diagnostics bool                   `json:"diagnostics,omitempty"`
}

// ClearSkyData locates a site in space and time so clear-sky solar radiation
// can be computed instead of supplied
type ClearSkyData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Date      string  `json:"date"` // YYYY-MM-DD
}

// SweepData describes the air temperature samples, in C
type SweepData struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Workers int     `json:"workers,omitempty"`
}

// OutputData controls which series files are written after each sweep
type OutputData struct {
	Directory string   `json:"directory,omitempty"`
	Formats   []string `json:"formats,omitempty"` // csv, csv.gz, parquet
}

// StorageData holds the configuration for result storage backends
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	InfluxDB    *InfluxDBData    `json:"influxdb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type InfluxDBData struct {
	URL    string `json:"url"`
	Token  string `json:"token,omitempty"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// ServerData configures the HTTP API
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// DefaultScenario returns the scenario used when a configuration names none
func DefaultScenario() ScenarioData {
	return ScenarioData{
		Name:    "default",
		Site:    snowmelt.DefaultSiteConfig(),
		Weather: snowmelt.DefaultWeatherConfig(),
		Sweep:   DefaultSweep(),
	}
}

// DefaultSweep is 0..49 C in 1 C steps
func DefaultSweep() SweepData {
	return SweepData{Min: 0, Max: snowmelt.DefaultSweepMax, Step: 1}
}

// DefaultOutput writes a plain CSV to the working directory
func DefaultOutput() OutputData {
	return OutputData{Directory: ".", Formats: []string{"csv"}}
}

// WeatherConfig returns the scenario's weather, with clear-sky radiation
// computed from ClearSky when it is set.
func (s ScenarioData) WeatherConfig() (snowmelt.WeatherConfig, error) {
	w := s.Weather
	if s.ClearSky == nil {
		return w, nil
	}
	date, err := time.Parse("2006-01-02", s.ClearSky.Date)
	if err != nil {
		return snowmelt.WeatherConfig{}, fmt.Errorf("scenario %s: invalid clear_sky date %q: %w", s.Name, s.ClearSky.Date, err)
	}
	w.ClearSkySolarRad = solar.DailyClearSkyRadiation(date, s.ClearSky.Latitude, s.ClearSky.Longitude, s.ClearSky.Altitude)
	return w, nil
}

// Samples expands the sweep into air temperatures
func (s ScenarioData) Samples() ([]float64, error) {
	return snowmelt.TemperatureRange(s.Sweep.Min, s.Sweep.Max, s.Sweep.Step)
}

// Validate checks the scenario's site, weather and sweep
func (s ScenarioData) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if err := s.Site.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	w, err := s.WeatherConfig()
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	if _, err := s.Samples(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return nil
}

// Scenario returns the named scenario
func (c *ConfigData) Scenario(name string) (ScenarioData, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return ScenarioData{}, false
}

// applyDefaults fills in sections left empty by a provider
func (c *ConfigData) applyDefaults() {
	if len(c.Scenarios) == 0 {
		c.Scenarios = []ScenarioData{DefaultScenario()}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "."
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"csv"}
	}
}
