package config

import (
	"fmt"
	"os"

	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// ScenarioYAML is a scenario as written in YAML. Keys that are left out keep
// the values of DefaultScenario.
type ScenarioYAML struct {
	Name        string                 `yaml:"name"`
	Site        snowmelt.SiteConfig    `yaml:"site"`
	Weather     snowmelt.WeatherConfig `yaml:"weather"`
	ClearSky    *ClearSkyYAML          `yaml:"clear_sky,omitempty"`
	Sweep       SweepYAML              `yaml:"sweep"`
	Diagnostics bool                   `yaml:"diagnostics,omitempty"`
}

// UnmarshalYAML seeds the scenario with defaults before decoding over it
func (s *ScenarioYAML) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain ScenarioYAML
	d := DefaultScenario()
	*s = ScenarioYAML{
		Site:    d.Site,
		Weather: d.Weather,
		Sweep:   SweepYAML(d.Sweep),
	}
	return unmarshal((*plain)(s))
}

type ClearSkyYAML struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
	Date      string  `yaml:"date"`
}

type SweepYAML struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Step    float64 `yaml:"step"`
	Workers int     `yaml:"workers,omitempty"`
}

type OutputYAML struct {
	Directory string   `yaml:"directory,omitempty"`
	Formats   []string `yaml:"formats,omitempty"`
}

type StorageYAML struct {
	SQLite *struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite,omitempty"`
	TimescaleDB *struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"timescaledb,omitempty"`
	InfluxDB *struct {
		URL    string `yaml:"url"`
		Token  string `yaml:"token,omitempty"`
		Org    string `yaml:"org"`
		Bucket string `yaml:"bucket"`
	} `yaml:"influxdb,omitempty"`
}

type ServerYAML struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML converts YAML configuration text into ConfigData
func ParseYAML(b []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Scenarios []ScenarioYAML `yaml:"scenarios"`
		Output    OutputYAML     `yaml:"output,omitempty"`
		Storage   StorageYAML    `yaml:"storage,omitempty"`
		Server    *ServerYAML    `yaml:"server,omitempty"`
	}

	if err := yaml.UnmarshalStrict(b, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Scenarios: make([]ScenarioData, len(yamlConfig.Scenarios)),
		Output: OutputData{
			Directory: yamlConfig.Output.Directory,
			Formats:   yamlConfig.Output.Formats,
		},
	}

	for i, s := range yamlConfig.Scenarios {
		config.Scenarios[i] = ScenarioData{
			Name:        s.Name,
			Site:        s.Site,
			Weather:     s.Weather,
			Sweep:       SweepData(s.Sweep),
			Diagnostics: s.Diagnostics,
		}
		if s.ClearSky != nil {
			config.Scenarios[i].ClearSky = &ClearSkyData{
				Latitude:  s.ClearSky.Latitude,
				Longitude: s.ClearSky.Longitude,
				Altitude:  s.ClearSky.Altitude,
				Date:      s.ClearSky.Date,
			}
		}
	}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: yamlConfig.Storage.SQLite.Path}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Storage.InfluxDB != nil {
		config.Storage.InfluxDB = &InfluxDBData{
			URL:    yamlConfig.Storage.InfluxDB.URL,
			Token:  yamlConfig.Storage.InfluxDB.Token,
			Org:    yamlConfig.Storage.InfluxDB.Org,
			Bucket: yamlConfig.Storage.InfluxDB.Bucket,
		}
	}
	if yamlConfig.Server != nil {
		config.Server = &ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Port:       yamlConfig.Server.Port,
		}
	}

	config.applyDefaults()

	seen := make(map[string]bool)
	for _, s := range config.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
	}

	return config, nil
}

// GetScenarios returns scenario configurations
func (y *YAMLProvider) GetScenarios() ([]ScenarioData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Scenarios, nil
}

// GetOutputConfig returns the series output configuration
func (y *YAMLProvider) GetOutputConfig() (*OutputData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Output, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetServerConfig returns the HTTP server configuration, or nil if the
// server is not configured
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Server, nil
}

// IsReadOnly returns true since YAML files are treated as read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
