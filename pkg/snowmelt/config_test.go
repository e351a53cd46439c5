package snowmelt

import (
	"errors"
	"math"
	"testing"
)

func TestNewSiteConfig(t *testing.T) {
	tests := []struct {
		name    string
		za, z0  float64
		forest  float64
		albedo  float64
		density float64
		field   string
	}{
		{"valid", 5, 0.0015, 0.8, 0.55, 500, ""},
		{"zero roughness", 5, 0, 0.8, 0.55, 500, "roughness_height"},
		{"negative roughness", 5, -0.1, 0.8, 0.55, 500, "roughness_height"},
		{"measurement at roughness", 0.0015, 0.0015, 0.8, 0.55, 500, "measurement_height"},
		{"forest above one", 5, 0.0015, 1.2, 0.55, 500, "forest_cover_fraction"},
		{"negative albedo", 5, 0.0015, 0.8, -0.1, 500, "albedo"},
		{"NaN albedo", 5, 0.0015, 0.8, math.NaN(), 500, "albedo"},
		{"zero density", 5, 0.0015, 0.8, 0.55, 0, "snow_density"},
		{"infinite height", math.Inf(1), 0.0015, 0.8, 0.55, 500, "measurement_height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSiteConfig(tt.za, tt.z0, tt.forest, tt.albedo, tt.density)
			checkDomainField(t, err, tt.field)
		})
	}
}

func TestNewWeatherConfig(t *testing.T) {
	tests := []struct {
		name     string
		kcs      float64
		cloud    float64
		rh       float64
		wind     float64
		rain     float64
		pressure float64
		field    string
	}{
		{"valid", 14.3, 0.5, 0.8, 6, 0, 101.3, ""},
		{"negative radiation", -1, 0.5, 0.8, 6, 0, 101.3, "clear_sky_solar_rad"},
		{"cloud above one", 14.3, 1.5, 0.8, 6, 0, 101.3, "cloud_cover_fraction"},
		{"humidity below zero", 14.3, 0.5, -0.2, 6, 0, 101.3, "relative_humidity"},
		{"calm air", 14.3, 0.5, 0.8, 0, 0, 101.3, "wind_speed"},
		{"negative rain", 14.3, 0.5, 0.8, 6, -1, 101.3, "rain_rate"},
		{"vacuum", 14.3, 0.5, 0.8, 6, 0, 0, "atmospheric_pressure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWeatherConfig(tt.kcs, tt.cloud, tt.rh, tt.wind, tt.rain, tt.pressure)
			checkDomainField(t, err, tt.field)
		})
	}
}

func TestNewEvaluatorValidates(t *testing.T) {
	site := DefaultSiteConfig()
	site.ForestCoverFraction = 2
	if _, err := NewEvaluator(site, DefaultWeatherConfig(), nil); !errors.Is(err, ErrDomain) {
		t.Errorf("NewEvaluator accepted invalid site: %v", err)
	}

	weather := DefaultWeatherConfig()
	weather.WindSpeed = 0
	if _, err := NewEvaluator(DefaultSiteConfig(), weather, nil); !errors.Is(err, ErrDomain) {
		t.Errorf("NewEvaluator accepted calm wind: %v", err)
	}
}

func checkDomainField(t *testing.T, err error, field string) {
	t.Helper()
	if field == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError for %s, got %v", field, err)
	}
	if de.Field != field {
		t.Errorf("DomainError.Field = %q, expected %q", de.Field, field)
	}
	if !errors.Is(err, ErrDomain) {
		t.Errorf("errors.Is(err, ErrDomain) = false for %v", err)
	}
}
