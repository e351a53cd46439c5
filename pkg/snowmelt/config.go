package snowmelt

import (
	"math"
)

// SiteConfig holds the fixed site parameters for one model run
type SiteConfig struct {
	// MeasurementHeight (za) and RoughnessHeight (z0) are in meters
	MeasurementHeight float64 `json:"measurement_height" yaml:"measurement_height"`
	RoughnessHeight   float64 `json:"roughness_height" yaml:"roughness_height"`

	// ForestCoverFraction and Albedo are fractions in [0,1]
	ForestCoverFraction float64 `json:"forest_cover_fraction" yaml:"forest_cover_fraction"`
	Albedo              float64 `json:"albedo" yaml:"albedo"`

	// SnowDensity is in kg/m^3
	SnowDensity float64 `json:"snow_density" yaml:"snow_density"`
}

// WeatherConfig holds the fixed weather parameters for one model run
type WeatherConfig struct {
	// ClearSkySolarRad is in MJ/(m^2 day)
	ClearSkySolarRad float64 `json:"clear_sky_solar_rad" yaml:"clear_sky_solar_rad"`

	CloudCoverFraction float64 `json:"cloud_cover_fraction" yaml:"cloud_cover_fraction"`
	RelativeHumidity   float64 `json:"relative_humidity" yaml:"relative_humidity"`

	WindSpeed           float64 `json:"wind_speed" yaml:"wind_speed"`                     // m/s
	RainRate            float64 `json:"rain_rate" yaml:"rain_rate"`                       // mm/day
	AtmosphericPressure float64 `json:"atmospheric_pressure" yaml:"atmospheric_pressure"` // kPa
}

// DefaultSiteConfig returns the lodgepole-pine test site the model was first run against
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		MeasurementHeight:   5.0,
		RoughnessHeight:     0.0015,
		ForestCoverFraction: 0.8,
		Albedo:              0.55,
		SnowDensity:         500.0,
	}
}

// DefaultWeatherConfig returns a partly cloudy, humid, windy, dry day at sea level
func DefaultWeatherConfig() WeatherConfig {
	return WeatherConfig{
		ClearSkySolarRad:    14.3,
		CloudCoverFraction:  0.5,
		RelativeHumidity:    0.8,
		WindSpeed:           6.0,
		RainRate:            0.0,
		AtmosphericPressure: 101.3,
	}
}

// NewSiteConfig builds a validated SiteConfig
func NewSiteConfig(measurementHeight, roughnessHeight, forestCover, albedo, snowDensity float64) (SiteConfig, error) {
	s := SiteConfig{
		MeasurementHeight:   measurementHeight,
		RoughnessHeight:     roughnessHeight,
		ForestCoverFraction: forestCover,
		Albedo:              albedo,
		SnowDensity:         snowDensity,
	}
	if err := s.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return s, nil
}

// NewWeatherConfig builds a validated WeatherConfig
func NewWeatherConfig(clearSkyRad, cloudCover, relativeHumidity, windSpeed, rainRate, pressure float64) (WeatherConfig, error) {
	w := WeatherConfig{
		ClearSkySolarRad:    clearSkyRad,
		CloudCoverFraction:  cloudCover,
		RelativeHumidity:    relativeHumidity,
		WindSpeed:           windSpeed,
		RainRate:            rainRate,
		AtmosphericPressure: pressure,
	}
	if err := w.Validate(); err != nil {
		return WeatherConfig{}, err
	}
	return w, nil
}

// Validate checks that every site parameter keeps the formulas finite
func (s SiteConfig) Validate() error {
	if err := finite("measurement_height", s.MeasurementHeight); err != nil {
		return err
	}
	if err := finite("roughness_height", s.RoughnessHeight); err != nil {
		return err
	}
	if s.RoughnessHeight <= 0 {
		return domainError("roughness_height", s.RoughnessHeight, "must be greater than zero")
	}
	// ln(za/z0) is squared in a denominator, so it has to be strictly positive
	if s.MeasurementHeight <= s.RoughnessHeight {
		return domainError("measurement_height", s.MeasurementHeight, "must be greater than roughness_height")
	}
	if err := fraction("forest_cover_fraction", s.ForestCoverFraction); err != nil {
		return err
	}
	if err := fraction("albedo", s.Albedo); err != nil {
		return err
	}
	if err := finite("snow_density", s.SnowDensity); err != nil {
		return err
	}
	if s.SnowDensity <= 0 {
		return domainError("snow_density", s.SnowDensity, "must be greater than zero")
	}
	return nil
}

// Validate checks that every weather parameter keeps the formulas finite
func (w WeatherConfig) Validate() error {
	if err := finite("clear_sky_solar_rad", w.ClearSkySolarRad); err != nil {
		return err
	}
	if w.ClearSkySolarRad < 0 {
		return domainError("clear_sky_solar_rad", w.ClearSkySolarRad, "must not be negative")
	}
	if err := fraction("cloud_cover_fraction", w.CloudCoverFraction); err != nil {
		return err
	}
	if err := fraction("relative_humidity", w.RelativeHumidity); err != nil {
		return err
	}
	if err := finite("wind_speed", w.WindSpeed); err != nil {
		return err
	}
	// The Richardson number divides by the square of the adjusted wind speed
	if w.WindSpeed <= 0 {
		return domainError("wind_speed", w.WindSpeed, "must be greater than zero")
	}
	if err := finite("rain_rate", w.RainRate); err != nil {
		return err
	}
	if w.RainRate < 0 {
		return domainError("rain_rate", w.RainRate, "must not be negative")
	}
	if err := finite("atmospheric_pressure", w.AtmosphericPressure); err != nil {
		return err
	}
	if w.AtmosphericPressure <= 0 {
		return domainError("atmospheric_pressure", w.AtmosphericPressure, "must be greater than zero")
	}
	return nil
}

// validateAirTemperature rejects temperatures that hit a pole in the vapor
// pressure curve (-237.3 C) or anything colder, which also covers the air
// density pole at -273.2 C.
func validateAirTemperature(ta float64) error {
	if err := finite("air_temperature", ta); err != nil {
		return err
	}
	if ta <= -237.3 {
		return domainError("air_temperature", ta, "must be warmer than -237.3 C")
	}
	return nil
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domainError(field, v, "must be a finite number")
	}
	return nil
}

func fraction(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 1 {
		return domainError(field, v, "must be between 0 and 1")
	}
	return nil
}
