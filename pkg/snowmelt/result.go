package snowmelt

import "math"

// Result holds every intermediate quantity and final output of one model
// evaluation. Rates are per day; radiation and heat terms are MJ/(m^2 day),
// melt and water terms are mm/day.
type Result struct {
	AirTemperature float64 `json:"air_temperature"`

	// Radiation
	NetSolarRad     float64 `json:"net_solar_rad"`
	VaporPressure   float64 `json:"vapor_pressure"`
	AtmosEmissivity float64 `json:"atmos_emissivity"`
	NetLongWaveRad  float64 `json:"net_long_wave_rad"`
	NetRad          float64 `json:"net_rad"`

	// Turbulent exchange
	AdjustedWindSpeed  float64         `json:"adjusted_wind_speed"`
	AirDensity         float64         `json:"air_density"`
	RichardsonNumber   float64         `json:"richardson_number"`
	StabilityRegime    StabilityRegime `json:"stability_regime"`
	StabilityFactorM   float64         `json:"stability_factor_m"`
	StabilityFactorsVH float64         `json:"stability_factors_v_h"`
	SensibleHeatXferCo float64         `json:"sensible_heat_xfer_co"`
	LatentHeatXferCo   float64         `json:"latent_heat_xfer_co"`
	SensibleXferRate   float64         `json:"sensible_xfer_rate"`
	LatentXferRate     float64         `json:"latent_xfer_rate"`
	VaporRegime        VaporRegime     `json:"vapor_regime"`
	Condensation       float64         `json:"condensation"`
	RainHeat           float64         `json:"rain_heat"`

	TotalHeatInputRate float64 `json:"total_heat_input_rate"`

	// Energy balance outputs
	TotalMelt        float64 `json:"total_melt"`
	TotalAblation    float64 `json:"total_ablation"`
	TotalWaterOutput float64 `json:"total_water_output"`

	// Temperature index outputs
	TITotalMelt        float64 `json:"ti_total_melt"`
	TITotalWaterOutput float64 `json:"ti_total_water_output"`
}

// firstNonFinite returns the name of the first NaN or infinite field, or ""
func (r Result) firstNonFinite() (string, float64) {
	fields := []struct {
		name  string
		value float64
	}{
		{"net_solar_rad", r.NetSolarRad},
		{"vapor_pressure", r.VaporPressure},
		{"atmos_emissivity", r.AtmosEmissivity},
		{"net_long_wave_rad", r.NetLongWaveRad},
		{"net_rad", r.NetRad},
		{"adjusted_wind_speed", r.AdjustedWindSpeed},
		{"air_density", r.AirDensity},
		{"richardson_number", r.RichardsonNumber},
		{"stability_factor_m", r.StabilityFactorM},
		{"stability_factors_v_h", r.StabilityFactorsVH},
		{"sensible_heat_xfer_co", r.SensibleHeatXferCo},
		{"latent_heat_xfer_co", r.LatentHeatXferCo},
		{"sensible_xfer_rate", r.SensibleXferRate},
		{"latent_xfer_rate", r.LatentXferRate},
		{"condensation", r.Condensation},
		{"rain_heat", r.RainHeat},
		{"total_heat_input_rate", r.TotalHeatInputRate},
		{"total_melt", r.TotalMelt},
		{"total_ablation", r.TotalAblation},
		{"total_water_output", r.TotalWaterOutput},
		{"ti_total_melt", r.TITotalMelt},
		{"ti_total_water_output", r.TITotalWaterOutput},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name, f.value
		}
	}
	return "", 0
}
