package snowmelt

import "math"

const (
	// vonKarman is von Karman's constant
	vonKarman = 0.4

	// gravity in m/s^2
	gravity = 9.81

	// criticalRichardson is the Richardson number at which turbulence is
	// fully suppressed in the stability correction
	criticalRichardson = 0.2

	// secondsPerDay converts per-second transfer coefficients to daily units
	secondsPerDay = 86400.0

	// heatCapacityAir is the specific heat of air in MJ/(kg K)
	heatCapacityAir = 0.001005

	// latentHeatVaporization is in MJ/kg
	latentHeatVaporization = 2.47

	// saturationAtMelt is the saturation vapor pressure over ice at 0 C, kPa
	saturationAtMelt = 0.611

	// waterHeatCapacity is the heat capacity of rain water in MJ/(kg K)
	waterHeatCapacity = 0.004187
)

// AdjustedWindSpeed reduces open wind speed by forest cover
func AdjustedWindSpeed(windSpeed, forestFraction float64) float64 {
	return windSpeed * (1.0 - 0.8*forestFraction)
}

// AirDensity returns the density of air in kg/m^3 from pressure in kPa and
// air temperature in C.
func AirDensity(pressure, airTemp float64) float64 {
	return pressure / (0.288 * (airTemp + meltPointK))
}

// RichardsonNumber returns the bulk Richardson number for air at airTemp over
// a 0 C snow surface. The gradient is taken over a 2 m layer using the mean
// layer temperature. adjustedWindSpeed must be non-zero; configs with a zero
// wind speed are rejected by WeatherConfig.Validate.
func RichardsonNumber(airTemp, adjustedWindSpeed float64) float64 {
	const layer = 2.0
	meanLayerK := 0.5 * (airTemp + 2.0*meltPointK)
	return (layer * layer * gravity * airTemp) / (meanLayerK * adjustedWindSpeed * adjustedWindSpeed)
}

// StabilityFactorM returns the cap applied to the Richardson number in the
// stable regime, 1/(ln(za/z0)+5).
func StabilityFactorM(measurementHeight, roughnessHeight float64) float64 {
	return 1.0 / (math.Log(measurementHeight/roughnessHeight) + 5.0)
}

// StabilityFactorsVH returns the stability correction applied to both the
// sensible and latent heat transfer rates.
//
// Unstable/neutral air uses (1 - Ri/Ric)^2 directly. Stable air uses the same
// form with Ri capped at stabilityM, which keeps the correction positive and
// bounded however warm the air becomes.
func StabilityFactorsVH(richardson, stabilityM float64) float64 {
	switch ClassifyStability(richardson) {
	case RegimeStable:
		ri := math.Min(richardson, stabilityM)
		return math.Pow(1.0-ri/criticalRichardson, 2)
	default:
		return math.Pow(1.0-richardson/criticalRichardson, 2)
	}
}

// logProfileSquared is ln(za/z0)^2, the neutral log-wind-profile term
func logProfileSquared(measurementHeight, roughnessHeight float64) float64 {
	l := math.Log(measurementHeight / roughnessHeight)
	return l * l
}

// SensibleHeatXferCoefficient returns the bulk sensible heat transfer
// coefficient in MJ/(m^3 K day).
func SensibleHeatXferCoefficient(airDensity, measurementHeight, roughnessHeight float64) float64 {
	k2 := vonKarman * vonKarman
	return (0.622 * k2 * airDensity * heatCapacityAir / logProfileSquared(measurementHeight, roughnessHeight)) * secondsPerDay
}

// LatentHeatXferCoefficient returns the bulk latent heat transfer coefficient
// in MJ/(m^3 kPa day).
func LatentHeatXferCoefficient(airDensity, pressure, measurementHeight, roughnessHeight float64) float64 {
	k2 := vonKarman * vonKarman
	return (0.622 * airDensity * latentHeatVaporization * k2 / (pressure * logProfileSquared(measurementHeight, roughnessHeight))) * secondsPerDay
}

// SensibleHeatXferRate returns sensible heat exchange in MJ/(m^2 day) driven
// by the air-to-surface temperature difference (surface at 0 C).
func SensibleHeatXferRate(stabilityVH, coefficient, adjustedWindSpeed, airTemp float64) float64 {
	return stabilityVH * coefficient * adjustedWindSpeed * (airTemp - 0.0)
}

// LatentHeatXferRate returns latent heat exchange in MJ/(m^2 day) driven by
// the vapor pressure difference against a saturated 0 C surface.
func LatentHeatXferRate(stabilityVH, coefficient, adjustedWindSpeed, vaporPressure float64) float64 {
	return stabilityVH * coefficient * adjustedWindSpeed * (vaporPressure - saturationAtMelt)
}

// Condensation converts the magnitude of the latent heat rate into a water
// depth rate, mm/day.
func Condensation(latentRate float64) float64 {
	return math.Abs(latentRate) / latentHeatVaporization
}

// RainHeat returns heat advected by rain at air temperature, MJ/(m^2 day)
func RainHeat(rainRate, airTemp float64) float64 {
	return rainRate * airTemp * waterHeatCapacity
}
