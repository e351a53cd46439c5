package snowmelt

import "math"

// stefanBoltzmann is the Stefan-Boltzmann constant in MJ/(m^2 day K^4)
const stefanBoltzmann = 4.9e-9

// meltPointK is the melting point of ice in Kelvin as used throughout the model
const meltPointK = 273.2

// NetSolarRad returns net shortwave radiation in MJ/(m^2 day) after cloud
// transmission, forest shading and reflection off the snow surface.
func NetSolarRad(clearSkyRad, cloudFraction, forestFraction, albedo float64) float64 {
	// Cloud transmissivity (Croley, 1989)
	tauCloud := 0.355 + 0.68*(1.0-cloudFraction)

	// Canopy transmissivity, lodgepole pine (Mahat and Tarboton, 2012)
	tauForest := math.Exp(-3.91 * forestFraction)

	return clearSkyRad * tauCloud * tauForest * (1.0 - albedo)
}

// VaporPressure returns the actual vapor pressure in kPa from the saturation
// curve at the air temperature scaled by relative humidity.
func VaporPressure(airTemp, relativeHumidity float64) float64 {
	return 0.611 * math.Exp(17.3*airTemp/(airTemp+237.3)) * relativeHumidity
}

// AtmosEmissivity returns the effective emissivity of the atmosphere and canopy.
//
// Clear-sky emissivity 0.83-0.18*exp(-1.54*ea) is blended toward 1 by cloud
// cover (weight 0.84*C) and the result is blended toward 1 again by forest
// cover, since the canopy radiates as a near-blackbody.
func AtmosEmissivity(forestFraction, vaporPressure, cloudFraction float64) float64 {
	clearSky := 0.83 - 0.18*math.Exp(-1.54*vaporPressure)
	cloudy := (1.0-0.84*cloudFraction)*clearSky + 0.84*cloudFraction
	return (1.0-forestFraction)*cloudy + forestFraction
}

// NetLongWaveRad returns net longwave radiation in MJ/(m^2 day): incoming
// atmospheric radiation at air temperature less emission from a snow surface
// held at 0 C.
func NetLongWaveRad(emissivity, airTemp float64) float64 {
	incoming := emissivity * stefanBoltzmann * math.Pow(airTemp+meltPointK, 4)
	outgoing := stefanBoltzmann * math.Pow(meltPointK, 4)
	return incoming - outgoing
}

// NetRad is the sum of net shortwave and net longwave radiation
func NetRad(netSolar, netLongWave float64) float64 {
	return netSolar + netLongWave
}
