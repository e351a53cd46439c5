package snowmelt

// latentHeatFusion is in MJ/kg; dividing MJ/(m^2 day) by it yields mm/day
const latentHeatFusion = 0.334

// TotalHeatInputRate sums radiative, turbulent and advected heat, MJ/(m^2 day)
func TotalHeatInputRate(netRad, sensibleRate, latentRate, rainHeat float64) float64 {
	return netRad + sensibleRate + latentRate + rainHeat
}

// TotalMelt returns melt in mm/day. A net energy deficit produces no melt.
func TotalMelt(heatInputRate float64) float64 {
	if heatInputRate < 0 {
		return 0
	}
	return heatInputRate / latentHeatFusion
}

// TotalAblation returns total mass loss in mm/day
func TotalAblation(latentRate, totalMelt, condensation float64) float64 {
	switch ClassifyVapor(latentRate) {
	case RegimeSublimation:
		return totalMelt + condensation
	default:
		return totalMelt
	}
}

// TotalWaterOutput returns water leaving the base of the pack in mm/day
func TotalWaterOutput(latentRate, totalMelt, rainRate, condensation float64) float64 {
	switch ClassifyVapor(latentRate) {
	case RegimeSublimation:
		return totalMelt + rainRate + condensation
	default:
		return totalMelt + rainRate
	}
}
