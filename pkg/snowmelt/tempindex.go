package snowmelt

// TITotalMelt returns temperature-index melt in mm/day. Melt needs air
// strictly above 0 C; the degree-day factors for forested and open terrain
// both scale with snow density and are blended by forest cover.
func TITotalMelt(airTemp, forestFraction, snowDensity float64) float64 {
	if !(airTemp > 0) {
		return 0
	}
	forested := 19.6*snowDensity/1000.0 - 2.39
	open := 10.4*snowDensity/1000.0 - 0.7
	return forestFraction*forested*airTemp + (1.0-forestFraction)*open*airTemp
}

// TITotalWaterOutput adds rain to temperature-index melt
func TITotalWaterOutput(tiTotalMelt, rainRate float64) float64 {
	return tiTotalMelt + rainRate
}
