package snowmelt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteReport writes a human-readable summary of one evaluation's inputs and
// outputs to w.
func WriteReport(w io.Writer, site SiteConfig, weather WeatherConfig, r Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "---Simple Snow Melt Model---\n\n")
	fmt.Fprintf(bw, "INPUT\n\n")
	fmt.Fprintf(bw, "Site:\n")
	fmt.Fprintf(bw, "  Measurement Height:   %g m\n", site.MeasurementHeight)
	fmt.Fprintf(bw, "  Roughness Height:     %g m\n", site.RoughnessHeight)
	fmt.Fprintf(bw, "  Forest Cover:         %g\n", site.ForestCoverFraction)
	fmt.Fprintf(bw, "  Albedo:               %g\n", site.Albedo)
	fmt.Fprintf(bw, "  Snowpack Density:     %g kg/m^3\n", site.SnowDensity)
	fmt.Fprintf(bw, "\nWeather:\n")
	fmt.Fprintf(bw, "  Clear Sky Solar Rad:  %g MJ/(m^2 day)\n", weather.ClearSkySolarRad)
	fmt.Fprintf(bw, "  Cloud Fraction:       %g\n", weather.CloudCoverFraction)
	fmt.Fprintf(bw, "  Air Temp:             %g C\n", r.AirTemperature)
	fmt.Fprintf(bw, "  Relative Humidity:    %g\n", weather.RelativeHumidity)
	fmt.Fprintf(bw, "  Wind Speed:           %g m/s\n", weather.WindSpeed)
	fmt.Fprintf(bw, "  Rain Rate:            %g mm/day\n", weather.RainRate)
	fmt.Fprintf(bw, "  Atmos Pressure:       %g kPa\n", weather.AtmosphericPressure)

	fmt.Fprintf(bw, "\nOUTPUT\n\n")
	fmt.Fprintf(bw, "Regime: %s atmosphere, %s\n", r.StabilityRegime, r.VaporRegime)
	fmt.Fprintf(bw, "\nEnergy Balance Approach:\n")
	fmt.Fprintf(bw, "  Total Melt:           %.4f mm/day\n", r.TotalMelt)
	fmt.Fprintf(bw, "  Total Ablation:       %.4f mm/day\n", r.TotalAblation)
	fmt.Fprintf(bw, "  Total Water Output:   %.4f mm/day\n", r.TotalWaterOutput)
	fmt.Fprintf(bw, "\nTemperature Index Approach:\n")
	fmt.Fprintf(bw, "  Total Melt:           %.4f mm/day\n", r.TITotalMelt)
	fmt.Fprintf(bw, "  Total Water Output:   %.4f mm/day\n", r.TITotalWaterOutput)
	fmt.Fprintf(bw, "\n---Complete---\n")

	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
