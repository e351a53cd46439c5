// Package snowmelt computes snowpack melt and water output with an energy
// balance model and a temperature-index model side by side.
//
// Every formula is a pure function of its arguments. The Evaluator composes
// them for one air temperature and Sweep repeats that over a temperature
// series. Formulas follow Dingman (2015), Physical Hydrology, chapter 5.
package snowmelt

import (
	"io"
	"os"

	"go.uber.org/zap"
)

// Evaluator runs the model for a fixed site and weather configuration.
// It is safe for concurrent use once constructed.
type Evaluator struct {
	site    SiteConfig
	weather WeatherConfig
	logger  *zap.SugaredLogger
	sink    io.Writer
}

// NewEvaluator validates both configurations and returns an Evaluator.
// Diagnostic reports go to stdout until SetDiagnosticSink is called.
func NewEvaluator(site SiteConfig, weather WeatherConfig, logger *zap.SugaredLogger) (*Evaluator, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}
	if err := weather.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Evaluator{
		site:    site,
		weather: weather,
		logger:  logger,
		sink:    os.Stdout,
	}, nil
}

// SetDiagnosticSink sets where diagnostic reports are written. Call it before
// the Evaluator is shared between goroutines.
func (e *Evaluator) SetDiagnosticSink(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	e.sink = w
}

// Site returns the site configuration
func (e *Evaluator) Site() SiteConfig { return e.site }

// Weather returns the weather configuration
func (e *Evaluator) Weather() WeatherConfig { return e.weather }

// Evaluate runs both models at airTemp (C). With diagnostics set, a report of
// the inputs and outputs is written to the diagnostic sink; a failed write is
// logged and does not affect the result.
func (e *Evaluator) Evaluate(airTemp float64, diagnostics bool) (Result, error) {
	r, err := compute(e.site, e.weather, airTemp)
	if err != nil {
		return Result{}, err
	}

	e.logger.Debugw("evaluated snowmelt model",
		"air_temperature", airTemp,
		"stability", r.StabilityRegime.String(),
		"vapor", r.VaporRegime.String(),
		"total_melt", r.TotalMelt,
		"ti_total_melt", r.TITotalMelt,
	)

	if diagnostics {
		if werr := WriteReport(e.sink, e.site, e.weather, r); werr != nil {
			e.logger.Warnf("could not write diagnostic report for %.2f C: %v", airTemp, werr)
		}
	}

	return r, nil
}

// Evaluate runs both models once without an Evaluator
func Evaluate(site SiteConfig, weather WeatherConfig, airTemp float64) (Result, error) {
	if err := site.Validate(); err != nil {
		return Result{}, err
	}
	if err := weather.Validate(); err != nil {
		return Result{}, err
	}
	return compute(site, weather, airTemp)
}

// compute assumes both configurations have already been validated
func compute(s SiteConfig, w WeatherConfig, ta float64) (Result, error) {
	if err := validateAirTemperature(ta); err != nil {
		return Result{}, err
	}

	r := Result{AirTemperature: ta}

	// Radiation
	r.NetSolarRad = NetSolarRad(w.ClearSkySolarRad, w.CloudCoverFraction, s.ForestCoverFraction, s.Albedo)
	r.VaporPressure = VaporPressure(ta, w.RelativeHumidity)
	r.AtmosEmissivity = AtmosEmissivity(s.ForestCoverFraction, r.VaporPressure, w.CloudCoverFraction)
	r.NetLongWaveRad = NetLongWaveRad(r.AtmosEmissivity, ta)
	r.NetRad = NetRad(r.NetSolarRad, r.NetLongWaveRad)

	// Turbulent exchange
	r.AdjustedWindSpeed = AdjustedWindSpeed(w.WindSpeed, s.ForestCoverFraction)
	r.AirDensity = AirDensity(w.AtmosphericPressure, ta)
	r.RichardsonNumber = RichardsonNumber(ta, r.AdjustedWindSpeed)
	r.StabilityRegime = ClassifyStability(r.RichardsonNumber)
	r.StabilityFactorM = StabilityFactorM(s.MeasurementHeight, s.RoughnessHeight)
	r.StabilityFactorsVH = StabilityFactorsVH(r.RichardsonNumber, r.StabilityFactorM)
	r.SensibleHeatXferCo = SensibleHeatXferCoefficient(r.AirDensity, s.MeasurementHeight, s.RoughnessHeight)
	r.LatentHeatXferCo = LatentHeatXferCoefficient(r.AirDensity, w.AtmosphericPressure, s.MeasurementHeight, s.RoughnessHeight)
	r.SensibleXferRate = SensibleHeatXferRate(r.StabilityFactorsVH, r.SensibleHeatXferCo, r.AdjustedWindSpeed, ta)
	r.LatentXferRate = LatentHeatXferRate(r.StabilityFactorsVH, r.LatentHeatXferCo, r.AdjustedWindSpeed, r.VaporPressure)
	r.VaporRegime = ClassifyVapor(r.LatentXferRate)
	r.Condensation = Condensation(r.LatentXferRate)
	r.RainHeat = RainHeat(w.RainRate, ta)

	r.TotalHeatInputRate = TotalHeatInputRate(r.NetRad, r.SensibleXferRate, r.LatentXferRate, r.RainHeat)

	// Energy balance approach
	r.TotalMelt = TotalMelt(r.TotalHeatInputRate)
	r.TotalAblation = TotalAblation(r.LatentXferRate, r.TotalMelt, r.Condensation)
	r.TotalWaterOutput = TotalWaterOutput(r.LatentXferRate, r.TotalMelt, w.RainRate, r.Condensation)

	// Temperature index approach
	r.TITotalMelt = TITotalMelt(ta, s.ForestCoverFraction, s.SnowDensity)
	r.TITotalWaterOutput = TITotalWaterOutput(r.TITotalMelt, w.RainRate)

	if name, v := r.firstNonFinite(); name != "" {
		return Result{}, domainError("air_temperature", ta, "produced non-finite "+name+" ("+formatFloat(v)+")")
	}

	return r, nil
}
