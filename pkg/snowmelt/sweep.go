package snowmelt

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultSweepMax is the warmest sample of the default sweep (0..49 C)
const DefaultSweepMax = 49.0

// MaxSweepSamples caps the number of samples TemperatureRange will produce
const MaxSweepSamples = 100000

// Point is one sample of a sweep. Err is set when that sample failed; the
// Result is then zero and every other Point is unaffected.
type Point struct {
	AirTemperature float64 `json:"air_temperature"`
	Result         Result  `json:"result"`
	Err            error   `json:"-"`
}

// Sweep evaluates a model across a series of air temperatures.
type Sweep struct {
	Evaluator *Evaluator

	// Workers bounds concurrent evaluations. Zero or one runs sequentially.
	Workers int
}

// NewSweep returns a sequential sweep over the given evaluator
func NewSweep(e *Evaluator) *Sweep {
	return &Sweep{Evaluator: e}
}

// Run evaluates every sample and returns one Point per sample in sample
// order. The returned error combines all per-sample failures, or carries the
// context error if ctx was cancelled first.
func (s *Sweep) Run(ctx context.Context, samples []float64) ([]Point, error) {
	if s.Evaluator == nil {
		return nil, fmt.Errorf("sweep has no evaluator")
	}

	points := make([]Point, len(samples))

	if s.Workers <= 1 {
		for i, ta := range samples {
			if err := ctx.Err(); err != nil {
				return points, err
			}
			points[i] = s.evaluate(ta)
		}
		return points, collectErrors(points)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, ta := range samples {
		i, ta := i, ta
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns exactly one slot, so no locking is needed
			points[i] = s.evaluate(ta)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return points, err
	}

	return points, collectErrors(points)
}

func (s *Sweep) evaluate(ta float64) Point {
	r, err := s.Evaluator.Evaluate(ta, false)
	if err != nil {
		return Point{AirTemperature: ta, Err: fmt.Errorf("evaluating %g C: %w", ta, err)}
	}
	return Point{AirTemperature: ta, Result: r}
}

// RunSweep evaluates site and weather sequentially over samples
func RunSweep(site SiteConfig, weather WeatherConfig, samples []float64) ([]Point, error) {
	e, err := NewEvaluator(site, weather, nil)
	if err != nil {
		return nil, err
	}
	return NewSweep(e).Run(context.Background(), samples)
}

// TemperatureRange returns min, min+step, ... up to and including max.
// Samples are computed as min+i*step so rounding error does not accumulate.
func TemperatureRange(min, max, step float64) ([]float64, error) {
	for _, v := range []struct {
		name  string
		value float64
	}{{"min", min}, {"max", max}, {"step", step}} {
		if err := finite("sweep_"+v.name, v.value); err != nil {
			return nil, err
		}
	}
	if step <= 0 {
		return nil, domainError("sweep_step", step, "must be greater than zero")
	}
	if max < min {
		return nil, domainError("sweep_max", max, "must not be less than sweep_min")
	}

	// The small epsilon keeps max itself when (max-min)/step is integral.
	// Counted in float64 so huge ranges are rejected before the int conversion.
	count := math.Floor((max-min)/step+1e-9) + 1
	if count > MaxSweepSamples {
		return nil, domainError("sweep_max", max, fmt.Sprintf("too many samples, at most %d are allowed", MaxSweepSamples))
	}
	samples := make([]float64, int(count))
	for i := range samples {
		samples[i] = min + float64(i)*step
	}
	return samples, nil
}

// DefaultTemperatures returns the integer degrees 0..DefaultSweepMax
func DefaultTemperatures() []float64 {
	samples, _ := TemperatureRange(0, DefaultSweepMax, 1)
	return samples
}

// Succeeded returns the points that evaluated without error, in order
func Succeeded(points []Point) []Point {
	ok := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Err == nil {
			ok = append(ok, p)
		}
	}
	return ok
}

func collectErrors(points []Point) error {
	var err error
	for _, p := range points {
		if p.Err != nil {
			err = multierr.Append(err, p.Err)
		}
	}
	return err
}
