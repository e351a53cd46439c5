package snowmelt

import "fmt"

// StabilityRegime classifies the surface layer by the sign of the bulk
// Richardson number.
type StabilityRegime int

const (
	// RegimeUnstable covers neutral and unstable air (Ri <= 0): air at or
	// below the snow surface temperature, turbulence is not suppressed.
	RegimeUnstable StabilityRegime = iota

	// RegimeStable covers warm air over snow (Ri > 0): buoyancy damps
	// turbulent exchange.
	RegimeStable
)

func (r StabilityRegime) String() string {
	switch r {
	case RegimeStable:
		return "stable"
	case RegimeUnstable:
		return "unstable"
	default:
		return "unknown"
	}
}

// ClassifyStability returns the regime for a bulk Richardson number
func ClassifyStability(richardson float64) StabilityRegime {
	if richardson > 0 {
		return RegimeStable
	}
	return RegimeUnstable
}

// VaporRegime classifies the direction of latent heat exchange at the surface.
type VaporRegime int

const (
	// RegimeCondensation means LE >= 0: vapor condenses onto the pack and
	// only melt leaves it.
	RegimeCondensation VaporRegime = iota

	// RegimeSublimation means LE < 0: the vapor exchange term is added to
	// both ablation and water output.
	RegimeSublimation
)

func (r VaporRegime) String() string {
	switch r {
	case RegimeCondensation:
		return "condensation"
	case RegimeSublimation:
		return "sublimation"
	default:
		return "unknown"
	}
}

// ClassifyVapor returns the vapor regime for a latent heat transfer rate
func ClassifyVapor(latentRate float64) VaporRegime {
	if latentRate < 0 {
		return RegimeSublimation
	}
	return RegimeCondensation
}

// MarshalText encodes the regime by name in JSON and YAML output
func (r StabilityRegime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names written by MarshalText
func (r *StabilityRegime) UnmarshalText(b []byte) error {
	switch string(b) {
	case "stable":
		*r = RegimeStable
	case "unstable":
		*r = RegimeUnstable
	default:
		return fmt.Errorf("unknown stability regime %q", string(b))
	}
	return nil
}

// MarshalText encodes the regime by name in JSON and YAML output
func (r VaporRegime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names written by MarshalText
func (r *VaporRegime) UnmarshalText(b []byte) error {
	switch string(b) {
	case "condensation":
		*r = RegimeCondensation
	case "sublimation":
		*r = RegimeSublimation
	default:
		return fmt.Errorf("unknown vapor regime %q", string(b))
	}
	return nil
}
