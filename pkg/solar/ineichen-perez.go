// Package solar estimates clear-sky shortwave radiation from site location
// and date, for feeding the snowmelt model when no measured clear-sky
// radiation is available.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	solarConstant = 1361.0 // W/m², mean irradiance at the top of the atmosphere

	// linkeTurbidity is the Linke turbidity factor for a clean clear sky (range 2-6)
	linkeTurbidity = 2.0
)

func degToRad(deg float64) float64 { return deg * (math.Pi / 180.0) }
func radToDeg(rad float64) float64 { return rad * (180.0 / math.Pi) }

// fixAngle normalizes an angle to [0, 360) degrees
func fixAngle(angle float64) float64 {
	return angle - 360.0*math.Floor(angle/360.0)
}

// equationOfTime returns apparent minus mean solar time, in minutes
func equationOfTime(t time.Time) float64 {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))            // mean longitude of the Sun
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))             // mean anomaly of the Sun
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)                  // eccentricity of Earth's orbit
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60 // mean obliquity of the ecliptic

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4 // 4 minutes per degree
}

// zenithAngle returns the solar zenith angle in degrees at t
func zenithAngle(t time.Time, latitude, longitude float64) float64 {
	t = t.UTC()
	n := t.YearDay()

	// Sinusoidal approximation of declination, peaking at the solstices
	declination := 23.45 * math.Sin(degToRad(360.0/365.0*float64(n-81)))

	// True solar time from UTC, longitude (4 min/deg) and equation of time
	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	tst := utcMin + 4*longitude + equationOfTime(t)
	hourAngle := tst/4 - 180

	latRad := degToRad(latitude)
	declRad := degToRad(declination)
	cosZ := math.Sin(latRad)*math.Sin(declRad) + math.Cos(latRad)*math.Cos(declRad)*math.Cos(degToRad(hourAngle))
	// Guard acos against rounding just outside [-1, 1]
	cosZ = math.Max(-1, math.Min(1, cosZ))
	return radToDeg(math.Acos(cosZ))
}

// CalculateGHIIneichenPerez returns clear-sky global horizontal irradiance in
// W/m² at t using the Ineichen-Perez model. Altitude is in meters.
func CalculateGHIIneichenPerez(t time.Time, latitude, longitude, altitude float64) float64 {
	thetaZ := zenithAngle(t, latitude, longitude)
	if thetaZ >= 90.0 {
		return 0.0
	}

	n := t.UTC().YearDay()

	// Extraterrestrial irradiance corrected for Earth-Sun distance
	g0 := solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*(float64(n)-3)/365.0)))

	// Kasten-Young air mass
	am := 1.0 / (math.Cos(degToRad(thetaZ)) + 0.50572*math.Pow(96.07995-thetaZ, -1.6364))

	const c = 0.7   // DNI normalization
	const a = 0.027 // extinction coefficient
	dni := g0 * c * math.Exp(-a*am*linkeTurbidity*math.Exp(-altitude/8000.0))

	// Diffuse fraction with a small seasonal swing
	fh := 0.1 + 0.05*math.Sin(math.Pi*float64(n-100)/365.0)
	dhi := fh * g0 * math.Sin(degToRad(thetaZ))

	return dni*math.Cos(degToRad(thetaZ)) + dhi
}
