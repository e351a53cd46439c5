package solar

import (
	"math"
	"time"
)

// Daylight describes the sunlit part of a day at a site. Sunrise and Sunset
// are minutes from midnight UTC; both are -1 under polar day or night.
type Daylight struct {
	Sunrise    int
	Sunset     int
	Hours      float64
	PolarDay   bool
	PolarNight bool
}

// DaylightFor returns sunrise, sunset and day length on the calendar date of
// date at the given site.
func DaylightFor(date time.Time, latitude, longitude float64) Daylight {
	y, m, d := date.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	doy := float64(noon.YearDay())

	innerAngle := degToRad(356.6 + 0.9856*doy)
	outerAngle := degToRad(278.97 + 0.9856*doy + 1.9165*math.Sin(innerAngle))
	declinationRad := math.Asin(0.39785 * math.Sin(outerAngle))

	// Hour angle at which the sun crosses the horizon: cos(H) = -tan(lat) tan(decl)
	cosH := -math.Tan(degToRad(latitude)) * math.Tan(declinationRad)
	if cosH < -1.0 {
		return Daylight{Sunrise: -1, Sunset: -1, Hours: 24, PolarDay: true}
	}
	if cosH > 1.0 {
		return Daylight{Sunrise: -1, Sunset: -1, Hours: 0, PolarNight: true}
	}

	hourAngleMinutes := radToDeg(math.Acos(cosH)) / 15.0 * 60.0

	// Solar noon in UTC minutes, shifted 4 min per degree of longitude
	solarNoon := 720.0 - 4.0*longitude - equationOfTime(noon)

	sunrise := math.Mod(solarNoon-hourAngleMinutes+1440, 1440)
	sunset := math.Mod(solarNoon+hourAngleMinutes+1440, 1440)

	return Daylight{
		Sunrise: int(math.Round(sunrise)),
		Sunset:  int(math.Round(sunset)),
		Hours:   2 * hourAngleMinutes / 60.0,
	}
}

// FormatSunTime converts UTC minutes from midnight to a clock time in loc
func FormatSunTime(utcMinutes int, loc *time.Location) string {
	if utcMinutes < 0 {
		return ""
	}
	t := time.Date(2000, 1, 1, utcMinutes/60, utcMinutes%60, 0, 0, time.UTC)
	return t.In(loc).Format("3:04 PM")
}
