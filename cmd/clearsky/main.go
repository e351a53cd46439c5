package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/frasertheking/toy-snowmodel/pkg/solar"
)

func main() {
	var (
		latitude  = flag.Float64("lat", 47.6, "Site latitude in degrees")
		longitude = flag.Float64("lon", -122.3, "Site longitude in degrees, east positive")
		altitude  = flag.Float64("alt", 0, "Site altitude in meters")
		dateStr   = flag.String("date", "", "Date to integrate (YYYY-MM-DD, default today)")
		tzName    = flag.String("tz", "Local", "Time zone for sunrise and sunset")
	)
	flag.Parse()

	date := time.Now().UTC()
	if *dateStr != "" {
		var err error
		date, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			os.Exit(1)
		}
	}

	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading time zone: %v\n", err)
		os.Exit(1)
	}

	radiation := solar.DailyClearSkyRadiation(date, *latitude, *longitude, *altitude)
	daylight := solar.DaylightFor(date, *latitude, *longitude)

	fmt.Printf("Clear sky at %.4f, %.4f (%.0f m) on %s\n", *latitude, *longitude, *altitude, date.Format("2006-01-02"))
	fmt.Printf("  Solar radiation: %.2f MJ/m²/day\n", radiation)
	switch {
	case daylight.PolarDay:
		fmt.Printf("  Daylight:        24.0 hours (polar day)\n")
	case daylight.PolarNight:
		fmt.Printf("  Daylight:        0.0 hours (polar night)\n")
	default:
		fmt.Printf("  Sunrise:         %s\n", solar.FormatSunTime(daylight.Sunrise, loc))
		fmt.Printf("  Sunset:          %s\n", solar.FormatSunTime(daylight.Sunset, loc))
		fmt.Printf("  Daylight:        %.1f hours\n", daylight.Hours)
	}
}
