// Package presentation turns a WeatherRecord into the strings and icon shown on the details screen.
package presentation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-display-service/internal/models"
)

// Details is the rendered details screen.
type Details struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Min         string `json:"min"`
	Max         string `json:"max"`
	WindSpeed   string `json:"windSpeed"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	Icon        Icon   `json:"icon,omitempty"`
	Units       string `json:"units"`
}

// imperialRegions are the regions whose locale selects Fahrenheit labels.
var imperialRegions = map[string]struct{}{
	"US": {},
	"LR": {},
	"MM": {},
}

// UnitHintFromLocale derives the display unit system from a locale such as "en_US",
// "en-US.UTF-8" or a bare region "US".
func UnitHintFromLocale(locale string) models.UnitSystem {
	if _, ok := imperialRegions[regionOf(locale)]; ok {
		return models.UnitImperial
	}
	return models.UnitMetric
}

func regionOf(locale string) string {
	s := strings.TrimSpace(locale)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		if len(parts[0]) == 2 && strings.ToUpper(parts[0]) == parts[0] {
			return parts[0]
		}
		return ""
	}
	for _, p := range parts[1:] {
		if len(p) == 2 {
			return strings.ToUpper(p)
		}
	}
	return ""
}

// Presenter renders records. The zone fixes how sunrise and sunset are shown.
type Presenter struct {
	zone *time.Location
}

// NewPresenter returns a Presenter rendering clock times in zone (UTC when nil).
func NewPresenter(zone *time.Location) *Presenter {
	if zone == nil {
		zone = time.UTC
	}
	return &Presenter{zone: zone}
}

// Render fills every field from record. Conditions are applied in order; main and
// description take the last entry, and the icon only changes on a recognised code.
func (p *Presenter) Render(record models.WeatherRecord, hint models.UnitSystem) Details {
	d := Details{Units: hint.Token()}
	for _, c := range record.Conditions {
		d.Main = c.Main
		d.Description = c.Description
		if icon := IconFor(c.IconCode); icon != IconNone {
			d.Icon = icon
		}
	}
	d.Temperature = formatTemperature(record.Temperature.Current, hint)
	d.Humidity = strconv.Itoa(record.Temperature.HumidityPercent) + " %"
	d.Min = formatDegrees(record.Temperature.Min, hint) + " min."
	d.Max = formatDegrees(record.Temperature.Max, hint) + " max."
	d.WindSpeed = formatNumber(record.Wind.SpeedMetersPerSecond)
	d.Name = record.Location.Name
	d.Country = record.Location.CountryCode
	d.Sunrise = FormatClock(record.Sun.SunriseUnixSeconds, p.zone)
	d.Sunset = FormatClock(record.Sun.SunsetUnixSeconds, p.zone)
	return d
}

// FormatClock renders Unix seconds as 24-hour HH:MM in zone (UTC when nil).
func FormatClock(unixSeconds int64, zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return time.Unix(unixSeconds, 0).In(zone).Format("15:04")
}

// TemperatureSuffix is the unit label appended to the current temperature.
func TemperatureSuffix(hint models.UnitSystem) string {
	if hint == models.UnitImperial {
		return "°F"
	}
	return "°C"
}

func formatTemperature(celsius float64, hint models.UnitSystem) string {
	return formatDegrees(celsius, hint) + TemperatureSuffix(hint)
}

// formatDegrees converts the metric value when the hint asks for Fahrenheit.
func formatDegrees(celsius float64, hint models.UnitSystem) string {
	if hint == models.UnitImperial {
		return formatNumber(math.Round((celsius*9/5+32)*10) / 10)
	}
	return formatNumber(celsius)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
