package models

// Coordinate is a single resolved position. Passed by value; never mutated after capture.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// UnitSystem is the measurement convention used to label numeric weather fields.
type UnitSystem int

const (
	UnitMetric UnitSystem = iota
	UnitImperial
)

// Token returns the provider query token for the unit system.
func (u UnitSystem) Token() string {
	switch u {
	case UnitImperial:
		return "imperial"
	default:
		return "metric"
	}
}

func (u UnitSystem) String() string {
	return u.Token()
}

// WeatherQuery fully determines one outbound current-weather request.
type WeatherQuery struct {
	Coordinate Coordinate
	Units      UnitSystem
	APIKey     string `validate:"required,min=10"`
}

// Condition is one reported weather condition. A record may carry several.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	IconCode    string `json:"iconCode"`
}

// Temperature values are in the queried unit system.
type Temperature struct {
	Current         float64 `json:"current"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	HumidityPercent int     `json:"humidityPercent"`
}

type Wind struct {
	SpeedMetersPerSecond float64 `json:"speedMetersPerSecond"`
}

// Sun holds sunrise and sunset as Unix seconds.
type Sun struct {
	SunriseUnixSeconds int64 `json:"sunriseUnixSeconds"`
	SunsetUnixSeconds  int64 `json:"sunsetUnixSeconds"`
}

// Place is the resolved place for the queried coordinate.
type Place struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// WeatherRecord is a fully parsed current-weather response.
type WeatherRecord struct {
	Conditions  []Condition `json:"conditions"`
	Temperature Temperature `json:"temperature"`
	Wind        Wind        `json:"wind"`
	Location    Place       `json:"location"`
	Sun         Sun         `json:"sun"`
}
