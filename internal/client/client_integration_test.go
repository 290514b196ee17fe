//go:build integration
// +build integration

package client

import (
	"context"
	"testing"

	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/testhelpers"
)

func TestOpenWeatherClient_FetchWeather_Integration(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)

	client, err := NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}

	record, err := client.FetchWeather(context.Background(), models.WeatherQuery{
		Coordinate: cfg.Coordinate,
		Units:      models.UnitMetric,
		APIKey:     cfg.APIKey,
	})
	if err != nil {
		t.Fatalf("FetchWeather() error = %v (API key may not be activated yet)", err)
	}

	if record.Location.CountryCode == "" {
		t.Error("FetchWeather() returned empty country code")
	}
	if len(record.Conditions) == 0 {
		t.Error("FetchWeather() returned no conditions")
	}
	if record.Sun.SunriseUnixSeconds == 0 {
		t.Error("FetchWeather() returned zero sunrise")
	}
}
