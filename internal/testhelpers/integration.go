//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/kjstillabower/weather-display-service/internal/models"
)

// IntegrationTestConfig holds configuration for tests against the live weather API.
type IntegrationTestConfig struct {
	APIKey     string
	APIURL     string
	Timeout    time.Duration
	Coordinate models.Coordinate
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openweathermap.org/data/2.5"
	}

	return IntegrationTestConfig{
		APIKey:  apiKey,
		APIURL:  apiURL,
		Timeout: 5 * time.Second,
		Coordinate: models.Coordinate{
			Latitude:  envFloat("INTEGRATION_LAT", 51.5074),
			Longitude: envFloat("INTEGRATION_LON", -0.1278),
		},
	}
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
