package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/validation"
)

// Permission states accepted under permissions.*.
const (
	PermissionGranted           = "granted"
	PermissionDenied            = "denied"
	PermissionPermanentlyDenied = "permanently_denied"
)

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	TestingMode bool

	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string `validate:"required,url"`
	WeatherAPITimeout time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// GPSCoordinate backs the gps location backend; nil leaves it disabled.
	GPSCoordinate          *models.Coordinate
	NetworkLocationEnabled bool
	NetworkLocationURL     string `validate:"omitempty,url"`
	LocationTimeout        time.Duration
	LocationAccuracy       string `validate:"oneof=high balanced"`

	// NetworkTransport is "system" to inspect host interfaces, otherwise a fixed transport.
	NetworkTransport string `validate:"oneof=system wifi cellular ethernet other none"`

	FineLocationPermission   string `validate:"oneof=granted denied permanently_denied"`
	CoarseLocationPermission string `validate:"oneof=granted denied permanently_denied"`

	DisplayLocale   string
	DisplayTimezone *time.Location

	RefreshOnStart bool
}

type fileConfig struct {
	TestingMode *bool `yaml:"testing_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Location struct {
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
		Network   struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
		} `yaml:"network"`
		Timeout  string `yaml:"timeout"`
		Accuracy string `yaml:"accuracy"`
	} `yaml:"location"`

	Network struct {
		Transport string `yaml:"transport"`
	} `yaml:"network"`

	Permissions struct {
		FineLocation   string `yaml:"fine_location"`
		CoarseLocation string `yaml:"coarse_location"`
	} `yaml:"permissions"`

	Display struct {
		Locale   string `yaml:"locale"`
		Timezone string `yaml:"timezone"`
	} `yaml:"display"`

	Pipeline struct {
		RefreshOnStart *bool `yaml:"refresh_on_start"`
	} `yaml:"pipeline"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml.
// A .env file in the working directory is loaded first and never overrides variables already set.
// API key comes from WEATHER_API_KEY env or secrets file. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}
	if fc.TestingMode != nil {
		cfg.TestingMode = *fc.TestingMode
	}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey, err = loadAPIKey(cwd)
	if err != nil {
		return nil, err
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env, .env or config/secrets.yaml weather_api_key)")
	}

	cfg.WeatherAPIURL = strings.TrimSpace(fc.WeatherAPI.URL)
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 5*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 20*time.Second)
	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if fc.Location.Latitude != nil && fc.Location.Longitude != nil {
		cfg.GPSCoordinate = &models.Coordinate{
			Latitude:  *fc.Location.Latitude,
			Longitude: *fc.Location.Longitude,
		}
	}
	cfg.NetworkLocationEnabled = fc.Location.Network.Enabled
	cfg.NetworkLocationURL = strings.TrimSpace(fc.Location.Network.URL)
	cfg.LocationTimeout = parseDuration(fc.Location.Timeout, 10*time.Second)
	cfg.LocationAccuracy = lowerOr(fc.Location.Accuracy, "high")

	cfg.NetworkTransport = lowerOr(os.Getenv("NETWORK_TRANSPORT"), lowerOr(fc.Network.Transport, "system"))

	cfg.FineLocationPermission = lowerOr(fc.Permissions.FineLocation, PermissionGranted)
	cfg.CoarseLocationPermission = lowerOr(fc.Permissions.CoarseLocation, PermissionGranted)

	cfg.DisplayLocale = strings.TrimSpace(os.Getenv("DISPLAY_LOCALE"))
	if cfg.DisplayLocale == "" {
		cfg.DisplayLocale = strings.TrimSpace(fc.Display.Locale)
	}
	if cfg.DisplayLocale == "" {
		cfg.DisplayLocale = "en_GB"
	}
	tz := strings.TrimSpace(fc.Display.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	cfg.DisplayTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("display.timezone %q: %w", tz, err)
	}

	cfg.RefreshOnStart = true
	if fc.Pipeline.RefreshOnStart != nil {
		cfg.RefreshOnStart = *fc.Pipeline.RefreshOnStart
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAPIKey prefers WEATHER_API_KEY from the environment, then config/secrets.yaml.
func loadAPIKey(cwd string) (string, error) {
	if key := strings.TrimSpace(os.Getenv("WEATHER_API_KEY")); key != "" {
		return key, nil
	}
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.WeatherAPIKey), nil
}

func lowerOr(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// RequestTimeout must leave room for a location fix plus one fetch; it is raised if not.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("WEATHER_API_TIMEOUT must be positive")
	}
	if cfg.GPSCoordinate != nil {
		if err := validation.ValidateCoordinate(*cfg.GPSCoordinate); err != nil {
			return fmt.Errorf("location coordinates: %w", err)
		}
	}
	if err := validation.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if floor := cfg.LocationTimeout + cfg.WeatherAPITimeout; cfg.RequestTimeout <= floor {
		cfg.RequestTimeout = floor + time.Second
	}
	return nil
}
