package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/validation"
)

// WeatherClient fetches current conditions for one query. Single attempt, no retry.
type WeatherClient interface {
	FetchWeather(ctx context.Context, query models.WeatherQuery) (models.WeatherRecord, error)
}

// LoadingIndicator is told when a fetch starts and ends. Show and Hide are called
// exactly once each per attempt, whatever the outcome.
type LoadingIndicator interface {
	Show()
	Hide()
}

var (
	ErrInvalidQuery     = errors.New("invalid weather query")
	ErrTransportFailure = errors.New("transport failure")
	ErrHTTPStatus       = errors.New("unsuccessful HTTP status")
	ErrDecodeFailure    = errors.New("decode failure")

	// Status classes carried by StatusError. All of them also match ErrHTTPStatus.
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code  int
	Class error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", e.Class, e.Code)
}

func (e *StatusError) Unwrap() []error {
	return []error{ErrHTTPStatus, e.Class}
}

// Retryable reports whether a later manual refresh could plausibly succeed (429, 5xx).
// Informational only; the client never retries on its own.
func (e *StatusError) Retryable() bool {
	return errors.Is(e.Class, ErrRateLimited) || errors.Is(e.Class, ErrUpstreamFailure)
}

func newStatusError(code int) *StatusError {
	var class error
	switch {
	case code == http.StatusBadRequest:
		class = ErrBadRequest
	case code == http.StatusUnauthorized:
		class = ErrInvalidAPIKey
	case code == http.StatusNotFound:
		class = ErrNotFound
	case code == http.StatusTooManyRequests:
		class = ErrRateLimited
	case code >= 500:
		class = ErrUpstreamFailure
	default:
		class = ErrUnexpectedStatus
	}
	return &StatusError{Code: code, Class: class}
}

type OpenWeatherClient struct {
	apiKey    string
	apiURL    string
	timeout   time.Duration
	client    *http.Client
	indicator LoadingIndicator
}

// NewOpenWeatherClient returns a client for {apiURL}/weather. apiURL is the API base,
// e.g. https://api.openweathermap.org/data/2.5.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// APIKey returns the key queries should carry.
func (c *OpenWeatherClient) APIKey() string {
	return c.apiKey
}

// SetLoadingIndicator attaches the presentation's progress indicator. Call before first use.
func (c *OpenWeatherClient) SetLoadingIndicator(ind LoadingIndicator) {
	c.indicator = ind
}

type openWeatherResponse struct {
	Weather *[]struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys *struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
}

// FetchWeather performs one GET and decodes the body. The loading indicator is shown
// once the query is valid and hidden on every return path after that.
func (c *OpenWeatherClient) FetchWeather(ctx context.Context, query models.WeatherQuery) (models.WeatherRecord, error) {
	if err := validation.ValidateQuery(query); err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	c.showLoading()
	defer c.hideLoading()

	return c.callAPI(ctx, query)
}

func (c *OpenWeatherClient) showLoading() {
	observability.LoadingIndicatorVisible.Inc()
	if c.indicator != nil {
		c.indicator.Show()
	}
}

func (c *OpenWeatherClient) hideLoading() {
	observability.LoadingIndicatorVisible.Dec()
	if c.indicator != nil {
		c.indicator.Hide()
	}
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, query models.WeatherQuery) (models.WeatherRecord, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, query)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherRecord{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("transport_error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("transport_error").Observe(duration)
		return models.WeatherRecord{}, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return models.WeatherRecord{}, newStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: read response body: %w", ErrTransportFailure, err)
	}
	if len(body) > maxResponseBytes {
		return models.WeatherRecord{}, fmt.Errorf("%w: response body exceeds %d bytes", ErrDecodeFailure, maxResponseBytes)
	}

	return decodeRecord(body)
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, query models.WeatherQuery) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	endpoint := baseURL.JoinPath("weather")

	endpoint.RawQuery = queryParams(query).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// queryParams renders the provider's documented parameter names. Coordinates use the
// shortest decimal form, so 12.9716 stays "12.9716".
func queryParams(query models.WeatherQuery) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(query.Coordinate.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(query.Coordinate.Longitude, 'f', -1, 64))
	params.Set("units", query.Units.Token())
	params.Set("appid", query.APIKey)
	return params
}

// decodeRecord maps a 2xx body to a WeatherRecord. Empty bodies, invalid JSON and
// bodies without weather, main or sys are decode failures, never a zero-valued success.
func decodeRecord(body []byte) (models.WeatherRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.WeatherRecord{}, fmt.Errorf("%w: empty body", ErrDecodeFailure)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: parse response: %w", ErrDecodeFailure, err)
	}

	switch {
	case apiResp.Weather == nil:
		return models.WeatherRecord{}, fmt.Errorf("%w: missing field weather", ErrDecodeFailure)
	case apiResp.Main == nil:
		return models.WeatherRecord{}, fmt.Errorf("%w: missing field main", ErrDecodeFailure)
	case apiResp.Sys == nil:
		return models.WeatherRecord{}, fmt.Errorf("%w: missing field sys", ErrDecodeFailure)
	}

	return mapResponse(apiResp), nil
}

func mapResponse(apiResp openWeatherResponse) models.WeatherRecord {
	conditions := make([]models.Condition, 0, len(*apiResp.Weather))
	for _, w := range *apiResp.Weather {
		conditions = append(conditions, models.Condition{
			Main:        w.Main,
			Description: w.Description,
			IconCode:    w.Icon,
		})
	}

	return models.WeatherRecord{
		Conditions: conditions,
		Temperature: models.Temperature{
			Current:         apiResp.Main.Temp,
			Min:             apiResp.Main.TempMin,
			Max:             apiResp.Main.TempMax,
			HumidityPercent: apiResp.Main.Humidity,
		},
		Wind: models.Wind{SpeedMetersPerSecond: apiResp.Wind.Speed},
		Location: models.Place{
			Name:        apiResp.Name,
			CountryCode: apiResp.Sys.Country,
		},
		Sun: models.Sun{
			SunriseUnixSeconds: apiResp.Sys.Sunrise,
			SunsetUnixSeconds:  apiResp.Sys.Sunset,
		},
	}
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
