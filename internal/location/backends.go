package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kjstillabower/weather-display-service/internal/models"
)

// StaticBackend reports a fixed position, standing in for a GPS receiver. It is enabled
// only when a coordinate is configured.
type StaticBackend struct {
	coord *models.Coordinate
}

// NewStaticBackend returns a gps backend. A nil coord disables it.
func NewStaticBackend(coord *models.Coordinate) *StaticBackend {
	return &StaticBackend{coord: coord}
}

func (b *StaticBackend) Name() string  { return BackendGPS }
func (b *StaticBackend) Enabled() bool { return b.coord != nil }

func (b *StaticBackend) Locate(ctx context.Context) (models.Fix, error) {
	if err := ctx.Err(); err != nil {
		return models.Fix{}, err
	}
	if b.coord == nil {
		return models.Fix{}, ErrLocationDisabled
	}
	c := *b.coord
	return models.Fix{Location: &c, Backend: BackendGPS, At: time.Now()}, nil
}

// DefaultIPLocateURL is the ip-api.com JSON endpoint restricted to the fields used here.
const DefaultIPLocateURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPBackend is the network-based backend: one GET to an IP geolocation service.
type IPBackend struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewIPBackend returns a network backend. An empty url uses DefaultIPLocateURL.
func NewIPBackend(url string, enabled bool, timeout time.Duration) *IPBackend {
	if url == "" {
		url = DefaultIPLocateURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPBackend{
		url:     url,
		enabled: enabled,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *IPBackend) Name() string  { return BackendNetwork }
func (b *IPBackend) Enabled() bool { return b.enabled }

type ipLocateResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (b *IPBackend) Locate(ctx context.Context) (models.Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return models.Fix{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return models.Fix{}, fmt.Errorf("ip locate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Fix{}, fmt.Errorf("ip locate: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Fix{}, fmt.Errorf("read ip locate body: %w", err)
	}
	var payload ipLocateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Fix{}, fmt.Errorf("parse ip locate body: %w", err)
	}

	fix := models.Fix{Backend: BackendNetwork, At: time.Now()}
	if payload.Status != "success" || payload.Lat == nil || payload.Lon == nil {
		return fix, nil
	}
	fix.Location = &models.Coordinate{Latitude: *payload.Lat, Longitude: *payload.Lon}
	return fix, nil
}
