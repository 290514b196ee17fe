// Package location resolves exactly one coordinate per request from the enabled backends.
package location

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/validation"
)

// Backend names used for ordering and metrics.
const (
	BackendGPS     = "gps"
	BackendNetwork = "network"
)

// Accuracy selects which backend is asked first.
type Accuracy int

const (
	AccuracyHigh Accuracy = iota
	AccuracyBalanced
)

func (a Accuracy) String() string {
	if a == AccuracyBalanced {
		return "balanced"
	}
	return "high"
}

var (
	ErrNoFix            = errors.New("no location fix")
	ErrLocationDisabled = errors.New("location services disabled")
	ErrTimeout          = fmt.Errorf("%w: timed out waiting for fix", ErrNoFix)
	ErrCancelled        = errors.New("location subscription cancelled")
)

// Backend is one source of position fixes. Locate blocks until the backend answers
// once or ctx is done. A Fix with a nil Location means the backend answered without a position.
type Backend interface {
	Name() string
	Enabled() bool
	Locate(ctx context.Context) (models.Fix, error)
}

// Provider hands out one-shot subscriptions over its backends.
type Provider struct {
	backends []Backend
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProvider returns a Provider. timeout bounds RequestOneLocation; zero means 10s.
func NewProvider(timeout time.Duration, logger *zap.Logger, backends ...Backend) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		backends: backends,
		timeout:  timeout,
		logger:   observability.LoggerOrNop(logger),
	}
}

// IsLocationEnabled reports whether at least one backend (gps or network) is available.
func (p *Provider) IsLocationEnabled() bool {
	for _, b := range p.backends {
		if b.Enabled() {
			return true
		}
	}
	return false
}

// RequestOneLocation subscribes, waits for the single delivery or the provider timeout,
// and always cancels the subscription before returning.
func (p *Provider) RequestOneLocation(ctx context.Context, accuracy Accuracy) (models.Coordinate, error) {
	if !p.IsLocationEnabled() {
		return models.Coordinate{}, ErrLocationDisabled
	}
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sub := p.Subscribe(waitCtx, accuracy)
	defer sub.Cancel()

	coord, err := sub.Wait(waitCtx)
	if err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return models.Coordinate{}, ErrTimeout
		}
		return models.Coordinate{}, err
	}
	return coord, nil
}

// Subscribe starts a one-shot subscription. Enabled backends are asked in accuracy order;
// the first position is delivered and the subscription closes itself. Backend errors and
// fixes without a usable position fall through to the next backend; NoFix is delivered only
// when no backend produced a position.
func (p *Provider) Subscribe(ctx context.Context, accuracy Accuracy) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(subCtx, s, p.ordered(accuracy))
	return s
}

func (p *Provider) ordered(accuracy Accuracy) []Backend {
	first := BackendGPS
	if accuracy == AccuracyBalanced {
		first = BackendNetwork
	}
	out := make([]Backend, 0, len(p.backends))
	for _, b := range p.backends {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name() == first && out[j].Name() != first
	})
	return out
}

func (p *Provider) run(ctx context.Context, s *Subscription, backends []Backend) {
	if len(backends) == 0 {
		s.deliver("", models.Coordinate{}, ErrLocationDisabled)
		return
	}
	start := time.Now()
	var lastErr error
	for _, b := range backends {
		fix, err := b.Locate(ctx)
		if ctx.Err() != nil {
			s.deliver(b.Name(), models.Coordinate{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()))
			return
		}
		if err != nil {
			p.logger.Debug("location backend failed", zap.String("backend", b.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		if fix.Location == nil {
			p.logger.Warn("location backend delivered no position", zap.String("backend", b.Name()))
			lastErr = fmt.Errorf("%s: no position", b.Name())
			continue
		}
		coord := *fix.Location
		if err := validation.ValidateCoordinate(coord); err != nil {
			p.logger.Warn("location backend delivered invalid position", zap.String("backend", b.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		observability.LocationFixDuration.WithLabelValues(b.Name()).Observe(time.Since(start).Seconds())
		s.deliver(b.Name(), coord, nil)
		return
	}
	s.deliver("", models.Coordinate{}, fmt.Errorf("%w: %v", ErrNoFix, lastErr))
}

// Subscription is a single-delivery future for one coordinate.
type Subscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}

	source string
	coord  models.Coordinate
	err    error
}

// deliver publishes the result once; later calls are ignored.
func (s *Subscription) deliver(source string, coord models.Coordinate, err error) {
	s.once.Do(func() {
		s.source = source
		s.coord = coord
		s.err = err
		close(s.done)
		s.cancel()
	})
}

// Wait blocks until the delivery or until ctx is done.
func (s *Subscription) Wait(ctx context.Context) (models.Coordinate, error) {
	select {
	case <-s.done:
		return s.coord, s.err
	case <-ctx.Done():
		return models.Coordinate{}, ctx.Err()
	}
}

// Done is closed once the subscription has delivered or been cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Source names the backend that produced the delivery. Valid after Done.
func (s *Subscription) Source() string {
	<-s.done
	return s.source
}

// Cancel stops the subscription. Idempotent; a no-op after delivery.
func (s *Subscription) Cancel() {
	s.deliver("", models.Coordinate{}, ErrCancelled)
}
