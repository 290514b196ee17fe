// Package pipeline runs one display cycle: permission gate, a single location fix,
// connectivity check, weather fetch and render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/weather-display-service/internal/client"
	"github.com/kjstillabower/weather-display-service/internal/connectivity"
	"github.com/kjstillabower/weather-display-service/internal/location"
	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/permissions"
	"github.com/kjstillabower/weather-display-service/internal/presentation"
)

const cycleKey = "cycle"

// Locator is the part of location.Provider the pipeline needs.
type Locator interface {
	IsLocationEnabled() bool
	RequestOneLocation(ctx context.Context, accuracy location.Accuracy) (models.Coordinate, error)
}

// Sink receives the outcome of every cycle.
type Sink interface {
	Publish(Result)
	Fail(Failure)
}

// Result is one successfully rendered cycle.
type Result struct {
	CycleID    string
	Generation uint64
	Coordinate models.Coordinate
	Record     models.WeatherRecord
	Details    presentation.Details
	FetchedAt  time.Time
}

// Failure is one cycle that ended early.
type Failure struct {
	CycleID    string
	Generation uint64
	Outcome    Outcome
	Err        error
	At         time.Time
}

// Deps are the collaborators of a Runner. All but Sink and Logger are required.
type Deps struct {
	Checker   permissions.Checker
	Settings  permissions.Settings
	Locator   Locator
	Network   connectivity.Inspector
	Weather   client.WeatherClient
	Presenter *presentation.Presenter
	Sink      Sink
	Logger    *zap.Logger
}

// Options tune a Runner.
type Options struct {
	APIKey   string
	Accuracy location.Accuracy
	UnitHint models.UnitSystem
	// CycleTimeout bounds one cycle independently of the caller; zero means 30s.
	CycleTimeout time.Duration
}

// Runner executes cycles. At most one cycle is in flight; concurrent Run calls join it.
type Runner struct {
	deps       Deps
	opts       Options
	logger     *zap.Logger
	group      singleflight.Group
	generation atomic.Uint64
}

func NewRunner(deps Deps, opts Options) (*Runner, error) {
	switch {
	case deps.Checker == nil, deps.Settings == nil:
		return nil, errors.New("pipeline: permission checker and settings required")
	case deps.Locator == nil:
		return nil, errors.New("pipeline: locator required")
	case deps.Network == nil:
		return nil, errors.New("pipeline: network inspector required")
	case deps.Weather == nil:
		return nil, errors.New("pipeline: weather client required")
	case deps.Presenter == nil:
		return nil, errors.New("pipeline: presenter required")
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 30 * time.Second
	}
	return &Runner{
		deps:   deps,
		opts:   opts,
		logger: observability.LoggerOrNop(deps.Logger),
	}, nil
}

// Generation returns the number of cycles started so far.
func (r *Runner) Generation() uint64 {
	return r.generation.Load()
}

// Run starts a cycle, or joins the one in flight. The cycle itself is detached from
// ctx so a caller that gives up does not abort it for the others; ctx only bounds the wait.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	started := false
	ch := r.group.DoChan(cycleKey, func() (interface{}, error) {
		started = true
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.CycleTimeout)
		defer cancel()
		return r.cycle(cycleCtx)
	})
	select {
	case res := <-ch:
		if !started {
			observability.PipelineCoalescedTotal.Inc()
			observability.LoggerFromContext(ctx, r.logger).Debug("refresh joined in-flight cycle")
		}
		out, _ := res.Val.(Result)
		return out, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Runner) cycle(ctx context.Context) (Result, error) {
	gen := r.generation.Add(1)
	cycleID := uuid.NewString()
	if observability.CorrelationID(ctx) == "" {
		ctx = observability.WithCorrelationID(ctx, cycleID)
	}
	logger := observability.LoggerFromContext(ctx, r.logger).With(
		zap.String("cycle_id", cycleID),
		zap.Uint64("generation", gen),
	)
	ctx = observability.WithLogger(ctx, logger)

	start := time.Now()
	res, err := r.steps(ctx, logger)
	outcome := Classify(err)
	observability.RecordCycle(string(outcome), time.Since(start).Seconds())

	if err != nil {
		logger.Warn("cycle failed",
			zap.String("outcome", string(outcome)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		if r.deps.Sink != nil {
			r.deps.Sink.Fail(Failure{CycleID: cycleID, Generation: gen, Outcome: outcome, Err: err, At: time.Now()})
		}
		return Result{CycleID: cycleID, Generation: gen}, err
	}

	res.CycleID = cycleID
	res.Generation = gen
	logger.Info("cycle rendered",
		zap.String("place", res.Record.Location.Name),
		zap.Duration("duration", time.Since(start)),
	)
	if r.deps.Sink != nil {
		r.deps.Sink.Publish(res)
	}
	return res, nil
}

func (r *Runner) steps(ctx context.Context, logger *zap.Logger) (Result, error) {
	if err := permissions.Gate(ctx, r.deps.Checker, r.deps.Settings, r.deps.Locator.IsLocationEnabled()); err != nil {
		return Result{}, err
	}

	coord, err := r.deps.Locator.RequestOneLocation(ctx, r.opts.Accuracy)
	if err != nil {
		return Result{}, fmt.Errorf("locate: %w", err)
	}
	logger.Debug("location fix", zap.Float64("lat", coord.Latitude), zap.Float64("lon", coord.Longitude))

	if !connectivity.IsNetworkAvailable(r.deps.Network) {
		return Result{}, ErrOffline
	}

	record, err := r.deps.Weather.FetchWeather(ctx, models.WeatherQuery{
		Coordinate: coord,
		Units:      models.UnitMetric,
		APIKey:     r.opts.APIKey,
	})
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			logger.Warn("weather request rejected",
				zap.Int("status", statusErr.Code),
				zap.String("reason", client.DescribeStatus(statusErr.Code)),
				zap.Bool("retryable", statusErr.Retryable()),
			)
		}
		return Result{}, fmt.Errorf("fetch weather: %w", err)
	}

	return Result{
		Coordinate: coord,
		Record:     record,
		Details:    r.deps.Presenter.Render(record, r.opts.UnitHint),
		FetchedAt:  time.Now(),
	}, nil
}
