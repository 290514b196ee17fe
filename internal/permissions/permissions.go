// Package permissions checks location permission state and routes the user to the
// relevant settings screen when the pipeline cannot start.
package permissions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/observability"
)

// Permission is one runtime permission the pipeline needs.
type Permission string

const (
	FineLocation   Permission = "fine_location"
	CoarseLocation Permission = "coarse_location"
)

// Required lists the permissions checked before every cycle.
var Required = []Permission{FineLocation, CoarseLocation}

// State is the outcome of checking a single permission.
type State string

const (
	StateGranted           State = "granted"
	StateDenied            State = "denied"
	StatePermanentlyDenied State = "permanently_denied"
)

var (
	ErrPermissionDenied         = errors.New("location permission denied")
	ErrLocationServicesDisabled = errors.New("location services disabled")
)

// Report groups a permission check by outcome.
type Report struct {
	Granted           []Permission
	Denied            []Permission
	PermanentlyDenied []Permission
}

// AllGranted reports whether nothing was denied.
func (r Report) AllGranted() bool {
	return len(r.Denied) == 0 && len(r.PermanentlyDenied) == 0
}

// AnyPermanentlyDenied reports whether at least one permission can only be restored from settings.
func (r Report) AnyPermanentlyDenied() bool {
	return len(r.PermanentlyDenied) > 0
}

// Checker performs one grouped permission check.
type Checker interface {
	Check(ctx context.Context, perms ...Permission) (Report, error)
}

// Settings opens the system screens the user needs to fix a blocked cycle.
type Settings interface {
	OpenLocationSourceSettings(ctx context.Context)
	OpenAppDetailsSettings(ctx context.Context)
}

// Gate decides whether a cycle may proceed. Location services are checked first; when
// they are off the location settings screen is opened and the cycle stops. Otherwise a
// denied permission stops the cycle, and a permanent denial also offers app settings.
func Gate(ctx context.Context, checker Checker, settings Settings, locationEnabled bool) error {
	if !locationEnabled {
		settings.OpenLocationSourceSettings(ctx)
		return ErrLocationServicesDisabled
	}
	report, err := checker.Check(ctx, Required...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("check permissions: %w", err)
		}
		return fmt.Errorf("%w: check failed: %w", ErrPermissionDenied, err)
	}
	if report.AllGranted() {
		return nil
	}
	if report.AnyPermanentlyDenied() {
		settings.OpenAppDetailsSettings(ctx)
		return fmt.Errorf("%w: permanently denied %v", ErrPermissionDenied, report.PermanentlyDenied)
	}
	return fmt.Errorf("%w: denied %v", ErrPermissionDenied, report.Denied)
}

// ConfigChecker answers from fixed per-permission states, as configured.
type ConfigChecker struct {
	states map[Permission]State
}

// NewConfigChecker returns a checker with the given states. Unlisted permissions are granted.
func NewConfigChecker(states map[Permission]State) *ConfigChecker {
	m := make(map[Permission]State, len(states))
	for p, s := range states {
		m[p] = s
	}
	return &ConfigChecker{states: m}
}

func (c *ConfigChecker) Check(ctx context.Context, perms ...Permission) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	var r Report
	for _, p := range perms {
		switch c.state(p) {
		case StateDenied:
			r.Denied = append(r.Denied, p)
		case StatePermanentlyDenied:
			r.PermanentlyDenied = append(r.PermanentlyDenied, p)
		default:
			r.Granted = append(r.Granted, p)
		}
	}
	return r, nil
}

func (c *ConfigChecker) state(p Permission) State {
	if s, ok := c.states[p]; ok {
		return s
	}
	return StateGranted
}

// Settings deep links, as a device build would launch them.
const (
	LocationSourceSettingsAction = "android.settings.LOCATION_SOURCE_SETTINGS"
	AppDetailsSettingsAction     = "android.settings.APPLICATION_DETAILS_SETTINGS"
)

// LogSettings records settings navigation instead of launching it.
type LogSettings struct {
	pkg    string
	logger *zap.Logger
}

// NewLogSettings returns a Settings that logs each deep link. pkg names the app for the details screen.
func NewLogSettings(pkg string, logger *zap.Logger) *LogSettings {
	return &LogSettings{pkg: pkg, logger: observability.LoggerOrNop(logger)}
}

func (s *LogSettings) OpenLocationSourceSettings(ctx context.Context) {
	observability.LoggerFromContext(ctx, s.logger).Info("opening settings",
		zap.String("action", LocationSourceSettingsAction),
	)
}

func (s *LogSettings) OpenAppDetailsSettings(ctx context.Context) {
	observability.LoggerFromContext(ctx, s.logger).Info("opening settings",
		zap.String("action", AppDetailsSettingsAction),
		zap.String("uri", "package:"+s.pkg),
	)
}
