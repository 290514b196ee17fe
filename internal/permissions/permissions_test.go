package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSettings struct {
	locationSource int
	appDetails     int
}

func (r *recordingSettings) OpenLocationSourceSettings(context.Context) { r.locationSource++ }
func (r *recordingSettings) OpenAppDetailsSettings(context.Context)     { r.appDetails++ }

type failingChecker struct{ err error }

func (f failingChecker) Check(context.Context, ...Permission) (Report, error) {
	return Report{}, f.err
}

func TestGate(t *testing.T) {
	tests := []struct {
		name            string
		states          map[Permission]State
		locationEnabled bool
		wantErr         error
		wantSource      int
		wantDetails     int
	}{
		{"all granted", nil, true, nil, 0, 0},
		{"location disabled", nil, false, ErrLocationServicesDisabled, 1, 0},
		{"disabled wins over denied", map[Permission]State{FineLocation: StateDenied}, false, ErrLocationServicesDisabled, 1, 0},
		{"fine denied", map[Permission]State{FineLocation: StateDenied}, true, ErrPermissionDenied, 0, 0},
		{"coarse permanently denied", map[Permission]State{CoarseLocation: StatePermanentlyDenied}, true, ErrPermissionDenied, 0, 1},
		{"mixed denial offers settings", map[Permission]State{FineLocation: StateDenied, CoarseLocation: StatePermanentlyDenied}, true, ErrPermissionDenied, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &recordingSettings{}
			err := Gate(context.Background(), NewConfigChecker(tt.states), settings, tt.locationEnabled)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantSource, settings.locationSource, "location source settings opened")
			assert.Equal(t, tt.wantDetails, settings.appDetails, "app details settings opened")
		})
	}
}

func TestGate_CheckerErrorIsDenial(t *testing.T) {
	boom := errors.New("binder died")
	err := Gate(context.Background(), failingChecker{err: boom}, &recordingSettings{}, true)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, err, boom)
}

func TestGate_CancelledCheckIsNotDenial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Gate(ctx, NewConfigChecker(nil), &recordingSettings{}, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPermissionDenied)

	err = Gate(context.Background(), failingChecker{err: context.DeadlineExceeded}, &recordingSettings{}, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

func TestConfigChecker_Check(t *testing.T) {
	c := NewConfigChecker(map[Permission]State{
		FineLocation:   StateDenied,
		CoarseLocation: StatePermanentlyDenied,
	})
	report, err := c.Check(context.Background(), Required...)
	require.NoError(t, err)
	assert.Empty(t, report.Granted)
	assert.Equal(t, []Permission{FineLocation}, report.Denied)
	assert.Equal(t, []Permission{CoarseLocation}, report.PermanentlyDenied)
	assert.False(t, report.AllGranted())
	assert.True(t, report.AnyPermanentlyDenied())
}

func TestConfigChecker_UnlistedIsGranted(t *testing.T) {
	report, err := NewConfigChecker(nil).Check(context.Background(), Required...)
	require.NoError(t, err)
	assert.Equal(t, Required, report.Granted)
	assert.True(t, report.AllGranted())
}

func TestConfigChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewConfigChecker(nil).Check(ctx, FineLocation)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogSettings(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSettings("com.example.weather", zap.New(core))

	s.OpenLocationSourceSettings(context.Background())
	s.OpenAppDetailsSettings(context.Background())

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, LocationSourceSettingsAction, entries[0].ContextMap()["action"])
	assert.Equal(t, AppDetailsSettingsAction, entries[1].ContextMap()["action"])
	assert.Equal(t, "package:com.example.weather", entries[1].ContextMap()["uri"])
}
