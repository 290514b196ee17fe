package pipeline

import (
	"context"
	"errors"

	"github.com/kjstillabower/weather-display-service/internal/client"
	"github.com/kjstillabower/weather-display-service/internal/location"
	"github.com/kjstillabower/weather-display-service/internal/permissions"
)

// Every failed cycle returns an error matching exactly one of these with errors.Is.
var (
	ErrPermissionDenied         = permissions.ErrPermissionDenied
	ErrLocationServicesDisabled = permissions.ErrLocationServicesDisabled
	ErrNoFix                    = location.ErrNoFix
	ErrOffline                  = errors.New("no usable network connection")
	ErrTransportFailure         = client.ErrTransportFailure
	ErrHTTPStatus               = client.ErrHTTPStatus
	ErrDecodeFailure            = client.ErrDecodeFailure
)

// Outcome is the stable label of a finished cycle, used in logs, metrics and HTTP error codes.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomePermissionDenied Outcome = "permission_denied"
	OutcomeLocationDisabled Outcome = "location_disabled"
	OutcomeNoFix            Outcome = "no_fix"
	OutcomeOffline          Outcome = "offline"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeHTTPError        Outcome = "http_error"
	OutcomeDecodeFailure    Outcome = "decode_failure"
	OutcomeInvalidQuery     Outcome = "invalid_query"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeUnknown          Outcome = "unknown"
)

// Classify maps a cycle error to its outcome. Order matters: a location-disabled error
// from the provider is reported like the gate's, and cancellation is checked last so
// a transport failure caused by a deadline still reads as a transport failure.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, ErrLocationServicesDisabled), errors.Is(err, location.ErrLocationDisabled):
		return OutcomeLocationDisabled
	case errors.Is(err, ErrNoFix):
		return OutcomeNoFix
	case errors.Is(err, ErrOffline):
		return OutcomeOffline
	case errors.Is(err, ErrTransportFailure):
		return OutcomeTransportFailure
	case errors.Is(err, ErrHTTPStatus):
		return OutcomeHTTPError
	case errors.Is(err, ErrDecodeFailure):
		return OutcomeDecodeFailure
	case errors.Is(err, client.ErrInvalidQuery):
		return OutcomeInvalidQuery
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, location.ErrCancelled):
		return OutcomeCancelled
	default:
		return OutcomeUnknown
	}
}
