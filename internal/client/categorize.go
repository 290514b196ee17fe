package client

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kjstillabower/weather-display-service/internal/validation"
)

// ErrorCategory is a stable label for error classification in logs and metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryTransport        ErrorCategory = "transport"
	ErrorCategoryBadRequest       ErrorCategory = "bad_request"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryNotFound         ErrorCategory = "not_found"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx      ErrorCategory = "upstream_5xx"
	ErrorCategoryUnexpectedStatus ErrorCategory = "unexpected_status"
	ErrorCategoryDecode           ErrorCategory = "decode"
	ErrorCategoryValidation       ErrorCategory = "validation"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

// CategorizeError maps a FetchWeather error to a stable ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case errors.Is(err, ErrBadRequest):
			return ErrorCategoryBadRequest
		case errors.Is(err, ErrInvalidAPIKey):
			return ErrorCategoryInvalidAPIKey
		case errors.Is(err, ErrNotFound):
			return ErrorCategoryNotFound
		case errors.Is(err, ErrRateLimited):
			return ErrorCategoryRateLimited
		case errors.Is(err, ErrUpstreamFailure):
			return ErrorCategoryUpstream5xx
		default:
			return ErrorCategoryUnexpectedStatus
		}
	}

	if errors.Is(err, ErrTransportFailure) {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
			(errors.As(err, &netErr) && netErr.Timeout()) {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryTransport
	}

	if errors.Is(err, ErrDecodeFailure) {
		return ErrorCategoryDecode
	}

	if errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, validation.ErrCoordinateOutOfRange) ||
		errors.Is(err, validation.ErrAPIKeyMissing) {
		return ErrorCategoryValidation
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	return ErrorCategoryUnknown
}

// DescribeStatus is the diagnostic text logged for an unsuccessful status.
// It has no effect on behaviour.
func DescribeStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad connection"
	case http.StatusNotFound:
		return "not found"
	default:
		return "generic error"
	}
}
