package validation

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/weather-display-service/internal/models"
)

// ErrCoordinateOutOfRange is returned when latitude or longitude is outside the valid range or not a number.
var ErrCoordinateOutOfRange = errors.New("coordinate out of range")

// ErrAPIKeyMissing is returned when the query carries no usable API key.
var ErrAPIKeyMissing = errors.New("API key missing or too short")

// ErrUnsupportedUnits is returned when a query asks for anything but metric units.
var ErrUnsupportedUnits = errors.New("unsupported unit system")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateCoordinate rejects NaN, infinities and out-of-range values.
func ValidateCoordinate(c models.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: not a number", ErrCoordinateOutOfRange)
	}
	if err := instance().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrCoordinateOutOfRange, fieldErrors(err))
	}
	return nil
}

// ValidateQuery checks everything that determines the outbound request.
func ValidateQuery(q models.WeatherQuery) error {
	if err := ValidateCoordinate(q.Coordinate); err != nil {
		return err
	}
	if q.Units != models.UnitMetric {
		return fmt.Errorf("%w: %s", ErrUnsupportedUnits, q.Units)
	}
	if err := instance().Var(q.APIKey, "required,min=10"); err != nil {
		return ErrAPIKeyMissing
	}
	return nil
}

// Struct validates any tagged struct (config, request bodies) with the shared validator.
func Struct(v interface{}) error {
	if err := instance().Struct(v); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// fieldErrors flattens validator output into a single readable error.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return errors.New(msg)
}
