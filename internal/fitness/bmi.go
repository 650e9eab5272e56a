package fitness

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositiveHeight is returned when height is zero or negative.
	ErrNonPositiveHeight = errors.New("height must be greater than zero")
	// ErrUndefinedBMI is returned when the index cannot be derived from the inputs.
	ErrUndefinedBMI = errors.New("unable to calculate BMI from the provided values")
	// ErrTooManyDigits is returned when a value does not fit decimal(5,2).
	ErrTooManyDigits = errors.New("ensure that there are no more than 5 digits in total")
	// ErrTooManyDecimalPlaces is returned when a value carries more than two decimal places.
	ErrTooManyDecimalPlaces = errors.New("ensure that there are no more than 2 decimal places")
)

const (
	metricDecimalPlaces = 2
	metricMaxDigits     = 5
)

var (
	centimetresPerMetre = decimal.NewFromInt(100)
	metricUpperBound    = decimal.New(1, metricMaxDigits-metricDecimalPlaces)
)

// ComputeBMI derives body-mass-index as weight / (height/100)^2 rounded
// half-up to two decimal places.
func ComputeBMI(heightCM, weightKG decimal.Decimal) (decimal.Decimal, error) {
	if !heightCM.IsPositive() {
		return decimal.Zero, ErrNonPositiveHeight
	}

	heightM := heightCM.Div(centimetresPerMetre)
	squared := heightM.Mul(heightM)
	if squared.IsZero() {
		return decimal.Zero, ErrUndefinedBMI
	}

	// Round is half away from zero, which equals half-up for positive values.
	bmi := weightKG.Div(squared).Round(metricDecimalPlaces)
	if bmi.IsNegative() || CheckPrecision(bmi) != nil {
		return decimal.Zero, ErrUndefinedBMI
	}

	return bmi, nil
}

// CheckPrecision verifies a value fits the decimal(5,2) storage column.
func CheckPrecision(value decimal.Decimal) error {
	if !value.Equal(value.Round(metricDecimalPlaces)) {
		return ErrTooManyDecimalPlaces
	}
	if value.Abs().GreaterThanOrEqual(metricUpperBound) {
		return ErrTooManyDigits
	}
	return nil
}
