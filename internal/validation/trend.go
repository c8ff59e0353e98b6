package validation

import (
	"fermentation-platform/internal/models"
)

// ValidateSugarTrend checks that a sugar (or density) reading does not rise
// between consecutive samples beyond the given tolerance. Tolerance is an
// absolute allowance in the metric's own unit, chosen by the caller to absorb
// instrument noise.
//
// Both values are required. The first sample of a fermentation has no
// previous reading; the caller must skip trend validation in that case.
func ValidateSugarTrend(previous, current, tolerance float64) ValidationResult {
	if current > previous+tolerance {
		return Failure(ValidationError{
			Field:   "value",
			Message: "Increasing trend is not allowed",
			Value:   current,
		})
	}
	return Success()
}

// ValidateTrend checks the biologically expected direction for any supported
// metric: sugar and density must not increase, ethanol must not decrease,
// temperature carries no directional expectation.
func ValidateTrend(sampleType models.SampleType, previous, current, tolerance float64) ValidationResult {
	switch sampleType.Trend() {
	case models.TrendDecreasing:
		return ValidateSugarTrend(previous, current, tolerance)
	case models.TrendIncreasing:
		if current < previous-tolerance {
			return Failure(ValidationError{
				Field:   "value",
				Message: "Decreasing trend is not allowed",
				Value:   current,
			})
		}
		return Success()
	default:
		return Success()
	}
}

// ValidateTemperatureRange checks a temperature reading against the cellar's
// configured plausibility window. Numerically this is the generic range check;
// it lives here because the bounds are a business rule, not a type rule.
func ValidateTemperatureRange(value any, minValue, maxValue float64) ValidationResult {
	return ValidateNumericValue(value, minValue, maxValue)
}
