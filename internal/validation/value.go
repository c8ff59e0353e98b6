package validation

import (
	"encoding/json"
	"strconv"
	"strings"

	"fermentation-platform/internal/models"
)

// ValidateSampleValue checks a single raw measurement value against the
// type-specific domain constraints. The raw value arrives as decoded JSON
// (nil, float64, string or json.Number); at most one error is reported.
func ValidateSampleValue(sampleType models.SampleType, value any) ValidationResult {
	if !sampleType.Valid() {
		return Failure(ValidationError{
			Field:   "sample_type",
			Message: "Unsupported sample type",
			Value:   string(sampleType),
		})
	}

	numeric, verr := parseNumeric(value)
	if verr != nil {
		return Failure(*verr)
	}

	// Zero is a legitimate reading for a dry fermentation, so the boundary
	// is >= 0 even though the message names the positive direction.
	if sampleType.NonNegative() && numeric < 0 {
		return Failure(ValidationError{
			Field:   "value",
			Message: "Value must be greater than 0",
			Value:   numeric,
		})
	}

	return Success()
}

// ValidateNumericValue checks a raw value against an inclusive [min, max]
// range, independent of sample type. Exactly one error is reported per call.
func ValidateNumericValue(value any, minValue, maxValue float64) ValidationResult {
	numeric, verr := parseNumeric(value)
	if verr != nil {
		return Failure(*verr)
	}

	if numeric < minValue {
		return Failure(ValidationError{
			Field:   "value",
			Message: "Value must be at least " + formatBound(minValue),
			Value:   numeric,
		})
	}

	if numeric > maxValue {
		return Failure(ValidationError{
			Field:   "value",
			Message: "Value must be at most " + formatBound(maxValue),
			Value:   numeric,
		})
	}

	return Success()
}

// Numeric returns the float64 form of a decoded JSON value when it is usable
// as a number. Callers that already ran ValidateSampleValue use this to pick
// up the parsed value without re-stating the coercion rules.
func Numeric(value any) (float64, bool) {
	f, verr := parseNumeric(value)
	if verr != nil {
		return 0, false
	}
	return f, true
}

// parseNumeric coerces a decoded JSON value to float64. Returns a single
// ValidationError describing why the value is unusable.
func parseNumeric(value any) (float64, *ValidationError) {
	switch v := value.(type) {
	case nil:
		return 0, &ValidationError{
			Field:   "value",
			Message: "Value cannot be None",
			Value:   nil,
		}
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, &ValidationError{
				Field:   "value",
				Message: "Value must be a valid number",
				Value:   v.String(),
			}
		}
		return f, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, &ValidationError{
				Field:   "value",
				Message: "Value cannot be an empty string",
				Value:   v,
			}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, &ValidationError{
				Field:   "value",
				Message: "Value must be a valid number",
				Value:   v,
			}
		}
		return f, nil
	default:
		return 0, &ValidationError{
			Field:   "value",
			Message: "Value must be a valid number",
			Value:   value,
		}
	}
}

// formatBound renders a range bound with at least one decimal place so
// messages read as measurements ("20.0", not "20").
func formatBound(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
