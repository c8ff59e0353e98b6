package validation

import (
	"strings"
	"testing"

	"fermentation-platform/internal/models"
)

func TestValidateSampleValue(t *testing.T) {
	tests := []struct {
		name        string
		sampleType  models.SampleType
		value       any
		wantValid   bool
		wantMessage string
	}{
		{
			name:       "valid sugar reading",
			sampleType: models.SampleTypeSugar,
			value:      24.5,
			wantValid:  true,
		},
		{
			name:       "zero is valid for sugar",
			sampleType: models.SampleTypeSugar,
			value:      0.0,
			wantValid:  true,
		},
		{
			name:        "negative sugar rejected",
			sampleType:  models.SampleTypeSugar,
			value:       -1.5,
			wantValid:   false,
			wantMessage: "greater than 0",
		},
		{
			name:        "negative ethanol rejected",
			sampleType:  models.SampleTypeEthanol,
			value:       -0.1,
			wantValid:   false,
			wantMessage: "greater than 0",
		},
		{
			name:       "negative temperature allowed",
			sampleType: models.SampleTypeTemperature,
			value:      -2.0,
			wantValid:  true,
		},
		{
			name:        "nil value",
			sampleType:  models.SampleTypeSugar,
			value:       nil,
			wantValid:   false,
			wantMessage: "cannot be None",
		},
		{
			name:        "empty string value",
			sampleType:  models.SampleTypeSugar,
			value:       "",
			wantValid:   false,
			wantMessage: "cannot be an empty string",
		},
		{
			name:        "non-numeric string value",
			sampleType:  models.SampleTypeSugar,
			value:       "abc",
			wantValid:   false,
			wantMessage: "valid number",
		},
		{
			name:       "numeric string accepted",
			sampleType: models.SampleTypeDensity,
			value:      "1.090",
			wantValid:  true,
		},
		{
			name:        "unsupported sample type",
			sampleType:  models.SampleType("ph"),
			value:       3.4,
			wantValid:   false,
			wantMessage: "Unsupported sample type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSampleValue(tt.sampleType, tt.value)

			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}

			if tt.wantValid {
				if len(result.Errors) != 0 {
					t.Errorf("valid result carries %d errors", len(result.Errors))
				}
				return
			}

			if len(result.Errors) != 1 {
				t.Fatalf("errors = %d, want exactly 1", len(result.Errors))
			}
			if !strings.Contains(result.Errors[0].Message, tt.wantMessage) {
				t.Errorf("error message = %q, want it to contain %q", result.Errors[0].Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateSampleValueAllTypesAcceptNonNegative(t *testing.T) {
	values := []float64{0, 0.5, 1.0, 21.3, 100}

	for _, sampleType := range models.SupportedSampleTypes() {
		for _, v := range values {
			result := ValidateSampleValue(sampleType, v)
			if !result.Valid {
				t.Errorf("ValidateSampleValue(%s, %v) invalid: %v", sampleType, v, result.Errors)
			}
		}
	}
}

func TestValidateNumericValue(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		min         float64
		max         float64
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "in range",
			value:     25.0,
			min:       20.0,
			max:       30.0,
			wantValid: true,
		},
		{
			name:      "at lower bound",
			value:     20.0,
			min:       20.0,
			max:       30.0,
			wantValid: true,
		},
		{
			name:      "at upper bound",
			value:     30.0,
			min:       20.0,
			max:       30.0,
			wantValid: true,
		},
		{
			name:        "below range",
			value:       15.0,
			min:         20.0,
			max:         30.0,
			wantValid:   false,
			wantMessage: "at least 20.0",
		},
		{
			name:        "above range",
			value:       35.0,
			min:         20.0,
			max:         30.0,
			wantValid:   false,
			wantMessage: "at most 30.0",
		},
		{
			name:        "non-numeric",
			value:       "x",
			min:         20.0,
			max:         30.0,
			wantValid:   false,
			wantMessage: "valid number",
		},
		{
			name:        "fractional bound kept as-is",
			value:       0.1,
			min:         0.25,
			max:         1.0,
			wantValid:   false,
			wantMessage: "at least 0.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateNumericValue(tt.value, tt.min, tt.max)

			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}

			if !tt.wantValid {
				if len(result.Errors) != 1 {
					t.Fatalf("errors = %d, want exactly 1", len(result.Errors))
				}
				if !strings.Contains(result.Errors[0].Message, tt.wantMessage) {
					t.Errorf("error message = %q, want it to contain %q", result.Errors[0].Message, tt.wantMessage)
				}
			}
		})
	}
}

// Two identical calls must yield structurally identical results.
func TestValidateNumericValueIdempotent(t *testing.T) {
	first := ValidateNumericValue(15.0, 20.0, 30.0)
	second := ValidateNumericValue(15.0, 20.0, 30.0)

	if first.Valid != second.Valid {
		t.Error("validity differs between identical calls")
	}
	if len(first.Errors) != len(second.Errors) {
		t.Fatal("error count differs between identical calls")
	}
	for i := range first.Errors {
		if first.Errors[i] != second.Errors[i] {
			t.Errorf("errors[%d] differ: %v vs %v", i, first.Errors[i], second.Errors[i])
		}
	}
}

func TestNumeric(t *testing.T) {
	if v, ok := Numeric(3.5); !ok || v != 3.5 {
		t.Errorf("Numeric(3.5) = %v, %v", v, ok)
	}
	if v, ok := Numeric("2.25"); !ok || v != 2.25 {
		t.Errorf("Numeric(\"2.25\") = %v, %v", v, ok)
	}
	if _, ok := Numeric(nil); ok {
		t.Error("Numeric(nil) should not parse")
	}
	if _, ok := Numeric("abc"); ok {
		t.Error("Numeric(\"abc\") should not parse")
	}
}
