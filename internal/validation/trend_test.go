package validation

import (
	"strings"
	"testing"

	"fermentation-platform/internal/models"
)

func TestValidateSugarTrend(t *testing.T) {
	tests := []struct {
		name      string
		previous  float64
		current   float64
		tolerance float64
		wantValid bool
	}{
		{
			name:      "decrease within tolerance",
			previous:  10.0,
			current:   9.5,
			tolerance: 0.2,
			wantValid: true,
		},
		{
			name:      "increase beyond tolerance",
			previous:  9.0,
			current:   9.5,
			tolerance: 0.2,
			wantValid: false,
		},
		{
			name:      "increase inside tolerance band",
			previous:  9.0,
			current:   9.15,
			tolerance: 0.2,
			wantValid: true,
		},
		{
			name:      "flat reading",
			previous:  9.0,
			current:   9.0,
			tolerance: 0.0,
			wantValid: true,
		},
		{
			name:      "exactly at tolerance boundary",
			previous:  9.0,
			current:   9.2,
			tolerance: 0.2,
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSugarTrend(tt.previous, tt.current, tt.tolerance)

			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}

			if !tt.wantValid {
				if len(result.Errors) != 1 {
					t.Fatalf("errors = %d, want 1", len(result.Errors))
				}
				if result.Errors[0].Message != "Increasing trend is not allowed" {
					t.Errorf("error message = %q", result.Errors[0].Message)
				}
			}
		})
	}
}

func TestValidateTrendByType(t *testing.T) {
	tests := []struct {
		name        string
		sampleType  models.SampleType
		previous    float64
		current     float64
		tolerance   float64
		wantValid   bool
		wantMessage string
	}{
		{
			name:       "density decreasing is valid",
			sampleType: models.SampleTypeDensity,
			previous:   1.090,
			current:    1.050,
			tolerance:  0.002,
			wantValid:  true,
		},
		{
			name:        "density increasing is invalid",
			sampleType:  models.SampleTypeDensity,
			previous:    1.050,
			current:     1.090,
			tolerance:   0.002,
			wantValid:   false,
			wantMessage: "Increasing trend is not allowed",
		},
		{
			name:       "ethanol increasing is valid",
			sampleType: models.SampleTypeEthanol,
			previous:   4.0,
			current:    6.5,
			tolerance:  0.1,
			wantValid:  true,
		},
		{
			name:        "ethanol decreasing is invalid",
			sampleType:  models.SampleTypeEthanol,
			previous:    6.5,
			current:     4.0,
			tolerance:   0.1,
			wantValid:   false,
			wantMessage: "Decreasing trend is not allowed",
		},
		{
			name:       "ethanol dip within tolerance is valid",
			sampleType: models.SampleTypeEthanol,
			previous:   6.5,
			current:    6.45,
			tolerance:  0.1,
			wantValid:  true,
		},
		{
			name:       "temperature has no trend expectation",
			sampleType: models.SampleTypeTemperature,
			previous:   25.0,
			current:    18.0,
			tolerance:  0.0,
			wantValid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTrend(tt.sampleType, tt.previous, tt.current, tt.tolerance)

			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}

			if !tt.wantValid && !strings.Contains(result.Errors[0].Message, tt.wantMessage) {
				t.Errorf("error message = %q, want it to contain %q", result.Errors[0].Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateTemperatureRange(t *testing.T) {
	if result := ValidateTemperatureRange(22.0, 4.0, 35.0); !result.Valid {
		t.Errorf("in-range temperature rejected: %v", result.Errors)
	}

	result := ValidateTemperatureRange(40.0, 4.0, 35.0)
	if result.Valid {
		t.Fatal("out-of-range temperature accepted")
	}
	if !strings.Contains(result.Errors[0].Message, "at most 35.0") {
		t.Errorf("error message = %q", result.Errors[0].Message)
	}
}
