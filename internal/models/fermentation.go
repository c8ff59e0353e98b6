package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SampleType identifies which measurement a sample carries. The unit and
// validation rules for a sample are derived from its type, never stored
// separately.
type SampleType string

const (
	SampleTypeSugar       SampleType = "sugar"
	SampleTypeDensity     SampleType = "density"
	SampleTypeTemperature SampleType = "temperature"
	SampleTypeEthanol     SampleType = "ethanol"
)

// TrendDirection is the expected movement of a metric across consecutive
// samples of the same fermentation.
type TrendDirection int

const (
	TrendNone       TrendDirection = iota // no directional expectation
	TrendDecreasing                       // sugar, density
	TrendIncreasing                       // ethanol
)

// sampleTypeUnits maps each supported type to its fixed unit.
var sampleTypeUnits = map[SampleType]string{
	SampleTypeSugar:       "brix",
	SampleTypeDensity:     "specific_gravity",
	SampleTypeTemperature: "celsius",
	SampleTypeEthanol:     "percent_abv",
}

// SupportedSampleTypes returns the supported types in a stable order.
func SupportedSampleTypes() []SampleType {
	return []SampleType{
		SampleTypeSugar,
		SampleTypeDensity,
		SampleTypeTemperature,
		SampleTypeEthanol,
	}
}

// Valid reports whether the sample type is in the supported set.
func (t SampleType) Valid() bool {
	_, ok := sampleTypeUnits[t]
	return ok
}

// Unit returns the fixed unit for the sample type, or "" if unsupported.
func (t SampleType) Unit() string {
	return sampleTypeUnits[t]
}

// NonNegative reports whether values of this type must not be negative.
// Temperature is the only supported metric that may legitimately go below
// zero.
func (t SampleType) NonNegative() bool {
	switch t {
	case SampleTypeSugar, SampleTypeDensity, SampleTypeEthanol:
		return true
	default:
		return false
	}
}

// Trend returns the expected direction for consecutive values of this type.
func (t SampleType) Trend() TrendDirection {
	switch t {
	case SampleTypeSugar, SampleTypeDensity:
		return TrendDecreasing
	case SampleTypeEthanol:
		return TrendIncreasing
	default:
		return TrendNone
	}
}

// FermentationStatus is the derived lifecycle state of a fermentation. It is
// recomputed from sample history and never set directly by a caller.
type FermentationStatus string

const (
	StatusActive    FermentationStatus = "ACTIVE"
	StatusSlow      FermentationStatus = "SLOW"
	StatusStuck     FermentationStatus = "STUCK"
	StatusCompleted FermentationStatus = "COMPLETED"

	// StatusLag and StatusDecline are reserved variants. No classification
	// rule produces them yet; they exist so stored rows using them remain
	// representable.
	StatusLag     FermentationStatus = "LAG"
	StatusDecline FermentationStatus = "DECLINE"
)

// Valid reports whether the status is a known variant.
func (s FermentationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSlow, StatusStuck, StatusCompleted, StatusLag, StatusDecline:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s FermentationStatus) Terminal() bool {
	return s == StatusCompleted
}

// Fermentation represents one wine fermentation batch.
type Fermentation struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	Name      string             `json:"name" db:"name"`
	Vessel    string             `json:"vessel" db:"vessel"`
	StartedAt time.Time          `json:"started_at" db:"started_at"`
	Status    FermentationStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// Sample is a single timestamped measurement for one fermentation. A sample
// is immutable once it has passed validation; corrections are recorded as new
// samples.
type Sample struct {
	ID             int64      `json:"id" db:"id"`
	FermentationID uuid.UUID  `json:"fermentation_id" db:"fermentation_id"`
	SampleType     SampleType `json:"sample_type" db:"sample_type"`
	Value          float64    `json:"value" db:"value"`
	Unit           string     `json:"unit" db:"unit"`
	RecordedAt     time.Time  `json:"recorded_at" db:"recorded_at"`
	RecordedBy     string     `json:"recorded_by" db:"recorded_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// StatusChange records one classification outcome for a fermentation.
type StatusChange struct {
	ID             int64              `json:"id" db:"id"`
	FermentationID uuid.UUID          `json:"fermentation_id" db:"fermentation_id"`
	Status         FermentationStatus `json:"status" db:"status"`
	ClassifiedAt   time.Time          `json:"classified_at" db:"classified_at"`
}

// RawSampleRecord represents a single line from a lab export file.
// Used during bulk ingestion.
type RawSampleRecord struct {
	RecordedAt string // RFC 3339 or YYYY-MM-DD
	SampleType string
	Value      string
	RecordedBy string
}

// ToSample converts a RawSampleRecord to a Sample for the given fermentation.
// Type and timestamp parsing errors are reported as ParseErrors; value-level
// plausibility is left to the validation package.
func (r *RawSampleRecord) ToSample(fermentationID uuid.UUID) (*Sample, error) {
	st := SampleType(strings.ToLower(strings.TrimSpace(r.SampleType)))
	if !st.Valid() {
		return nil, &ParseError{
			Field:   "sample_type",
			Value:   r.SampleType,
			Message: "unsupported sample type",
		}
	}

	recordedAt, err := parseRecordedAt(r.RecordedAt)
	if err != nil {
		return nil, &ParseError{
			Field:   "recorded_at",
			Value:   r.RecordedAt,
			Message: "invalid timestamp, expected RFC 3339 or YYYY-MM-DD",
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil {
		return nil, &ParseError{
			Field:   "value",
			Value:   r.Value,
			Message: "value is not numeric",
		}
	}

	return &Sample{
		FermentationID: fermentationID,
		SampleType:     st,
		Value:          value,
		Unit:           st.Unit(),
		RecordedAt:     recordedAt,
		RecordedBy:     strings.TrimSpace(r.RecordedBy),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func parseRecordedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// ParseError represents a malformed input record during ingestion.
type ParseError struct {
	Field   string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsTransient returns false as parse errors are permanent.
func (e *ParseError) IsTransient() bool {
	return false
}
