package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fermentation-platform/internal/config"
	"fermentation-platform/internal/models"
	"fermentation-platform/internal/repository"
	"fermentation-platform/internal/validation"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

// SampleInput carries one raw measurement as submitted by a client. Value is
// kept as decoded JSON so the validators can report missing and malformed
// values instead of the transport layer rejecting them.
type SampleInput struct {
	SampleType string `json:"sample_type"`
	Value      any    `json:"value"`
	RecordedAt string `json:"recorded_at"`
	RecordedBy string `json:"recorded_by"`
}

// SampleService validates and records measurements for fermentations
type SampleService struct {
	repo          repository.FermentationRepository
	fermentations *FermentationService
	rules         config.RulesConfig
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewSampleService creates a new sample service
func NewSampleService(
	repo repository.FermentationRepository,
	fermentations *FermentationService,
	rules config.RulesConfig,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *SampleService {
	return &SampleService{
		repo:          repo,
		fermentations: fermentations,
		rules:         rules,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// RecordSample runs a submitted measurement through the validation pipeline
// (value, chronology, trend, in that order), persists it when valid and
// triggers status reclassification. The returned ValidationResult carries
// every violation found; the sample pointer is non-nil only on acceptance.
func (s *SampleService) RecordSample(ctx context.Context, fermentationID uuid.UUID, input SampleInput) (*models.Sample, validation.ValidationResult, error) {
	f, err := s.repo.GetFermentation(ctx, fermentationID)
	if err != nil {
		return nil, validation.ValidationResult{}, err
	}

	sampleType := models.SampleType(input.SampleType)

	valueResult := s.validateValue(sampleType, input.Value)

	// Nothing beyond the value check is possible without a usable
	// measurement and timestamp.
	recordedAt, tsErr := time.Parse(time.RFC3339, input.RecordedAt)
	if tsErr != nil {
		tsResult := validation.Failure(validation.ValidationError{
			Field:   "recorded_at",
			Message: "Timestamp must be RFC 3339",
			Value:   input.RecordedAt,
		})
		combined := validation.Combine(valueResult, tsResult)
		s.recordOutcome(ctx, sampleType, combined)
		return nil, combined, nil
	}
	recordedAt = recordedAt.UTC()

	if !valueResult.Valid {
		s.recordOutcome(ctx, sampleType, valueResult)
		return nil, valueResult, nil
	}

	numeric := mustNumeric(input.Value)

	chronoResult, err := s.validateChronology(ctx, f, sampleType, recordedAt)
	if err != nil {
		return nil, validation.ValidationResult{}, err
	}

	trendResult, err := s.validateTrendAgainstPrevious(ctx, f.ID, sampleType, numeric)
	if err != nil {
		return nil, validation.ValidationResult{}, err
	}

	combined := validation.Combine(valueResult, chronoResult, trendResult)
	if !combined.Valid {
		s.recordOutcome(ctx, sampleType, combined)
		return nil, combined, nil
	}

	sample := &models.Sample{
		FermentationID: f.ID,
		SampleType:     sampleType,
		Value:          numeric,
		Unit:           sampleType.Unit(),
		RecordedAt:     recordedAt,
		RecordedBy:     input.RecordedBy,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.CreateSample(ctx, sample); err != nil {
		var dup *repository.DuplicateSampleError
		if errors.As(err, &dup) {
			// A concurrent writer won the race after our history snapshot;
			// report it as the same duplicate-timestamp violation.
			raceResult := validation.Combine(combined, validation.Failure(validation.ValidationError{
				Field:   "recorded_at",
				Message: "Duplicate timestamp for fermentation " + f.ID.String(),
				Value:   recordedAt,
			}))
			s.recordOutcome(ctx, sampleType, raceResult)
			return nil, raceResult, nil
		}
		return nil, validation.ValidationResult{}, err
	}

	s.recordOutcome(ctx, sampleType, combined)

	s.logger.Info(ctx, "[SAMPLE_RECORDED] Sample accepted", logging.Fields{
		"fermentation_id": f.ID.String(),
		"sample_type":     string(sampleType),
		"value":           numeric,
		"recorded_at":     recordedAt.Format(time.RFC3339),
		"warnings":        len(combined.Warnings),
	})

	// Classification failures must not undo an accepted sample.
	if _, err := s.fermentations.Reclassify(ctx, f.ID); err != nil {
		s.logger.Error(ctx, "[RECLASSIFY_ERROR] Status recomputation failed after sample", logging.Fields{
			"fermentation_id": f.ID.String(),
		}, err)
	}

	return sample, combined, nil
}

// validateValue runs the type-specific value checks, plus the configured
// plausibility range and near-limit warning for temperature.
func (s *SampleService) validateValue(sampleType models.SampleType, raw any) validation.ValidationResult {
	result := validation.ValidateSampleValue(sampleType, raw)
	if !result.Valid || sampleType != models.SampleTypeTemperature {
		return result
	}

	rules := s.rules.Temperature
	rangeResult := validation.ValidateTemperatureRange(raw, rules.MinCelsius, rules.MaxCelsius)
	if !rangeResult.Valid {
		return rangeResult
	}

	value := mustNumeric(raw)
	if value > rules.MaxCelsius-rules.WarnBandCelsius {
		rangeResult.AddWarning("value", "Temperature approaching upper limit", value)
	}

	return rangeResult
}

func (s *SampleService) validateChronology(ctx context.Context, f *models.Fermentation, sampleType models.SampleType, recordedAt time.Time) (validation.ValidationResult, error) {
	prior, err := s.repo.GetSampleTimestamps(ctx, f.ID, sampleType)
	if err != nil {
		return validation.ValidationResult{}, err
	}

	return validation.ValidateSampleChronology(f.ID, recordedAt, f.StartedAt, prior), nil
}

// validateTrendAgainstPrevious applies the trend check against the latest
// recorded value of the same metric. The first sample of a metric has no
// previous reading and skips the check.
func (s *SampleService) validateTrendAgainstPrevious(ctx context.Context, fermentationID uuid.UUID, sampleType models.SampleType, value float64) (validation.ValidationResult, error) {
	previous, err := s.repo.GetLatestSample(ctx, fermentationID, sampleType)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return validation.Success(), nil
		}
		return validation.ValidationResult{}, err
	}

	return validation.ValidateTrend(sampleType, previous.Value, value, s.trendTolerance(sampleType)), nil
}

func (s *SampleService) trendTolerance(sampleType models.SampleType) float64 {
	switch sampleType {
	case models.SampleTypeSugar:
		return s.rules.Trend.SugarTolerance
	case models.SampleTypeDensity:
		return s.rules.Trend.DensityTolerance
	case models.SampleTypeEthanol:
		return s.rules.Trend.EthanolTolerance
	default:
		return 0
	}
}

// GetSamples retrieves samples with filtering
func (s *SampleService) GetSamples(ctx context.Context, filter repository.SampleFilter) ([]*models.Sample, int, error) {
	return s.repo.GetSamples(ctx, filter)
}

func (s *SampleService) recordOutcome(ctx context.Context, sampleType models.SampleType, result validation.ValidationResult) {
	label := string(sampleType)
	if !sampleType.Valid() {
		label = "unsupported"
	}
	s.metrics.RecordValidation(label, result.Valid)

	for _, verr := range result.Errors {
		s.metrics.RecordValidationError(verr.Field)
	}
	if n := len(result.Warnings); n > 0 {
		s.metrics.ValidationWarnings.Add(float64(n))
	}

	if !result.Valid {
		s.logger.Debug(ctx, "[SAMPLE_REJECTED] Sample failed validation", logging.Fields{
			"sample_type": label,
			"error_count": len(result.Errors),
		})
	}
}

// mustNumeric re-parses a raw value that already passed value validation.
// Failure here is a programmer error: callers must validate first.
func mustNumeric(raw any) float64 {
	numeric, ok := validation.Numeric(raw)
	if !ok {
		panic("services: mustNumeric called with unvalidated value")
	}
	return numeric
}
