package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fermentation-platform/internal/classifier"
	"fermentation-platform/internal/config"
	"fermentation-platform/internal/models"
	"fermentation-platform/internal/repository"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

// FermentationService handles fermentation lifecycle operations
type FermentationService struct {
	repo       repository.FermentationRepository
	classifier *classifier.Classifier
	rules      config.ClassifierRules
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewFermentationService creates a new fermentation service
func NewFermentationService(
	repo repository.FermentationRepository,
	rules config.ClassifierRules,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *FermentationService {
	return &FermentationService{
		repo: repo,
		classifier: classifier.New(classifier.Config{
			TargetSugarBrix: rules.TargetSugarBrix,
			SlowRatePerDay:  rules.SlowRatePerDay,
			StallTolerance:  rules.StallTolerance,
			StallWindow:     rules.StallWindow,
			MinSamples:      rules.MinSamples,
		}),
		rules:   rules,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateFermentation registers a new fermentation batch. Status always starts
// at ACTIVE; it is derived from samples afterwards, never supplied.
func (s *FermentationService) CreateFermentation(ctx context.Context, name, vessel string, startedAt time.Time) (*models.Fermentation, error) {
	if name == "" {
		return nil, fmt.Errorf("fermentation name is required")
	}
	if startedAt.IsZero() {
		return nil, fmt.Errorf("fermentation start date is required")
	}

	now := time.Now().UTC()
	f := &models.Fermentation{
		ID:        uuid.New(),
		Name:      name,
		Vessel:    vessel,
		StartedAt: startedAt.UTC(),
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateFermentation(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[FERMENTATION_CREATED] New fermentation registered", logging.Fields{
		"fermentation_id": f.ID.String(),
		"name":            f.Name,
		"started_at":      f.StartedAt.Format(time.RFC3339),
	})

	return f, nil
}

// GetFermentation retrieves a fermentation by ID
func (s *FermentationService) GetFermentation(ctx context.Context, id uuid.UUID) (*models.Fermentation, error) {
	return s.repo.GetFermentation(ctx, id)
}

// ListFermentations retrieves fermentations with pagination
func (s *FermentationService) ListFermentations(ctx context.Context, limit, offset int) ([]*models.Fermentation, int, error) {
	return s.repo.ListFermentations(ctx, limit, offset)
}

// GetStatusHistory returns recent classification outcomes for a fermentation
func (s *FermentationService) GetStatusHistory(ctx context.Context, id uuid.UUID, limit int) ([]*models.StatusChange, error) {
	return s.repo.GetStatusHistory(ctx, id, limit)
}

// Reclassify recomputes the fermentation's status from its trailing sugar
// window and persists the outcome. COMPLETED is terminal: once stored, no
// further recomputation can move the status away from it.
func (s *FermentationService) Reclassify(ctx context.Context, id uuid.UUID) (models.FermentationStatus, error) {
	timer := time.Now()
	defer func() {
		s.metrics.ClassificationDuration.Observe(time.Since(timer).Seconds())
	}()

	f, err := s.repo.GetFermentation(ctx, id)
	if err != nil {
		return "", err
	}

	if f.Status.Terminal() {
		return f.Status, nil
	}

	window, err := s.sugarWindow(ctx, id)
	if err != nil {
		return "", err
	}

	status, err := s.classifier.Classify(f.StartedAt, window)
	if err != nil {
		return "", fmt.Errorf("failed to classify fermentation %s: %w", id, err)
	}

	if status != f.Status {
		if err := s.repo.UpdateFermentationStatus(ctx, id, status); err != nil {
			return "", err
		}
		if err := s.repo.RecordStatusChange(ctx, &models.StatusChange{
			FermentationID: id,
			Status:         status,
			ClassifiedAt:   time.Now().UTC(),
		}); err != nil {
			return "", err
		}

		s.metrics.RecordStatusTransition(string(f.Status), string(status))
		s.logger.Info(ctx, "[STATUS_TRANSITION] Fermentation status changed", logging.Fields{
			"fermentation_id": id.String(),
			"from":            string(f.Status),
			"to":              string(status),
			"window_size":     len(window),
		})
	}

	return status, nil
}

// sugarWindow loads the trailing sugar observations used for classification,
// in ascending time order.
func (s *FermentationService) sugarWindow(ctx context.Context, id uuid.UUID) ([]classifier.Observation, error) {
	sampleType := models.SampleTypeSugar
	filter := repository.SampleFilter{
		FermentationID: &id,
		SampleType:     &sampleType,
		Limit:          s.rules.WindowSize,
		Offset:         0,
	}

	samples, total, err := s.repo.GetSamples(ctx, filter)
	if err != nil {
		return nil, err
	}

	// GetSamples pages from the oldest; when history exceeds the window,
	// refetch the trailing page so the rate reflects recent progress.
	if total > s.rules.WindowSize {
		filter.Offset = total - s.rules.WindowSize
		samples, _, err = s.repo.GetSamples(ctx, filter)
		if err != nil {
			return nil, err
		}
	}

	window := make([]classifier.Observation, 0, len(samples))
	for _, sample := range samples {
		window = append(window, classifier.Observation{
			RecordedAt: sample.RecordedAt,
			Value:      sample.Value,
		})
	}

	return window, nil
}
