package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mcpower/monash-timetabler/internal/dto"
	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

// ActivityStore persists enrolment activities.
type ActivityStore interface {
	ListByEnrolment(ctx context.Context, enrolmentID string) ([]models.Activity, error)
	ReplaceForEnrolment(ctx context.Context, enrolmentID string, activities []models.Activity) error
}

// ActivityService stores the raw activities an enrolment can choose from.
type ActivityService struct {
	repo      ActivityStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewActivityService constructs the service. cache may be nil.
func NewActivityService(repo ActivityStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// ActivityCacheKey is the cache key for an enrolment's activities.
func ActivityCacheKey(enrolmentID string) string {
	return fmt.Sprintf("activities:%s", enrolmentID)
}

// List returns stored activities, reading through the cache when it is enabled.
func (s *ActivityService) List(ctx context.Context, enrolmentID string) ([]models.Activity, error) {
	if enrolmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrolment id is required")
	}
	key := ActivityCacheKey(enrolmentID)
	var cached []models.Activity
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	activities, err := s.repo.ListByEnrolment(ctx, enrolmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
	}
	_ = s.cache.Set(ctx, key, activities, s.cacheTTL)
	return activities, nil
}

// Replace validates and normalises the activities up front, then swaps the stored set.
func (s *ActivityService) Replace(ctx context.Context, enrolmentID string, req dto.ReplaceActivitiesRequest) ([]models.Activity, error) {
	if enrolmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrolment id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activities payload")
	}
	activities := ActivitiesFromRequest(enrolmentID, req.Activities)
	if _, _, err := CatalogFromActivities(activities); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceForEnrolment(ctx, enrolmentID, activities); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store activities")
	}
	if err := s.cache.Invalidate(ctx, ActivityCacheKey(enrolmentID)); err != nil {
		s.logger.Warn("activity cache invalidation failed", zap.String("enrolment_id", enrolmentID), zap.Error(err))
	}
	s.logger.Info("activities replaced", zap.String("enrolment_id", enrolmentID), zap.Int("count", len(activities)))
	return activities, nil
}

// ActivitiesFromRequest converts request payloads into activity rows.
func ActivitiesFromRequest(enrolmentID string, items []dto.ActivityRequest) []models.Activity {
	activities := make([]models.Activity, 0, len(items))
	for _, item := range items {
		activities = append(activities, models.Activity{
			EnrolmentID:  enrolmentID,
			SubjectCode:  item.SubjectCode,
			GroupCode:    item.GroupCode,
			ActivityCode: item.ActivityCode,
			DayOfWeek:    item.DayOfWeek,
			StartTime:    item.StartTime,
			Duration:     item.Duration,
			Location:     item.Location,
		})
	}
	return activities
}
