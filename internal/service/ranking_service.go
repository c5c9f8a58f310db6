package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcpower/monash-timetabler/internal/dto"
	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/jobs"
)

// JobTypeRanking tags ranking jobs on the queue.
const JobTypeRanking = "ranking"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type activityLister interface {
	List(ctx context.Context, enrolmentID string) ([]models.Activity, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type timetableExporter interface {
	Export(view TimetableView, format string) (*ExportedFile, error)
}

// RankingServiceConfig holds defaults applied to ranking requests.
type RankingServiceConfig struct {
	EarlyBefore string
	LateFrom    string
}

// RankingService accepts ranking requests, hands them to the queue and serves the results.
type RankingService struct {
	activities activityLister
	ranker     *Ranker
	queue      jobDispatcher
	store      *RankingStore
	exporter   timetableExporter
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        RankingServiceConfig
}

// NewRankingService wires ranking dependencies.
func NewRankingService(
	activities activityLister,
	ranker *Ranker,
	queue jobDispatcher,
	store *RankingStore,
	exporter timetableExporter,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RankingServiceConfig,
) *RankingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewRankingStore(0)
	}
	return &RankingService{
		activities: activities,
		ranker:     ranker,
		queue:      queue,
		store:      store,
		exporter:   exporter,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Submit builds the catalog up front, so malformed input fails immediately, then queues the
// enumeration.
func (s *RankingService) Submit(ctx context.Context, req dto.RankRequest) (*dto.RankSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ranking payload")
	}

	activities, err := s.resolveActivities(ctx, req)
	if err != nil {
		return nil, err
	}
	enrolled := make([]models.GroupID, 0, len(req.EnrolledGroups))
	for _, ref := range req.EnrolledGroups {
		enrolled = append(enrolled, models.GroupID{Subject: ref.Subject, Group: ref.Group})
	}
	if len(activities) == 0 && len(enrolled) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no activities found for ranking")
	}

	cat, warnings, err := CatalogFromActivities(activities, enrolled...)
	if err != nil {
		return nil, err
	}
	policy, err := s.policyFor(req)
	if err != nil {
		return nil, err
	}
	size, err := s.ranker.CheckSize(cat)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.store.save(rankingEntry{
		ID:          id,
		Status:      models.RankingStatusQueued,
		Catalog:     cat,
		Warnings:    warnings,
		Policy:      policy,
		Size:        size,
		RequestedAt: time.Now().UTC(),
	})
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: JobTypeRanking}); err != nil {
		s.store.delete(id)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue ranking")
	}

	excluded := excludedGroups(warnings)
	s.logger.Info("ranking queued",
		zap.String("ranking_id", id),
		zap.Int("groups", cat.Len()),
		zap.Uint64("combinations", size),
		zap.Int("excluded", len(excluded)),
	)
	return &dto.RankSubmissionResponse{
		RankingID:    id,
		Status:       models.RankingStatusQueued,
		Groups:       cat.Len(),
		Combinations: size,
		Excluded:     excluded,
	}, nil
}

// Status reports the state of a ranking.
func (s *RankingService) Status(ctx context.Context, id string) (*dto.RankingStatusResponse, error) {
	entry, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ranking not found or expired")
	}
	resp := &dto.RankingStatusResponse{RankingID: id, Status: entry.Status, Error: entry.Err}
	if entry.Result != nil {
		stats := entry.Result.Stats()
		resp.Stats = &stats
		resp.Count = entry.Result.Len()
	}
	return resp, nil
}

// List pages through ranked timetables, best first.
func (s *RankingService) List(ctx context.Context, id string, query dto.RankingListQuery) ([]dto.RankedTimetableSummary, *models.Pagination, error) {
	ranking, err := s.ready(id)
	if err != nil {
		return nil, nil, err
	}
	page, limit := query.Page, query.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total := ranking.Len()
	from := (page - 1) * limit
	items := make([]dto.RankedTimetableSummary, 0, limit)
	for i := from; i < total && i < from+limit; i++ {
		entry := ranking.entries[i]
		items = append(items, dto.RankedTimetableSummary{
			Index:       i,
			Combination: append(models.Combination(nil), entry.comb...),
			Score:       append([]float64(nil), entry.key...),
		})
	}
	return items, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}

// Timetable returns the grid ranked at index.
func (s *RankingService) Timetable(ctx context.Context, id string, index int) (*dto.TimetableResponse, error) {
	ranking, err := s.ready(id)
	if err != nil {
		return nil, err
	}
	ranked, err := ranking.At(index)
	if err != nil {
		return nil, err
	}
	return timetableResponse(ranking.Catalog(), ranked), nil
}

// Palette returns the colours of a finished ranking.
func (s *RankingService) Palette(ctx context.Context, id string) (*models.Palette, error) {
	ranking, err := s.ready(id)
	if err != nil {
		return nil, err
	}
	palette := ranking.Palette()
	return &palette, nil
}

// Rebuild materialises and scores any combination against the ranking's catalog.
func (s *RankingService) Rebuild(ctx context.Context, id string, req dto.RebuildRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rebuild payload")
	}
	entry, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ranking not found or expired")
	}
	ranking, err := s.ready(id)
	if err != nil {
		return nil, err
	}
	comb := models.Combination(req.Combination)
	tt, err := ranking.Rebuild(comb)
	if err != nil {
		return nil, err
	}
	resp := timetableResponse(ranking.Catalog(), RankedTimetable{
		Index:       -1,
		Combination: comb,
		Timetable:   tt,
		Score:       entry.Policy.Key(tt),
	})
	if !Valid(ranking.Catalog(), comb) {
		resp.Score = nil
	}
	return resp, nil
}

// Export renders the timetable at index as a downloadable file.
func (s *RankingService) Export(ctx context.Context, id string, index int, format string) (*ExportedFile, error) {
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exporter unavailable")
	}
	ranking, err := s.ready(id)
	if err != nil {
		return nil, err
	}
	ranked, err := ranking.At(index)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(TimetableView{
		Title:     fmt.Sprintf("Timetable #%d", index+1),
		Timetable: ranked.Timetable,
		Palette:   ranking.Palette(),
	}, format)
}

// PurgeExpired drops expired rankings; intended for a periodic ticker.
func (s *RankingService) PurgeExpired() int {
	removed := s.store.Purge()
	if removed > 0 {
		s.logger.Debug("purged expired rankings", zap.Int("removed", removed))
	}
	return removed
}

func (s *RankingService) ready(id string) (*Ranking, error) {
	entry, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ranking not found or expired")
	}
	switch entry.Status {
	case models.RankingStatusReady:
		return entry.Result, nil
	case models.RankingStatusFailed:
		return nil, appErrors.Clone(appErrors.ErrRankingFailed, entry.Err)
	default:
		return nil, appErrors.Clone(appErrors.ErrRankingPending, "")
	}
}

func (s *RankingService) resolveActivities(ctx context.Context, req dto.RankRequest) ([]models.Activity, error) {
	if len(req.Activities) > 0 {
		return ActivitiesFromRequest("", req.Activities), nil
	}
	if s.activities == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "activity source unavailable")
	}
	return s.activities.List(ctx, req.EnrolmentID)
}

func (s *RankingService) policyFor(req dto.RankRequest) (ScoringPolicy, error) {
	return BuildPolicy(PolicyOptions{
		EarlyBefore: req.EarlyBefore,
		LateFrom:    req.LateFrom,
		TargetStart: req.TargetStart,
		FocusDays:   req.FocusDays,
		Criteria:    req.Criteria,
	}, s.cfg)
}

// PolicyOptions are the user-facing knobs of a scoring policy, in their textual form.
type PolicyOptions struct {
	EarlyBefore string
	LateFrom    string
	TargetStart string
	FocusDays   []string
	Criteria    []string
}

// BuildPolicy resolves thresholds against defaults and returns the default policy, or a
// criteria policy when criteria are named.
func BuildPolicy(opts PolicyOptions, defaults RankingServiceConfig) (ScoringPolicy, error) {
	early, err := thresholdOrDefault(opts.EarlyBefore, defaults.EarlyBefore, DefaultEarlyBefore)
	if err != nil {
		return nil, err
	}
	late, err := thresholdOrDefault(opts.LateFrom, defaults.LateFrom, DefaultLateFrom)
	if err != nil {
		return nil, err
	}
	if len(opts.Criteria) == 0 {
		return DefaultPolicy{EarlyBefore: early, LateFrom: late}, nil
	}

	criteria := CriteriaOptions{EarlyBefore: early, LateFrom: late}
	if opts.TargetStart != "" {
		if criteria.TargetStart, err = ParseTimeOfDay(opts.TargetStart); err != nil {
			return nil, err
		}
	}
	for _, raw := range opts.FocusDays {
		day, err := ParseDay(raw)
		if err != nil {
			return nil, err
		}
		criteria.FocusDays = append(criteria.FocusDays, day)
	}
	policy, err := ParseCriteria(opts.Criteria, criteria)
	if err != nil {
		return nil, err
	}
	return policy, nil
}

func thresholdOrDefault(raw, configured string, fallback int) (int, error) {
	if raw == "" {
		raw = configured
	}
	if raw == "" {
		return fallback, nil
	}
	return ParseTimeOfDay(raw)
}

func timetableResponse(cat *Catalog, ranked RankedTimetable) *dto.TimetableResponse {
	selections := make([]dto.Selection, 0, len(ranked.Combination))
	for g, idx := range ranked.Combination {
		group := cat.Group(g)
		selections = append(selections, dto.Selection{
			Group:    group.ID,
			Option:   idx,
			Sessions: group.Options[idx].Sessions,
		})
	}
	return &dto.TimetableResponse{
		Index:       ranked.Index,
		Combination: ranked.Combination,
		Score:       ranked.Score,
		Selections:  selections,
		Grid:        ranked.Timetable,
	}
}

// RankingWorker runs queued rankings.
type RankingWorker struct {
	store  *RankingStore
	ranker *Ranker
	logger *zap.Logger
}

// NewRankingWorker constructs the queue handler.
func NewRankingWorker(store *RankingStore, ranker *Ranker, logger *zap.Logger) *RankingWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingWorker{store: store, ranker: ranker, logger: logger}
}

// Handle processes a queue job. Ranking failures are recorded on the entry, not returned.
// A panic in a scoring policy marks the entry failed before it reaches the queue.
func (w *RankingWorker) Handle(ctx context.Context, job jobs.Job) (err error) {
	entry, ok := w.store.get(job.ID)
	if !ok {
		return fmt.Errorf("ranking %s expired before it ran", job.ID)
	}
	w.store.update(job.ID, func(e *rankingEntry) { e.Status = models.RankingStatusRunning })
	defer func() {
		if r := recover(); r != nil {
			w.fail(job.ID, fmt.Errorf("ranking panicked: %v", r))
			err = fmt.Errorf("ranking %s panicked: %v", job.ID, r)
		}
	}()

	ranking, rankErr := w.ranker.Rank(ctx, entry.Catalog, entry.Warnings, entry.Policy)
	if rankErr != nil {
		w.fail(job.ID, rankErr)
		return nil
	}
	w.store.update(job.ID, func(e *rankingEntry) {
		e.Status = models.RankingStatusReady
		e.Result = ranking
	})
	return nil
}

func (w *RankingWorker) fail(id string, err error) {
	w.logger.Warn("ranking failed", zap.String("ranking_id", id), zap.Error(err))
	w.store.update(id, func(e *rankingEntry) {
		e.Status = models.RankingStatusFailed
		e.Err = appErrors.FromError(err).Error()
	})
}
