package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcpower/monash-timetabler/internal/dto"
	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/jobs"
)

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type activityListerStub struct {
	activities map[string][]models.Activity
	err        error
}

func (s *activityListerStub) List(ctx context.Context, enrolmentID string) ([]models.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.activities[enrolmentID], nil
}

type rankingFixture struct {
	service *RankingService
	worker  *RankingWorker
	queue   *queueStub
	store   *RankingStore
}

func newRankingFixture(lister activityLister, cfg RankerConfig) rankingFixture {
	store := NewRankingStore(0)
	ranker := NewRanker(cfg, zap.NewNop(), nil)
	queue := &queueStub{}
	svc := NewRankingService(lister, ranker, queue, store, NewExportService(zap.NewNop(), nil, nil), nil, zap.NewNop(), RankingServiceConfig{})
	return rankingFixture{
		service: svc,
		worker:  NewRankingWorker(store, ranker, zap.NewNop()),
		queue:   queue,
		store:   store,
	}
}

func inlineActivities() []dto.ActivityRequest {
	return []dto.ActivityRequest{
		{SubjectCode: "FIT2004", GroupCode: "Lecture", ActivityCode: "01", DayOfWeek: "Mon", StartTime: "09:00", Duration: 120},
		{SubjectCode: "FIT2004", GroupCode: "Lab", ActivityCode: "01", DayOfWeek: "Mon", StartTime: "10:00", Duration: 60},
		{SubjectCode: "FIT2004", GroupCode: "Lab", ActivityCode: "02", DayOfWeek: "Tue", StartTime: "10:00", Duration: 60},
		{SubjectCode: "FIT2004", GroupCode: "Lab", ActivityCode: "03", DayOfWeek: "Wed", StartTime: "14:00", Duration: 60},
	}
}

func (f rankingFixture) submitAndRun(t *testing.T, req dto.RankRequest) string {
	t.Helper()
	resp, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.queue.jobs, 1)
	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))
	return resp.RankingID
}

func TestRankingServiceSubmitQueuesJob(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})

	resp, err := f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities()})
	require.NoError(t, err)

	assert.Equal(t, models.RankingStatusQueued, resp.Status)
	assert.Equal(t, 2, resp.Groups)
	assert.Equal(t, uint64(3), resp.Combinations)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, resp.RankingID, f.queue.jobs[0].ID)
	assert.Equal(t, JobTypeRanking, f.queue.jobs[0].Type)

	status, err := f.service.Status(context.Background(), resp.RankingID)
	require.NoError(t, err)
	assert.Equal(t, models.RankingStatusQueued, status.Status)

	_, _, err = f.service.List(context.Background(), resp.RankingID, dto.RankingListQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrRankingPending))
}

func TestRankingServiceRunsToReady(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{Workers: 2})
	id := f.submitAndRun(t, dto.RankRequest{Activities: inlineActivities()})

	status, err := f.service.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RankingStatusReady, status.Status)
	assert.Equal(t, 2, status.Count)
	require.NotNil(t, status.Stats)
	assert.Equal(t, uint64(1), status.Stats.Rejected)

	items, page, err := f.service.List(context.Background(), id, dto.RankingListQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 0, items[0].Index)

	tt, err := f.service.Timetable(context.Background(), id, 0)
	require.NoError(t, err)
	require.Len(t, tt.Selections, 2)
	assert.Equal(t, "Lecture", tt.Selections[0].Group.Group)

	palette, err := f.service.Palette(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, palette.SubjectHues["FIT2004"])
	assert.Equal(t, 10, palette.GroupValues["Lecture"])

	_, err = f.service.Timetable(context.Background(), id, 5)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRankingServiceRebuildMarksClashes(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	id := f.submitAndRun(t, dto.RankRequest{Activities: inlineActivities()})

	clash, err := f.service.Rebuild(context.Background(), id, dto.RebuildRequest{Combination: []int{0, 0}})
	require.NoError(t, err)
	assert.Nil(t, clash.Score)
	assert.Equal(t, -1, clash.Index)

	valid, err := f.service.Rebuild(context.Background(), id, dto.RebuildRequest{Combination: []int{0, 1}})
	require.NoError(t, err)
	assert.NotNil(t, valid.Score)

	_, err = f.service.Rebuild(context.Background(), id, dto.RebuildRequest{Combination: []int{0, 7}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRankingServiceExport(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	id := f.submitAndRun(t, dto.RankRequest{Activities: inlineActivities()})

	file, err := f.service.Export(context.Background(), id, 0, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "timetable_1.csv", file.Filename)
	assert.Contains(t, string(file.Data), "FIT2004 Lecture")
}

func TestRankingServiceLoadsStoredActivities(t *testing.T) {
	lister := &activityListerStub{activities: map[string][]models.Activity{
		"enrolment-1": ActivitiesFromRequest("enrolment-1", inlineActivities()),
	}}
	f := newRankingFixture(lister, RankerConfig{})

	resp, err := f.service.Submit(context.Background(), dto.RankRequest{EnrolmentID: "enrolment-1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), resp.Combinations)

	_, err = f.service.Submit(context.Background(), dto.RankRequest{EnrolmentID: "unknown"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRankingServiceSubmitValidation(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})

	_, err := f.service.Submit(context.Background(), dto.RankRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	bad := inlineActivities()
	bad[0].StartTime = "09:15"
	_, err = f.service.Submit(context.Background(), dto.RankRequest{Activities: bad})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedTime))

	_, err = f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities(), Criteria: []string{"+lunch"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.queue.jobs)
}

func TestRankingServiceSubmitReportsExcludedGroups(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})

	resp, err := f.service.Submit(context.Background(), dto.RankRequest{
		Activities:     inlineActivities(),
		EnrolledGroups: []dto.GroupRef{{Subject: "FIT2004", Group: "Tutorial"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Excluded, 1)
	assert.Equal(t, "Tutorial", resp.Excluded[0].Group.Group)
}

func TestRankingServiceRejectsOversizedSpace(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{MaxCombinations: 2})

	_, err := f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities()})
	assert.True(t, errors.Is(err, appErrors.ErrCombinationSpaceTooLarge))
	assert.Empty(t, f.queue.jobs)
}

func TestRankingServiceEnqueueFailureDropsEntry(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	f.queue.err = fmt.Errorf("queue rankings is full")

	_, err := f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities()})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Zero(t, f.store.Purge())
	assert.Empty(t, f.store.items)
}

func TestRankingServiceUnknownID(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})

	_, err := f.service.Status(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = f.service.Palette(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRankingWorkerRecordsFailures(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	resp, err := f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities()})
	require.NoError(t, err)

	f.worker.ranker = NewRanker(RankerConfig{MaxCombinations: 1}, nil, nil)
	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))

	status, err := f.service.Status(context.Background(), resp.RankingID)
	require.NoError(t, err)
	assert.Equal(t, models.RankingStatusFailed, status.Status)
	assert.NotEmpty(t, status.Error)

	_, err = f.service.Timetable(context.Background(), resp.RankingID, 0)
	assert.True(t, errors.Is(err, appErrors.ErrRankingFailed))
}

func TestRankingWorkerMarksPanickingPolicyFailed(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	resp, err := f.service.Submit(context.Background(), dto.RankRequest{Activities: inlineActivities()})
	require.NoError(t, err)
	f.store.update(resp.RankingID, func(e *rankingEntry) {
		e.Policy = ScoringFunc(func(models.Timetable) ScoreKey { panic("score out of range") })
	})

	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))

	status, err := f.service.Status(context.Background(), resp.RankingID)
	require.NoError(t, err)
	assert.Equal(t, models.RankingStatusFailed, status.Status)
	assert.Contains(t, status.Error, "panicked")

	_, _, err = f.service.List(context.Background(), resp.RankingID, dto.RankingListQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrRankingFailed))
}

func TestRankingWorkerExpiredJob(t *testing.T) {
	f := newRankingFixture(nil, RankerConfig{})
	assert.Error(t, f.worker.Handle(context.Background(), jobs.Job{ID: "gone"}))
}

func TestBuildPolicy(t *testing.T) {
	policy, err := BuildPolicy(PolicyOptions{}, RankingServiceConfig{})
	require.NoError(t, err)
	assert.Equal(t, NewDefaultPolicy(), policy)

	policy, err = BuildPolicy(PolicyOptions{LateFrom: "5pm"}, RankingServiceConfig{EarlyBefore: "10am"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy{EarlyBefore: 4, LateFrom: 18}, policy)

	policy, err = BuildPolicy(PolicyOptions{Criteria: []string{"+day_contact"}, FocusDays: []string{"Mon"}, TargetStart: "10am"}, RankingServiceConfig{})
	require.NoError(t, err)
	assert.IsType(t, &CriteriaPolicy{}, policy)

	_, err = BuildPolicy(PolicyOptions{EarlyBefore: "9:15"}, RankingServiceConfig{})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedTime))
	_, err = BuildPolicy(PolicyOptions{Criteria: []string{"+day_contact"}, FocusDays: []string{"Sun"}}, RankingServiceConfig{})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedTime))
}

func TestRankingStorePurge(t *testing.T) {
	store := NewRankingStore(time.Minute)
	store.save(rankingEntry{ID: "old", RequestedAt: time.Now().Add(-2 * time.Minute)})
	store.save(rankingEntry{ID: "fresh", RequestedAt: time.Now()})

	_, ok := store.get("old")
	assert.False(t, ok)
	store.save(rankingEntry{ID: "old", RequestedAt: time.Now().Add(-2 * time.Minute)})
	assert.Equal(t, 1, store.Purge())
	_, ok = store.get("fresh")
	assert.True(t, ok)
}
