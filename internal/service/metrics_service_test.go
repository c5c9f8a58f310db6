package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpower/monash-timetabler/internal/models"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsServiceObserveRanking(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRanking(models.RankingStats{
		Valid:    4,
		Rejected: 2,
		Excluded: []models.ExcludedGroup{{Group: models.GroupID{Subject: "FIT2004", Group: "Lab"}}},
		Duration: 20 * time.Millisecond,
	})

	body := scrape(t, m)
	assert.Contains(t, body, "timetable_rankings_total 1")
	assert.Contains(t, body, `timetable_combinations_total{result="valid"} 4`)
	assert.Contains(t, body, `timetable_combinations_total{result="rejected"} 2`)
	assert.Contains(t, body, "timetable_excluded_groups_total 1")
	assert.Contains(t, body, "timetable_ranking_duration_seconds_count 1")
}

func TestMetricsServiceCacheHitRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "cache_hit_ratio 0.75")
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 3`)
	assert.Contains(t, body, `cache_lookups_total{result="miss"} 1`)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/rankings/:id", http.StatusOK, 5*time.Millisecond)
	m.ObserveDBQuery("activities.list", time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/rankings/:id",status="200"} 1`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="activities.list"} 1`)
	assert.Contains(t, body, "goroutines_total")
}

func TestMetricsServiceJobs(t *testing.T) {
	m := NewMetricsService()
	m.ObserveJob("rankings", JobTypeRanking, nil, time.Millisecond, 10*time.Millisecond)
	m.ObserveJob("rankings", JobTypeRanking, errors.New("boom"), time.Millisecond, time.Millisecond)
	require.NoError(t, m.RegisterQueueDepth("rankings", func() int { return 3 }))

	body := scrape(t, m)
	assert.Contains(t, body, `jobs_processed_total{queue="rankings",result="ok",type="ranking"} 1`)
	assert.Contains(t, body, `jobs_processed_total{queue="rankings",result="error",type="ranking"} 1`)
	assert.Contains(t, body, `job_queue_depth{queue="rankings"} 3`)
	assert.Contains(t, body, `job_run_seconds_count{queue="rankings"} 2`)
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.ObserveDBQuery("q", time.Millisecond)
		m.ObserveRanking(models.RankingStats{})
		m.ObserveJob("q", "t", nil, 0, 0)
		assert.NoError(t, m.RegisterQueueDepth("q", func() int { return 0 }))
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
