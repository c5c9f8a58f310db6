package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpower/monash-timetabler/internal/models"
)

func TestActivityFileRepositoryLoad(t *testing.T) {
	repo := NewActivityFileRepository(filepath.Join("testdata", "all_acts.json"))

	activities, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, activities, 4)

	// Groups sorted by key, parts in file order.
	assert.Equal(t, "FIT1045_CL_S1_DAY", activities[0].SubjectCode)
	assert.Equal(t, "01-P1", activities[0].ActivityCode)
	assert.Equal(t, 120, activities[0].Duration)
	require.NotNil(t, activities[0].Location)
	assert.Equal(t, "01-P2", activities[1].ActivityCode)
	assert.Equal(t, 60, activities[1].Duration)
	assert.Equal(t, "Applied", activities[2].GroupCode)
	assert.Equal(t, 120, activities[3].Duration)
}

func TestActivityFileRepositoryMissingFile(t *testing.T) {
	repo := NewActivityFileRepository(filepath.Join(t.TempDir(), "absent.json"))
	activities, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestActivityFileRepositoryRejectsBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"no-separator": []}`), 0o600))

	_, err := NewActivityFileRepository(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-separator")
}

func TestActivityFileRepositoryRejectsFractionalDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A|B": [[{"activity_code": "01", "day_of_week": "Mon", "start_time": "09:00", "duration": "1.5"}]]}`), 0o600))

	_, err := NewActivityFileRepository(path).Load()
	require.Error(t, err)
}

func TestActivityFileRepositorySaveGroupsRepeats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "all_acts.json")
	repo := NewActivityFileRepository(path)

	in := []models.Activity{
		{SubjectCode: "FIT1045", GroupCode: "Lecture", ActivityCode: "01-P1", DayOfWeek: "Mon", StartTime: "09:00", Duration: 120},
		{SubjectCode: "FIT1045", GroupCode: "Lecture", ActivityCode: "02-P1", DayOfWeek: "Tue", StartTime: "09:00", Duration: 120},
		{SubjectCode: "FIT1045", GroupCode: "Lecture", ActivityCode: "01-P2", DayOfWeek: "Wed", StartTime: "10:00", Duration: 60},
	}
	require.NoError(t, repo.Save(in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap map[string][][]map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &snap))
	repeats := snap["FIT1045|Lecture"]
	require.Len(t, repeats, 2)
	assert.Len(t, repeats[0], 2)
	assert.Equal(t, "120", repeats[0][0]["duration"])

	out, err := repo.ListByEnrolment(context.Background(), "enr-7")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "enr-7", out[0].EnrolmentID)
	assert.Equal(t, "01-P2", out[1].ActivityCode)
}
