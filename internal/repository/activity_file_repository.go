package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mcpower/monash-timetabler/internal/models"
)

// snapshotActivity mirrors one activity as the allocation portal publishes it.
type snapshotActivity struct {
	ActivityCode string     `json:"activity_code"`
	DayOfWeek    string     `json:"day_of_week"`
	StartTime    string     `json:"start_time"`
	Duration     flexMinute `json:"duration"`
	Location     *string    `json:"location,omitempty"`
}

// flexMinute accepts a duration in minutes encoded either as a number or a string.
type flexMinute int

func (m *flexMinute) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("duration %s is not a whole number of minutes", data)
	}
	*m = flexMinute(v)
	return nil
}

func (m flexMinute) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(m)))
}

// snapshot maps "SUBJECT|Group" to the group's repeats, each a list of linked parts.
type snapshot map[string][][]snapshotActivity

// ActivityFileRepository reads and writes a single enrolment's activities as a snapshot
// file. It backs the CLI and serves as a database-free store for the API.
type ActivityFileRepository struct {
	path string
}

// NewActivityFileRepository binds the repository to a snapshot path.
func NewActivityFileRepository(path string) *ActivityFileRepository {
	return &ActivityFileRepository{path: path}
}

// Path returns the snapshot location.
func (r *ActivityFileRepository) Path() string {
	return r.path
}

// Load reads the snapshot. Groups come back sorted by key; repeats keep file order.
// A missing file yields no activities.
func (r *ActivityFileRepository) Load() ([]models.Activity, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read activity snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode activity snapshot %s: %w", r.path, err)
	}

	keys := make([]string, 0, len(snap))
	for key := range snap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var activities []models.Activity
	for _, key := range keys {
		id, err := models.ParseGroupID(key)
		if err != nil {
			return nil, fmt.Errorf("snapshot group %q: %w", key, err)
		}
		for _, repeat := range snap[key] {
			for _, part := range repeat {
				activities = append(activities, models.Activity{
					SubjectCode:  id.Subject,
					GroupCode:    id.Group,
					ActivityCode: part.ActivityCode,
					DayOfWeek:    part.DayOfWeek,
					StartTime:    part.StartTime,
					Duration:     int(part.Duration),
					Location:     part.Location,
				})
			}
		}
	}
	return activities, nil
}

// Save writes activities as a snapshot, replacing the file atomically.
func (r *ActivityFileRepository) Save(activities []models.Activity) error {
	snap := make(snapshot)
	repeatIndex := make(map[string]map[string]int)
	for _, act := range activities {
		key := act.GroupID().String()
		repeat := repeatKey(act.ActivityCode)
		if repeatIndex[key] == nil {
			repeatIndex[key] = make(map[string]int)
		}
		idx, ok := repeatIndex[key][repeat]
		if !ok {
			idx = len(snap[key])
			repeatIndex[key][repeat] = idx
			snap[key] = append(snap[key], nil)
		}
		snap[key][idx] = append(snap[key][idx], snapshotActivity{
			ActivityCode: act.ActivityCode,
			DayOfWeek:    act.DayOfWeek,
			StartTime:    act.StartTime,
			Duration:     flexMinute(act.Duration),
			Location:     act.Location,
		})
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode activity snapshot: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".activities-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write activity snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close activity snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace activity snapshot: %w", err)
	}
	return nil
}

// ListByEnrolment returns the snapshot's activities; a snapshot holds one enrolment.
func (r *ActivityFileRepository) ListByEnrolment(ctx context.Context, enrolmentID string) ([]models.Activity, error) {
	activities, err := r.Load()
	if err != nil {
		return nil, err
	}
	for i := range activities {
		activities[i].EnrolmentID = enrolmentID
	}
	return activities, nil
}

// ReplaceForEnrolment overwrites the snapshot.
func (r *ActivityFileRepository) ReplaceForEnrolment(ctx context.Context, enrolmentID string, activities []models.Activity) error {
	return r.Save(activities)
}

func repeatKey(code string) string {
	return strings.SplitN(strings.TrimSpace(code), "-", 2)[0]
}
