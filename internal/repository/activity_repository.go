package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcpower/monash-timetabler/internal/models"
)

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ActivityRepository stores the activities offered to an enrolment.
type ActivityRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewActivityRepository builds the repository. metrics may be nil.
func NewActivityRepository(db *sqlx.DB, metrics queryObserver) *ActivityRepository {
	return &ActivityRepository{db: db, metrics: metrics}
}

func (r *ActivityRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// ListByEnrolment returns activities grouped by subject, group and activity code.
func (r *ActivityRepository) ListByEnrolment(ctx context.Context, enrolmentID string) ([]models.Activity, error) {
	defer r.observe("activities.list", time.Now())

	const query = `SELECT id, enrolment_id, subject_code, group_code, activity_code, day_of_week, start_time, duration, location, created_at
FROM enrolment_activities WHERE enrolment_id = $1 ORDER BY subject_code ASC, group_code ASC, activity_code ASC`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, enrolmentID); err != nil {
		return nil, fmt.Errorf("list enrolment activities: %w", err)
	}
	return activities, nil
}

// ReplaceForEnrolment swaps the whole activity set of an enrolment in one transaction.
func (r *ActivityRepository) ReplaceForEnrolment(ctx context.Context, enrolmentID string, activities []models.Activity) (err error) {
	defer r.observe("activities.replace", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace activities: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM enrolment_activities WHERE enrolment_id = $1`, enrolmentID); err != nil {
		return fmt.Errorf("clear enrolment activities: %w", err)
	}

	const insert = `
INSERT INTO enrolment_activities (id, enrolment_id, subject_code, group_code, activity_code, day_of_week, start_time, duration, location, created_at)
VALUES (:id, :enrolment_id, :subject_code, :group_code, :activity_code, :day_of_week, :start_time, :duration, :location, :created_at)`

	now := time.Now().UTC()
	for i := range activities {
		act := &activities[i]
		act.EnrolmentID = enrolmentID
		if act.ID == "" {
			act.ID = uuid.NewString()
		}
		if act.CreatedAt.IsZero() {
			act.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, act); err != nil {
			return fmt.Errorf("insert enrolment activity: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace activities: %w", err)
	}
	return nil
}
