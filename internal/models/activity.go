package models

import "time"

// Activity is a raw offered class as published by the timetabling portal.
// ActivityCode follows the portal convention "<repeat>" or "<repeat>-P<part>";
// parts sharing a repeat number form a single option.
type Activity struct {
	ID           string    `db:"id" json:"id"`
	EnrolmentID  string    `db:"enrolment_id" json:"enrolment_id"`
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	GroupCode    string    `db:"group_code" json:"group_code"`
	ActivityCode string    `db:"activity_code" json:"activity_code"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	Duration     int       `db:"duration" json:"duration"`
	Location     *string   `db:"location" json:"location,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GroupID returns the group the activity belongs to.
func (a Activity) GroupID() GroupID {
	return GroupID{Subject: a.SubjectCode, Group: a.GroupCode}
}
