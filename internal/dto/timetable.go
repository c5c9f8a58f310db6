package dto

import "github.com/mcpower/monash-timetabler/internal/models"

// ActivityRequest is one raw offered class as scraped from the portal.
type ActivityRequest struct {
	SubjectCode  string  `json:"subjectCode" validate:"required"`
	GroupCode    string  `json:"groupCode" validate:"required"`
	ActivityCode string  `json:"activityCode" validate:"required"`
	DayOfWeek    string  `json:"dayOfWeek" validate:"required"`
	StartTime    string  `json:"startTime" validate:"required"`
	Duration     int     `json:"duration" validate:"required,min=30"`
	Location     *string `json:"location"`
}

// ReplaceActivitiesRequest replaces the stored activities of an enrolment.
type ReplaceActivitiesRequest struct {
	Activities []ActivityRequest `json:"activities" validate:"required,min=1,dive"`
}

// GroupRef names an enrolment group.
type GroupRef struct {
	Subject string `json:"subject" validate:"required"`
	Group   string `json:"group" validate:"required"`
}

// RankRequest starts a ranking run. Either enrolmentId or inline activities must be given.
type RankRequest struct {
	EnrolmentID    string            `json:"enrolmentId" validate:"required_without=Activities"`
	Activities     []ActivityRequest `json:"activities" validate:"omitempty,dive"`
	EnrolledGroups []GroupRef        `json:"enrolledGroups" validate:"omitempty,dive"`
	EarlyBefore    string            `json:"earlyBefore"`
	LateFrom       string            `json:"lateFrom"`
	TargetStart    string            `json:"targetStart"`
	FocusDays      []string          `json:"focusDays"`
	Criteria       []string          `json:"criteria" validate:"omitempty,max=16"`
}

// RankSubmissionResponse acknowledges a queued ranking.
type RankSubmissionResponse struct {
	RankingID    string                 `json:"rankingId"`
	Status       models.RankingStatus   `json:"status"`
	Groups       int                    `json:"groups"`
	Combinations uint64                 `json:"combinations"`
	Excluded     []models.ExcludedGroup `json:"excluded,omitempty"`
}

// RankingStatusResponse reports progress of a ranking.
type RankingStatusResponse struct {
	RankingID string               `json:"rankingId"`
	Status    models.RankingStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
	Count     int                  `json:"count"`
	Stats     *models.RankingStats `json:"stats,omitempty"`
}

// Selection shows which option was chosen for a group.
type Selection struct {
	Group    models.GroupID   `json:"group"`
	Option   int              `json:"option"`
	Sessions []models.Session `json:"sessions"`
}

// RankedTimetableSummary is a list entry of a ranking.
type RankedTimetableSummary struct {
	Index       int                `json:"index"`
	Combination models.Combination `json:"combination"`
	Score       []float64          `json:"score"`
}

// TimetableResponse is a fully materialised timetable.
type TimetableResponse struct {
	Index       int                `json:"index"`
	Combination models.Combination `json:"combination"`
	Score       []float64          `json:"score,omitempty"`
	Selections  []Selection        `json:"selections"`
	Grid        models.Timetable   `json:"grid"`
}

// RebuildRequest asks for the grid of an arbitrary combination.
type RebuildRequest struct {
	Combination []int `json:"combination" validate:"required,min=1"`
}

// RankingListQuery paginates ranked timetables.
type RankingListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
