package models

import "time"

// RankingStatus tracks asynchronous ranking jobs.
type RankingStatus string

const (
	RankingStatusQueued  RankingStatus = "QUEUED"
	RankingStatusRunning RankingStatus = "RUNNING"
	RankingStatusReady   RankingStatus = "READY"
	RankingStatusFailed  RankingStatus = "FAILED"
)

// ExcludedGroup is a group dropped from the catalog together with the reason.
type ExcludedGroup struct {
	Group  GroupID `json:"group"`
	Reason string  `json:"reason"`
}

// RankingStats explains how a ranking was produced.
type RankingStats struct {
	Groups       int             `json:"groups"`
	Combinations uint64          `json:"combinations"`
	Valid        uint64          `json:"valid"`
	Rejected     uint64          `json:"rejected"`
	Excluded     []ExcludedGroup `json:"excluded,omitempty"`
	Duration     time.Duration   `json:"duration"`
}

// Palette holds display colours: a hue per subject and a value per group code.
type Palette struct {
	SubjectHues map[string]int `json:"subject_hues"`
	GroupValues map[string]int `json:"group_values"`
}

// Pagination describes a page of a ranked listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
