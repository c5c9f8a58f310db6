package models

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// Days covers Monday to Friday.
	Days = 5
	// BlocksPerDay is the number of 30-minute blocks between 08:00 and 20:00.
	BlocksPerDay = 24
	// BlockMinutes is the scheduling granularity.
	BlockMinutes = 30
	// FirstBlockHour is the wall-clock hour of block 0.
	FirstBlockHour = 8
)

// GroupID identifies an enrolment group within a subject, e.g. {FIT2004_CL_S1_DAY, Workshop}.
type GroupID struct {
	Subject string `json:"subject"`
	Group   string `json:"group"`
}

// String renders the id in the SUBJECT|Group form used by activity snapshots.
func (g GroupID) String() string {
	return g.Subject + "|" + g.Group
}

// ParseGroupID is the inverse of GroupID.String.
func ParseGroupID(raw string) (GroupID, error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return GroupID{}, fmt.Errorf("invalid group key %q", raw)
	}
	return GroupID{Subject: parts[0], Group: parts[1]}, nil
}

// Session is a single scheduled occurrence measured in blocks.
type Session struct {
	Day      int `json:"day"`
	Start    int `json:"start"`
	Duration int `json:"duration"`
}

// End returns the first block after the session.
func (s Session) End() int {
	return s.Start + s.Duration
}

func (s Session) less(o Session) bool {
	if s.Day != o.Day {
		return s.Day < o.Day
	}
	if s.Start != o.Start {
		return s.Start < o.Start
	}
	return s.Duration < o.Duration
}

// Option is one alternative a student can pick for a group. Sessions are kept sorted.
type Option struct {
	Sessions []Session `json:"sessions"`
}

// NewOption copies and sorts the given sessions by (day, start, duration).
func NewOption(sessions ...Session) Option {
	sorted := make([]Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })
	return Option{Sessions: sorted}
}

// Key returns a canonical representation; two options are equal iff their keys are equal.
func (o Option) Key() string {
	var b strings.Builder
	for i, s := range o.Sessions {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%d:%d+%d", s.Day, s.Start, s.Duration)
	}
	return b.String()
}

// CatalogGroup is a group together with its deduplicated options.
type CatalogGroup struct {
	ID      GroupID  `json:"id"`
	Options []Option `json:"options"`
}

// Combination selects one option index per catalog group, in catalog order.
type Combination []int

// Cell is either empty or occupied by a group.
type Cell struct {
	Occupied bool    `json:"occupied"`
	Group    GroupID `json:"group,omitempty"`
}

// EmptyCell is the zero cell.
var EmptyCell = Cell{}

// OccupiedBy returns a cell held by the given group.
func OccupiedBy(id GroupID) Cell {
	return Cell{Occupied: true, Group: id}
}

// Timetable is a Monday-Friday grid of 30-minute blocks.
type Timetable [Days][BlocksPerDay]Cell

// OccupiedBlocks counts occupied cells for a day.
func (t *Timetable) OccupiedBlocks(day int) int {
	count := 0
	for _, cell := range t[day] {
		if cell.Occupied {
			count++
		}
	}
	return count
}

// DayNames maps day indexes to short names.
var DayNames = [Days]string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// BlockLabel renders the wall-clock start of a block, e.g. 3 -> "09:30".
func BlockLabel(block int) string {
	minutes := FirstBlockHour*60 + block*BlockMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
