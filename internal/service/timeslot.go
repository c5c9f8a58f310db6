package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

var dayNameIndex = map[string]int{
	"MON":       0,
	"MONDAY":    0,
	"TUE":       1,
	"TUESDAY":   1,
	"WED":       2,
	"WEDNESDAY": 2,
	"THU":       3,
	"THURSDAY":  3,
	"FRI":       4,
	"FRIDAY":    4,
}

// ParseDay resolves a day name ("Mon", "Tuesday") or index ("0".."4").
func ParseDay(raw string) (int, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if day, ok := dayNameIndex[value]; ok {
		return day, nil
	}
	if day, err := strconv.Atoi(value); err == nil && day >= 0 && day < models.Days {
		return day, nil
	}
	return 0, appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("unknown day %q", raw))
}

// ParseStartTime converts a 24h "HH:MM" (or "HH:MM:SS") start time into a block index.
func ParseStartTime(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, malformedTime(raw, "expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, malformedTime(raw, "invalid hour")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, malformedTime(raw, "invalid minute")
	}
	if len(parts) == 3 && strings.TrimLeft(parts[2], "0") != "" {
		return 0, malformedTime(raw, "seconds must be zero")
	}
	block, err := blockFromClock(hour, minute)
	if err != nil {
		return 0, malformedTime(raw, err.Error())
	}
	if block >= models.BlocksPerDay {
		return 0, malformedTime(raw, "session cannot start at or after 20:00")
	}
	return block, nil
}

// DurationBlocks converts minutes into whole blocks.
func DurationBlocks(minutes int) (int, error) {
	if minutes <= 0 || minutes%models.BlockMinutes != 0 {
		return 0, appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("duration %d is not a positive multiple of %d minutes", minutes, models.BlockMinutes))
	}
	return minutes / models.BlockMinutes, nil
}

// NormalizeSession builds a session from portal-style values and checks it fits the day.
func NormalizeSession(day, start string, minutes int) (models.Session, error) {
	dayIdx, err := ParseDay(day)
	if err != nil {
		return models.Session{}, err
	}
	startBlock, err := ParseStartTime(start)
	if err != nil {
		return models.Session{}, err
	}
	duration, err := DurationBlocks(minutes)
	if err != nil {
		return models.Session{}, err
	}
	session := models.Session{Day: dayIdx, Start: startBlock, Duration: duration}
	if err := ValidateSession(session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// ValidateSession checks an already normalised session against the 5x24 grid.
func ValidateSession(s models.Session) error {
	switch {
	case s.Day < 0 || s.Day >= models.Days:
		return appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("day %d out of range", s.Day))
	case s.Start < 0 || s.Start >= models.BlocksPerDay:
		return appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("start block %d out of range", s.Start))
	case s.Duration <= 0:
		return appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("duration %d must be positive", s.Duration))
	case s.End() > models.BlocksPerDay:
		return appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("session %s+%d runs past 20:00", models.BlockLabel(s.Start), s.Duration))
	}
	return nil
}

// ParseTimeOfDay parses a loosely written preference time into a block boundary.
// Accepted forms: "9am", "9:30am", "3:30PM", "11:00AM", "13:30", "11" (11am), "14" (2pm).
// The result may be 24, meaning 20:00.
func ParseTimeOfDay(raw string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	pm := false
	switch {
	case strings.HasSuffix(value, "am"):
		value = strings.TrimSpace(strings.TrimSuffix(value, "am"))
	case strings.HasSuffix(value, "pm"):
		value = strings.TrimSpace(strings.TrimSuffix(value, "pm"))
		pm = true
	}

	parts := strings.Split(value, ":")
	if len(parts) > 2 {
		return 0, malformedTime(raw, "more than one colon")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, malformedTime(raw, "invalid hour")
	}
	minute := 0
	if len(parts) == 2 {
		if minute, err = strconv.Atoi(parts[1]); err != nil {
			return 0, malformedTime(raw, "invalid minute")
		}
	}
	if pm && hour != 12 {
		hour += 12
	}
	block, err := blockFromClock(hour, minute)
	if err != nil {
		return 0, malformedTime(raw, err.Error())
	}
	return block, nil
}

func blockFromClock(hour, minute int) (int, error) {
	if minute != 0 && minute != 30 {
		return 0, fmt.Errorf("minutes must be 00 or 30")
	}
	block := (hour-models.FirstBlockHour)*2 + minute/models.BlockMinutes
	if block < 0 || block > models.BlocksPerDay {
		return 0, fmt.Errorf("outside 08:00-20:00")
	}
	return block, nil
}

func malformedTime(raw, reason string) error {
	return appErrors.Clone(appErrors.ErrMalformedTime, fmt.Sprintf("malformed time %q: %s", raw, reason))
}
