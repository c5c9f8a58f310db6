package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

func TestParseDay(t *testing.T) {
	cases := map[string]int{"Mon": 0, "tuesday": 1, " WED ": 2, "Thu": 3, "FRIDAY": 4, "4": 4}
	for raw, want := range cases {
		got, err := ParseDay(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"Sat", "5", "-1", ""} {
		_, err := ParseDay(raw)
		assert.True(t, errors.Is(err, appErrors.ErrMalformedTime), raw)
	}
}

func TestParseStartTime(t *testing.T) {
	cases := map[string]int{"08:00": 0, "09:30": 3, "13:00:00": 10, "19:30": 23}
	for raw, want := range cases {
		got, err := ParseStartTime(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"07:30", "20:00", "09:15", "9", "ab:00", "10:00:30"} {
		_, err := ParseStartTime(raw)
		assert.True(t, errors.Is(err, appErrors.ErrMalformedTime), raw)
	}
}

func TestDurationBlocks(t *testing.T) {
	blocks, err := DurationBlocks(120)
	require.NoError(t, err)
	assert.Equal(t, 4, blocks)

	for _, minutes := range []int{0, -30, 45} {
		_, err := DurationBlocks(minutes)
		assert.Error(t, err, minutes)
	}
}

func TestNormalizeSession(t *testing.T) {
	s, err := NormalizeSession("Wed", "14:00", 90)
	require.NoError(t, err)
	assert.Equal(t, models.Session{Day: 2, Start: 12, Duration: 3}, s)

	_, err = NormalizeSession("Wed", "19:00", 120)
	assert.True(t, errors.Is(err, appErrors.ErrMalformedTime))
}

func TestValidateSession(t *testing.T) {
	assert.NoError(t, ValidateSession(models.Session{Day: 4, Start: 22, Duration: 2}))
	assert.Error(t, ValidateSession(models.Session{Day: 5, Start: 0, Duration: 1}))
	assert.Error(t, ValidateSession(models.Session{Day: 0, Start: 24, Duration: 1}))
	assert.Error(t, ValidateSession(models.Session{Day: 0, Start: 0, Duration: 0}))
	assert.Error(t, ValidateSession(models.Session{Day: 0, Start: 23, Duration: 2}))
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]int{
		"9am":     2,
		"9:30am":  3,
		"3:30PM":  15,
		"11:00AM": 6,
		"13:30":   11,
		"11":      6,
		"14":      12,
		"12pm":    8,
		"6pm":     20,
		"8pm":     24,
	}
	for raw, want := range cases {
		got, err := ParseTimeOfDay(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"7am", "9:15", "1:2:3", "noon", "9pm"} {
		_, err := ParseTimeOfDay(raw)
		assert.True(t, errors.Is(err, appErrors.ErrMalformedTime), raw)
	}
}
