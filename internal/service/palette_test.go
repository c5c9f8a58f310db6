package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignPaletteSpreadsSubjectHues(t *testing.T) {
	cat := mustCatalog(t,
		candidates("MTH1030", "Lecture", opt(sess(0, 0, 1))),
		candidates("FIT2004", "Lecture", opt(sess(1, 0, 1))),
		candidates("ENG1005", "Lecture", opt(sess(2, 0, 1))),
		candidates("FIT1045", "Lecture", opt(sess(3, 0, 1))),
	)

	palette := AssignPalette(cat)
	assert.Equal(t, map[string]int{"ENG1005": 0, "FIT1045": 90, "FIT2004": 180, "MTH1030": 270}, palette.SubjectHues)
}

func TestAssignPaletteGroupValues(t *testing.T) {
	cat := mustCatalog(t,
		candidates("FIT2004", "Lecture", opt(sess(0, 0, 1))),
		candidates("MTH1030", "Lecture", opt(sess(0, 2, 1)), opt(sess(1, 2, 1))),
		candidates("FIT2004", "Workshop", opt(sess(0, 4, 1)), opt(sess(1, 4, 1))),
		candidates("FIT2004", "Lab", opt(sess(2, 0, 1)), opt(sess(2, 2, 1)), opt(sess(2, 4, 1)), opt(sess(2, 6, 1))),
		candidates("MTH1030", "Applied", opt(sess(3, 0, 1)), opt(sess(3, 2, 1)), opt(sess(3, 4, 1))),
	)

	palette := AssignPalette(cat)
	// Lecture averages 1.5 across subjects, so it is spread with the rest.
	assert.Equal(t, map[string]int{
		"Lecture":  25,
		"Workshop": 42,
		"Applied":  58,
		"Lab":      75,
	}, palette.GroupValues)
}

func TestAssignPaletteSingleOptionGroupsAreDark(t *testing.T) {
	cat := mustCatalog(t,
		candidates("FIT2004", "Lecture", opt(sess(0, 0, 1))),
		candidates("FIT2004", "Lab", opt(sess(1, 0, 1)), opt(sess(1, 2, 1))),
	)

	palette := AssignPalette(cat)
	assert.Equal(t, 10, palette.GroupValues["Lecture"])
	assert.Equal(t, 50, palette.GroupValues["Lab"])
	assert.Equal(t, map[string]int{"FIT2004": 0}, palette.SubjectHues)
}

func TestAssignPaletteEmptyCatalog(t *testing.T) {
	palette := AssignPalette(mustCatalog(t))

	assert.Empty(t, palette.SubjectHues)
	assert.Empty(t, palette.GroupValues)
}
