package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpower/monash-timetabler/internal/models"
)

func TestBuildTimetableMarksEveryBlock(t *testing.T) {
	cat := sampleCatalog(t)
	tt := BuildTimetable(cat, models.Combination{0, 2, 1})

	lecture := models.GroupID{Subject: "FIT2004", Group: "Lecture"}
	lab := models.GroupID{Subject: "FIT2004", Group: "Lab"}
	applied := models.GroupID{Subject: "MTH1030", Group: "Applied"}

	assert.Equal(t, models.OccupiedBy(lecture), tt[0][2])
	assert.Equal(t, models.OccupiedBy(lecture), tt[0][3])
	assert.Equal(t, models.EmptyCell, tt[0][4])
	for block := 0; block < 4; block++ {
		assert.Equal(t, models.OccupiedBy(lab), tt[2][block])
	}
	assert.Equal(t, models.OccupiedBy(applied), tt[3][6])
	assert.Equal(t, models.OccupiedBy(applied), tt[3][7])

	occupied := 0
	for day := 0; day < models.Days; day++ {
		occupied += tt.OccupiedBlocks(day)
	}
	assert.Equal(t, 8, occupied)
}

func TestBuildTimetableRoundTripsThroughCells(t *testing.T) {
	cat := sampleCatalog(t)
	for _, comb := range collect(NewEnumerator(cat).Iterate()) {
		tt := BuildTimetable(cat, comb)
		for g, idx := range comb {
			group := cat.Group(g)
			for _, s := range group.Options[idx].Sessions {
				for block := s.Start; block < s.End(); block++ {
					assert.Equal(t, group.ID, tt[s.Day][block].Group, "%v", comb)
				}
			}
		}
	}
}

func TestBuildTimetableSkipsUnknownOptions(t *testing.T) {
	cat := sampleCatalog(t)
	tt := BuildTimetable(cat, models.Combination{5, -1, 0})

	assert.Equal(t, 1, tt.OccupiedBlocks(1))
	assert.Equal(t, 0, tt.OccupiedBlocks(0))
}
