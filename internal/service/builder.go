package service

import "github.com/mcpower/monash-timetabler/internal/models"

// BuildTimetable writes every session of the selected options into a fresh grid.
// Combinations are expected to be clash-free; for anything else later groups overwrite
// earlier ones and unknown option indexes are skipped.
func BuildTimetable(cat *Catalog, comb models.Combination) models.Timetable {
	var tt models.Timetable
	for g, idx := range comb {
		if g >= len(cat.groups) || idx < 0 || idx >= len(cat.groups[g].Options) {
			continue
		}
		group := cat.groups[g]
		cell := models.OccupiedBy(group.ID)
		for _, s := range group.Options[idx].Sessions {
			for block := s.Start; block < s.End() && block < models.BlocksPerDay; block++ {
				tt[s.Day][block] = cell
			}
		}
	}
	return tt
}
