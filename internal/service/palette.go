package service

import (
	"math"
	"sort"

	"github.com/mcpower/monash-timetabler/internal/models"
)

const (
	// fewChoicesThreshold separates effectively single-option groups (lectures) from the rest.
	fewChoicesThreshold = 1.5
	fewChoicesValue     = 10
	minGroupValue       = 25
	maxGroupValue       = 75
)

// AssignPalette spreads subject hues evenly around the colour wheel and gives each group
// code a value: dark for groups with next to no choice, lighter the more options it offers.
func AssignPalette(cat *Catalog) models.Palette {
	subjects := cat.Subjects()
	hues := make(map[string]int, len(subjects))
	for i, subject := range subjects {
		hues[subject] = int(math.Round(float64(i) * 360 / float64(len(subjects))))
	}

	counts := make(map[string][]float64)
	for _, g := range cat.groups {
		counts[g.ID.Group] = append(counts[g.ID.Group], float64(len(g.Options)))
	}
	averages := make(map[string]float64, len(counts))
	names := make([]string, 0, len(counts))
	for name, values := range counts {
		averages[name] = Average(values)
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if averages[names[i]] == averages[names[j]] {
			return names[i] < names[j]
		}
		return averages[names[i]] < averages[names[j]]
	})

	values := make(map[string]int, len(names))
	var spread []string
	for _, name := range names {
		if averages[name] < fewChoicesThreshold {
			values[name] = fewChoicesValue
			continue
		}
		spread = append(spread, name)
	}
	switch len(spread) {
	case 0:
	case 1:
		values[spread[0]] = (minGroupValue + maxGroupValue) / 2
	default:
		step := float64(maxGroupValue-minGroupValue) / float64(len(spread)-1)
		for i, name := range spread {
			values[name] = minGroupValue + int(math.Round(float64(i)*step))
		}
	}

	return models.Palette{SubjectHues: hues, GroupValues: values}
}
