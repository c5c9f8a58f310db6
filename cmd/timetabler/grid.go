package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcpower/monash-timetabler/internal/models"
	"github.com/mcpower/monash-timetabler/internal/service"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

const emptyCell = "."

// renderGrid prints the weekday grid, trimmed to the blocks between the earliest and latest
// class of the week.
func renderGrid(w io.Writer, tt models.Timetable) error {
	first, last := occupiedRange(tt)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(models.DayNames[:], "\t"))
	for block := first; block <= last; block++ {
		cells := make([]string, models.Days)
		for day := 0; day < models.Days; day++ {
			cells[day] = cellLabel(tt[day][block])
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", models.BlockLabel(block), strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func occupiedRange(tt models.Timetable) (int, int) {
	first, last := -1, -1
	for block := 0; block < models.BlocksPerDay; block++ {
		for day := 0; day < models.Days; day++ {
			if !tt[day][block].Occupied {
				continue
			}
			if first < 0 {
				first = block
			}
			last = block
		}
	}
	if first < 0 {
		return 0, -1
	}
	return first, last
}

func cellLabel(cell models.Cell) string {
	if !cell.Occupied {
		return emptyCell
	}
	return cell.Group.Subject + " " + cell.Group.Group
}

// printPlan reports what is about to be enumerated, before any candidate is examined.
func printPlan(w io.Writer, groups int, warnings []service.GroupWarning, combinations uint64) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "excluded: %s (%s)\n", warning.Group, appErrors.FromError(warning.Err).Message)
	}
	fmt.Fprintf(w, "enumerating %d combinations of %d groups\n", combinations, groups)
}

func printStats(w io.Writer, stats models.RankingStats) {
	fmt.Fprintf(w, "groups: %d\n", stats.Groups)
	fmt.Fprintf(w, "combinations: %d\n", stats.Combinations)
	fmt.Fprintf(w, "valid: %d (rejected %d)\n", stats.Valid, stats.Rejected)
	for _, excluded := range stats.Excluded {
		fmt.Fprintf(w, "excluded: %s (%s)\n", excluded.Group, excluded.Reason)
	}
	fmt.Fprintf(w, "took: %s\n", stats.Duration)
}
