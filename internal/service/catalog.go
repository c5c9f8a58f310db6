package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

// GroupCandidates is the raw option list for one group before deduplication.
type GroupCandidates struct {
	ID      models.GroupID
	Options []models.Option
}

// GroupWarning reports a group that was left out of the catalog.
type GroupWarning struct {
	Group models.GroupID
	Err   error
}

func (w GroupWarning) Error() string {
	return fmt.Sprintf("%s: %v", w.Group, w.Err)
}

// Catalog is the deduplicated set of options per group. It is never mutated after
// construction; accessors hand out copies.
type Catalog struct {
	groups []models.CatalogGroup
}

// NewCatalog sorts sessions inside every option, collapses structurally identical options
// and drops groups that end up with no options. Session values outside the grid are a hard
// error.
func NewCatalog(candidates []GroupCandidates) (*Catalog, []GroupWarning, error) {
	order := make([]models.GroupID, 0, len(candidates))
	merged := make(map[models.GroupID][]models.Option, len(candidates))
	for _, candidate := range candidates {
		if _, seen := merged[candidate.ID]; !seen {
			order = append(order, candidate.ID)
			merged[candidate.ID] = nil
		}
		merged[candidate.ID] = append(merged[candidate.ID], candidate.Options...)
	}

	cat := &Catalog{groups: make([]models.CatalogGroup, 0, len(order))}
	var warnings []GroupWarning
	for _, id := range order {
		options, err := dedupeOptions(merged[id])
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, fmt.Sprintf("invalid session in %s", id))
		}
		if len(options) == 0 {
			warnings = append(warnings, GroupWarning{Group: id, Err: appErrors.Clone(appErrors.ErrEmptyOptionSet, fmt.Sprintf("group %s has no options", id))})
			continue
		}
		cat.groups = append(cat.groups, models.CatalogGroup{ID: id, Options: options})
	}
	return cat, warnings, nil
}

func dedupeOptions(candidates []models.Option) ([]models.Option, error) {
	seen := make(map[string]bool, len(candidates))
	result := make([]models.Option, 0, len(candidates))
	for _, candidate := range candidates {
		if len(candidate.Sessions) == 0 {
			continue
		}
		for _, s := range candidate.Sessions {
			if err := ValidateSession(s); err != nil {
				return nil, err
			}
		}
		option := models.NewOption(candidate.Sessions...)
		key := option.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, option)
	}
	return result, nil
}

// CatalogFromActivities normalises raw portal activities into a catalog. Activities sharing a
// repeat number ("03-P1", "03-P2") become one option. Groups listed in enrolled but without any
// activity are reported as empty.
func CatalogFromActivities(activities []models.Activity, enrolled ...models.GroupID) (*Catalog, []GroupWarning, error) {
	order := make([]models.GroupID, 0, len(enrolled))
	repeats := make(map[models.GroupID]map[int][]models.Session)
	track := func(id models.GroupID) {
		if _, ok := repeats[id]; !ok {
			order = append(order, id)
			repeats[id] = make(map[int][]models.Session)
		}
	}
	for _, id := range enrolled {
		track(id)
	}

	for _, act := range activities {
		id := act.GroupID()
		track(id)
		repeat, err := parseRepeat(act.ActivityCode)
		if err != nil {
			return nil, nil, err
		}
		session, err := NormalizeSession(act.DayOfWeek, act.StartTime, act.Duration)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, fmt.Sprintf("activity %s %s", id, act.ActivityCode))
		}
		repeats[id][repeat] = append(repeats[id][repeat], session)
	}

	candidates := make([]GroupCandidates, 0, len(order))
	for _, id := range order {
		numbers := make([]int, 0, len(repeats[id]))
		for n := range repeats[id] {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)
		options := make([]models.Option, 0, len(numbers))
		for _, n := range numbers {
			options = append(options, models.NewOption(repeats[id][n]...))
		}
		candidates = append(candidates, GroupCandidates{ID: id, Options: options})
	}
	return NewCatalog(candidates)
}

func parseRepeat(code string) (int, error) {
	head := strings.SplitN(strings.TrimSpace(code), "-", 2)[0]
	repeat, err := strconv.Atoi(head)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid activity code %q", code))
	}
	return repeat, nil
}

// Len returns the number of groups in the catalog.
func (c *Catalog) Len() int {
	return len(c.groups)
}

// Groups returns a copy of the catalog groups.
func (c *Catalog) Groups() []models.CatalogGroup {
	out := make([]models.CatalogGroup, len(c.groups))
	for i := range c.groups {
		out[i] = c.Group(i)
	}
	return out
}

// Group returns a copy of the i-th group.
func (c *Catalog) Group(i int) models.CatalogGroup {
	g := c.groups[i]
	options := make([]models.Option, len(g.Options))
	for j, o := range g.Options {
		options[j] = models.NewOption(o.Sessions...)
	}
	return models.CatalogGroup{ID: g.ID, Options: options}
}

// OptionCounts returns the option count per group in catalog order.
func (c *Catalog) OptionCounts() []int {
	counts := make([]int, len(c.groups))
	for i, g := range c.groups {
		counts[i] = len(g.Options)
	}
	return counts
}

// Subjects returns the distinct subject codes in sorted order.
func (c *Catalog) Subjects() []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, g := range c.groups {
		if !seen[g.ID.Subject] {
			seen[g.ID.Subject] = true
			subjects = append(subjects, g.ID.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}
