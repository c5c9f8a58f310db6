package service

import (
	"fmt"
	"math/bits"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

// Enumerator walks the Cartesian product of catalog options, one option per group.
type Enumerator struct {
	groups []models.CatalogGroup
	counts []int
}

// NewEnumerator prepares an enumerator over the catalog.
func NewEnumerator(cat *Catalog) *Enumerator {
	return &Enumerator{groups: cat.groups, counts: cat.OptionCounts()}
}

// Size is the product of all option counts.
func (e *Enumerator) Size() (uint64, error) {
	return productSize(e.counts)
}

func productSize(counts []int) (uint64, error) {
	size := uint64(1)
	for _, count := range counts {
		hi, lo := bits.Mul64(size, uint64(count))
		if hi != 0 {
			return 0, appErrors.Clone(appErrors.ErrCombinationSpaceTooLarge, "combination count overflows uint64")
		}
		size = lo
	}
	return size, nil
}

// Iterate returns a fresh iterator over the whole product space.
func (e *Enumerator) Iterate() *CombinationIterator {
	it := e.newIterator()
	if size, err := e.Size(); err == nil {
		it.bounded = true
		it.remaining = size
	}
	return it
}

// IterateRange returns an iterator over product indexes [from, to). Index 0 selects option 0
// of every group and the last group varies fastest.
func (e *Enumerator) IterateRange(from, to uint64) (*CombinationIterator, error) {
	size, err := e.Size()
	if err != nil {
		return nil, err
	}
	if from > to || to > size {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range [%d, %d) outside product of size %d", from, to, size))
	}
	it := e.newIterator()
	it.bounded = true
	it.remaining = to - from
	rest := from
	for g := len(e.counts) - 1; g >= 0; g-- {
		n := uint64(e.counts[g])
		it.digits[g] = int(rest % n)
		rest /= n
	}
	return it, nil
}

func (e *Enumerator) newIterator() *CombinationIterator {
	return &CombinationIterator{e: e, digits: make([]int, len(e.counts))}
}

// CombinationIterator lazily yields clash-free combinations in product order.
type CombinationIterator struct {
	e         *Enumerator
	digits    []int
	bounded   bool
	remaining uint64
	done      bool
	visited   uint64
	rejected  uint64
	byDay     [models.Days][]models.Session

	check      func() error
	interval   uint64
	untilCheck uint64
	err        error
}

// Interrupt makes Next call check before the first candidate and then every interval
// candidates, rejected ones included. A non-nil result ends the iteration and is kept in Err.
func (it *CombinationIterator) Interrupt(interval uint64, check func() error) {
	if interval == 0 {
		interval = 1
	}
	it.check = check
	it.interval = interval
	it.untilCheck = 0
}

// Err is the error that interrupted the iteration, if any.
func (it *CombinationIterator) Err() error {
	return it.err
}

// Next returns the next valid combination, or false once the range is exhausted.
func (it *CombinationIterator) Next() (models.Combination, bool) {
	for !it.done {
		if it.bounded && it.remaining == 0 {
			it.done = true
			break
		}
		if it.check != nil {
			if it.untilCheck == 0 {
				if err := it.check(); err != nil {
					it.err = err
					it.done = true
					break
				}
				it.untilCheck = it.interval
			}
			it.untilCheck--
		}
		valid := it.clashFree()
		var comb models.Combination
		if valid {
			comb = make(models.Combination, len(it.digits))
			copy(comb, it.digits)
		}
		it.advance()
		it.visited++
		if it.bounded {
			it.remaining--
		}
		if valid {
			return comb, true
		}
		it.rejected++
	}
	return nil, false
}

// Visited counts candidates examined so far.
func (it *CombinationIterator) Visited() uint64 {
	return it.visited
}

// Rejected counts candidates dropped because of a clash.
func (it *CombinationIterator) Rejected() uint64 {
	return it.rejected
}

func (it *CombinationIterator) advance() {
	for g := len(it.digits) - 1; g >= 0; g-- {
		it.digits[g]++
		if it.digits[g] < it.e.counts[g] {
			return
		}
		it.digits[g] = 0
	}
	it.done = true
}

func (it *CombinationIterator) clashFree() bool {
	for d := range it.byDay {
		it.byDay[d] = it.byDay[d][:0]
	}
	for g, idx := range it.digits {
		for _, s := range it.e.groups[g].Options[idx].Sessions {
			it.byDay[s.Day] = append(it.byDay[s.Day], s)
		}
	}
	for d := range it.byDay {
		if !sessionsClashFree(it.byDay[d]) {
			return false
		}
	}
	return true
}

// sessionsClashFree sorts one day's sessions by start in place and checks neighbours.
// A session may start exactly when the previous one ends.
func sessionsClashFree(sessions []models.Session) bool {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && startsBefore(sessions[j], sessions[j-1]); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].Start < sessions[i-1].End() {
			return false
		}
	}
	return true
}

func startsBefore(a, b models.Session) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Duration < b.Duration
}

// Valid reports whether the combination selects an existing option for every group and
// none of the selected sessions overlap.
func Valid(cat *Catalog, comb models.Combination) bool {
	if len(comb) != len(cat.groups) {
		return false
	}
	var byDay [models.Days][]models.Session
	for g, idx := range comb {
		if idx < 0 || idx >= len(cat.groups[g].Options) {
			return false
		}
		for _, s := range cat.groups[g].Options[idx].Sessions {
			byDay[s.Day] = append(byDay[s.Day], s)
		}
	}
	for d := range byDay {
		if !sessionsClashFree(byDay[d]) {
			return false
		}
	}
	return true
}
