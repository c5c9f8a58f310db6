package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

const cancelCheckInterval = 1024

type rankingObserver interface {
	ObserveRanking(stats models.RankingStats)
}

// RankerConfig tunes the enumeration pass.
type RankerConfig struct {
	// Workers partitions the product space; values below 2 run sequentially.
	Workers int
	// MaxCombinations rejects catalogs whose product exceeds it. Zero disables the check.
	MaxCombinations uint64
}

// Ranker enumerates, scores and sorts every clash-free timetable of a catalog.
type Ranker struct {
	cfg     RankerConfig
	logger  *zap.Logger
	metrics rankingObserver
}

// NewRanker constructs a ranker.
func NewRanker(cfg RankerConfig, logger *zap.Logger, metrics rankingObserver) *Ranker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{cfg: cfg, logger: logger, metrics: metrics}
}

type rankedEntry struct {
	comb models.Combination
	key  ScoreKey
}

// Rank runs the whole pipeline. Excluded groups and the product size are logged before
// enumeration starts.
func (r *Ranker) Rank(ctx context.Context, cat *Catalog, warnings []GroupWarning, policy ScoringPolicy) (*Ranking, error) {
	if policy == nil {
		policy = NewDefaultPolicy()
	}
	started := time.Now()
	stats := models.RankingStats{Groups: cat.Len(), Excluded: excludedGroups(warnings)}
	for _, excluded := range stats.Excluded {
		r.logger.Warn("group excluded from catalog", zap.String("group", excluded.Group.String()), zap.String("reason", excluded.Reason))
	}

	size, err := r.CheckSize(cat)
	if err != nil {
		return nil, err
	}
	stats.Combinations = size
	r.logger.Info("enumerating timetables", zap.Int("groups", cat.Len()), zap.Uint64("combinations", size), zap.Int("excluded", len(stats.Excluded)))

	parts, err := r.enumerate(ctx, cat, size, policy)
	if err != nil {
		return nil, err
	}

	var entries []rankedEntry
	for _, part := range parts {
		entries = append(entries, part.entries...)
		stats.Valid += part.valid
		stats.Rejected += part.rejected
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key.Compare(entries[j].key) > 0
	})
	stats.Duration = time.Since(started)

	r.logger.Info("ranking complete",
		zap.Uint64("valid", stats.Valid),
		zap.Uint64("rejected", stats.Rejected),
		zap.Duration("duration", stats.Duration),
	)
	if r.metrics != nil {
		r.metrics.ObserveRanking(stats)
	}

	return &Ranking{
		catalog: cat,
		entries: entries,
		palette: AssignPalette(cat),
		stats:   stats,
	}, nil
}

// CheckSize returns the product size or an error when it exceeds the configured limit.
func (r *Ranker) CheckSize(cat *Catalog) (uint64, error) {
	size, err := NewEnumerator(cat).Size()
	if err != nil {
		return 0, err
	}
	if r.cfg.MaxCombinations > 0 && size > r.cfg.MaxCombinations {
		return 0, appErrors.Clone(appErrors.ErrCombinationSpaceTooLarge, fmt.Sprintf("%d combinations exceed the limit of %d", size, r.cfg.MaxCombinations))
	}
	return size, nil
}

type partition struct {
	entries  []rankedEntry
	valid    uint64
	rejected uint64
}

func (r *Ranker) enumerate(ctx context.Context, cat *Catalog, size uint64, policy ScoringPolicy) ([]partition, error) {
	workers := uint64(r.cfg.Workers)
	if workers > size {
		workers = size
	}
	if workers == 0 {
		workers = 1
	}
	enumerator := NewEnumerator(cat)
	parts := make([]partition, workers)
	chunk := size / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := uint64(0); w < workers; w++ {
		w := w
		from := w * chunk
		to := from + chunk
		if w == workers-1 {
			to = size
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("ranking worker %d panicked: %v", w, r)
				}
			}()
			it, err := enumerator.IterateRange(from, to)
			if err != nil {
				return err
			}
			part := &parts[w]
			it.Interrupt(cancelCheckInterval, gctx.Err)
			for {
				comb, ok := it.Next()
				if !ok {
					break
				}
				part.entries = append(part.entries, rankedEntry{comb: comb, key: policy.Key(BuildTimetable(cat, comb))})
			}
			if err := it.Err(); err != nil {
				return err
			}
			part.rejected = it.Rejected()
			part.valid = it.Visited() - it.Rejected()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func excludedGroups(warnings []GroupWarning) []models.ExcludedGroup {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]models.ExcludedGroup, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, models.ExcludedGroup{Group: w.Group, Reason: appErrors.FromError(w.Err).Message})
	}
	return out
}

// RankedTimetable is one position of a ranking.
type RankedTimetable struct {
	Index       int
	Combination models.Combination
	Timetable   models.Timetable
	Score       ScoreKey
}

// Ranking is the immutable result of a ranking run, best timetable first.
type Ranking struct {
	catalog *Catalog
	entries []rankedEntry
	palette models.Palette
	stats   models.RankingStats
}

// Len is the number of clash-free timetables.
func (r *Ranking) Len() int {
	return len(r.entries)
}

// At returns the timetable ranked at position i (0 is best). Grids are rebuilt on demand.
func (r *Ranking) At(i int) (RankedTimetable, error) {
	if i < 0 || i >= len(r.entries) {
		return RankedTimetable{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("timetable %d not found (have %d)", i, len(r.entries)))
	}
	entry := r.entries[i]
	comb := append(models.Combination(nil), entry.comb...)
	return RankedTimetable{
		Index:       i,
		Combination: comb,
		Timetable:   BuildTimetable(r.catalog, comb),
		Score:       append(ScoreKey(nil), entry.key...),
	}, nil
}

// Rebuild materialises any combination against the ranking's catalog.
func (r *Ranking) Rebuild(comb models.Combination) (models.Timetable, error) {
	if len(comb) != r.catalog.Len() {
		return models.Timetable{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("combination needs %d entries, got %d", r.catalog.Len(), len(comb)))
	}
	for g, idx := range comb {
		if idx < 0 || idx >= len(r.catalog.groups[g].Options) {
			return models.Timetable{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("option %d out of range for %s", idx, r.catalog.groups[g].ID))
		}
	}
	return BuildTimetable(r.catalog, comb), nil
}

// Catalog returns the catalog the ranking was computed from.
func (r *Ranking) Catalog() *Catalog {
	return r.catalog
}

// Palette returns a copy of the display palette.
func (r *Ranking) Palette() models.Palette {
	out := models.Palette{
		SubjectHues: make(map[string]int, len(r.palette.SubjectHues)),
		GroupValues: make(map[string]int, len(r.palette.GroupValues)),
	}
	for k, v := range r.palette.SubjectHues {
		out.SubjectHues[k] = v
	}
	for k, v := range r.palette.GroupValues {
		out.GroupValues[k] = v
	}
	return out
}

// Stats returns how the ranking was produced.
func (r *Ranking) Stats() models.RankingStats {
	stats := r.stats
	stats.Excluded = append([]models.ExcludedGroup(nil), r.stats.Excluded...)
	return stats
}
