package service

import (
	"sync"
	"time"

	"github.com/mcpower/monash-timetabler/internal/models"
)

type rankingEntry struct {
	ID          string
	Status      models.RankingStatus
	Catalog     *Catalog
	Warnings    []GroupWarning
	Policy      ScoringPolicy
	Size        uint64
	Result      *Ranking
	Err         string
	RequestedAt time.Time
}

// RankingStore keeps rankings in memory for a limited time. Nothing outlives the process.
type RankingStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]rankingEntry
}

// NewRankingStore builds a store whose entries expire ttl after they were requested.
func NewRankingStore(ttl time.Duration) *RankingStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RankingStore{
		ttl:   ttl,
		items: make(map[string]rankingEntry),
	}
}

func (s *RankingStore) save(entry rankingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[entry.ID] = entry
}

func (s *RankingStore) get(id string) (rankingEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return rankingEntry{}, false
	}
	if time.Since(entry.RequestedAt) > s.ttl {
		s.delete(id)
		return rankingEntry{}, false
	}
	return entry, true
}

func (s *RankingStore) update(id string, mutate func(*rankingEntry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return false
	}
	mutate(&entry)
	s.items[id] = entry
	return true
}

func (s *RankingStore) delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (s *RankingStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.items {
		if time.Since(entry.RequestedAt) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
