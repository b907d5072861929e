package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/pkg/metrics"
)

// MemoryStore keeps results in process memory, indexed by id and athlete.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]assessment.Result
	byAthlete map[string]map[string]struct{}

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a memory store and starts its metrics updater,
// which stops with ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]assessment.Result),
		byAthlete:             make(map[string]map[string]struct{}),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, id string, r assessment.Result) (err error) {
	start := time.Now()
	defer func() { observe("put", start, err) }()

	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[id]; ok && prev.Record.AthleteID != r.Record.AthleteID {
		s.unindex(prev.Record.AthleteID, id)
	}
	s.byID[id] = r
	ids, ok := s.byAthlete[r.Record.AthleteID]
	if !ok {
		ids = make(map[string]struct{})
		s.byAthlete[r.Record.AthleteID] = ids
	}
	ids[id] = struct{}{}
	return nil
}

// must be called with s.mu held
func (s *MemoryStore) unindex(athleteID, id string) {
	ids := s.byAthlete[athleteID]
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.byAthlete, athleteID)
	}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (r assessment.Result, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	s.mu.RLock()
	r, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return assessment.Result{}, ErrNotFound
	}
	return r, nil
}

// ListByAthlete implements Store.ListByAthlete. Results submitted at the same
// instant are ordered by id.
func (s *MemoryStore) ListByAthlete(_ context.Context, athleteID string) (out []assessment.Result, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	s.mu.RLock()
	out = make([]assessment.Result, 0, len(s.byAthlete[athleteID]))
	for id := range s.byAthlete[athleteID] {
		out = append(out, s.byID[id])
	}
	s.mu.RUnlock()

	sortResults(out)
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreRecords(s.Count(ctx))
			}
		}
	}()
}

func sortResults(rs []assessment.Result) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i].Record, rs[j].Record
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
}
