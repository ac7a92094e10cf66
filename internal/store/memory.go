package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/google/uuid"
)

// MemoryStore keeps plans in process memory. Plans are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[int]*StoredPlan
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans: make(map[int]*StoredPlan),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, p *plan.PlanOfStudy) (*StoredPlan, error) {
	if err := validatePlan(p); err != nil {
		return nil, err
	}

	stored := &StoredPlan{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Plan:      clonePlan(p),
	}

	s.mu.Lock()
	s.plans[p.Department.ID] = stored
	s.mu.Unlock()

	return cloneStored(stored), nil
}

func (s *MemoryStore) Get(_ context.Context, departmentID int) (*StoredPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.plans[departmentID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneStored(stored), nil
}

func (s *MemoryStore) Delete(_ context.Context, departmentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[departmentID]; !ok {
		return ErrNotFound
	}
	delete(s.plans, departmentID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*StoredPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StoredPlan, 0, len(s.plans))
	for _, stored := range s.plans {
		out = append(out, cloneStored(stored))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Plan.Department.ID < out[j].Plan.Department.ID
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func clonePlan(p *plan.PlanOfStudy) *plan.PlanOfStudy {
	c := plan.New(p.Department, p.MajorCode, p.Courses, p.Links)
	c.SchemaVersion = p.SchemaVersion
	return c
}

func cloneStored(s *StoredPlan) *StoredPlan {
	c := *s
	c.Plan = clonePlan(s.Plan)
	return &c
}
