package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

// ErrNotConfigured is returned while no weekly schedule has been saved.
var ErrNotConfigured = errors.New("weekly schedule not configured")

const cacheKey = "weekly"

// Service owns the business calendar. Reads go through a short lived cache
// that every write through this service refreshes.
type Service struct {
	repo  store.ScheduleRepository
	cache *expirable.LRU[string, domain.WeeklySchedule]

	// mu serializes read-modify-write of the calendar within this process.
	mu sync.Mutex
}

// NewService builds the service. A non-positive ttl disables caching.
func NewService(repo store.ScheduleRepository, ttl time.Duration) *Service {
	s := &Service{repo: repo}
	if ttl > 0 {
		s.cache = expirable.NewLRU[string, domain.WeeklySchedule](1, nil, ttl)
	}
	return s
}

func (s *Service) Get(ctx context.Context) (domain.WeeklySchedule, error) {
	if s.cache != nil {
		if ws, ok := s.cache.Get(cacheKey); ok {
			return ws, nil
		}
	}
	ws, err := s.load(ctx)
	if err != nil {
		return domain.WeeklySchedule{}, err
	}
	s.remember(ws)
	return ws, nil
}

// SetDay sets the opening hours of one weekday. When no schedule exists yet
// the other days start closed.
func (s *Service) SetDay(ctx context.Context, day domain.Weekday, open, close domain.TimeOfDay) (domain.WeeklySchedule, error) {
	return s.update(ctx, func(ws *domain.WeeklySchedule) error {
		return ws.Set(day, open, close)
	})
}

func (s *Service) CloseDay(ctx context.Context, day domain.Weekday) (domain.WeeklySchedule, error) {
	return s.update(ctx, func(ws *domain.WeeklySchedule) error {
		return ws.CloseDay(day)
	})
}

// InitDefaults saves the default schedule unless one already exists. It
// reports whether the default was written.
func (s *Service) InitDefaults(ctx context.Context) (domain.WeeklySchedule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.load(ctx)
	if err == nil {
		s.remember(ws)
		return ws, false, nil
	}
	if !errors.Is(err, ErrNotConfigured) {
		return domain.WeeklySchedule{}, false, err
	}

	ws = domain.DefaultWeeklySchedule()
	if err := s.repo.SaveSchedule(ctx, ws); err != nil {
		return domain.WeeklySchedule{}, false, err
	}
	s.remember(ws)
	return ws, true, nil
}

func (s *Service) update(ctx context.Context, fn func(ws *domain.WeeklySchedule) error) (domain.WeeklySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.load(ctx)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return domain.WeeklySchedule{}, err
	}
	if err := fn(&ws); err != nil {
		return domain.WeeklySchedule{}, err
	}
	if err := s.repo.SaveSchedule(ctx, ws); err != nil {
		s.forget()
		return domain.WeeklySchedule{}, err
	}
	s.remember(ws)
	return ws, nil
}

func (s *Service) load(ctx context.Context) (domain.WeeklySchedule, error) {
	ws, err := s.repo.LoadSchedule(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WeeklySchedule{}, ErrNotConfigured
		}
		return domain.WeeklySchedule{}, err
	}
	return ws, nil
}

func (s *Service) remember(ws domain.WeeklySchedule) {
	if s.cache != nil {
		s.cache.Add(cacheKey, ws)
	}
}

func (s *Service) forget() {
	if s.cache != nil {
		s.cache.Remove(cacheKey)
	}
}
