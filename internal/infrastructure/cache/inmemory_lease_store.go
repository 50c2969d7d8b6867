package cache

import (
	"context"
	"sync"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
)

// InMemoryLeaseStore grants leases within one process. Suitable for a
// single instance running the LocalQueue, and for tests.
type InMemoryLeaseStore struct {
	mu        sync.Mutex
	leases    map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryLeaseStore creates a store and starts its expiry sweep
func NewInMemoryLeaseStore() *InMemoryLeaseStore {
	s := &InMemoryLeaseStore{
		leases:   make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(time.Minute)
	return s
}

// Acquire takes key unless an unexpired lease exists
func (s *InMemoryLeaseStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, held := s.leases[key]; held && now.Before(until) {
		return false, nil
	}
	s.leases[key] = now.Add(ttl)
	return true, nil
}

// Release drops key
func (s *InMemoryLeaseStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, key)
	return nil
}

// Size returns the number of tracked leases, expired ones included until
// the next sweep
func (s *InMemoryLeaseStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leases)
}

// Close stops the sweep. Safe to call more than once.
func (s *InMemoryLeaseStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryLeaseStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryLeaseStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, until := range s.leases {
		if !now.Before(until) {
			delete(s.leases, key)
		}
	}
}

var _ commission.LeaseStore = (*InMemoryLeaseStore)(nil)
