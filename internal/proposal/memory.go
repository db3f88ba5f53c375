package proposal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/metrics"
)

// MemoryStore is the default in-process Store. Entries expire after the
// configured TTL, checked lazily on access and swept by a janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memKey]*Proposal
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	once    sync.Once
}

type memKey struct {
	session string
	token   string
}

// NewMemoryStore creates a store with the given TTL and starts the
// eviction janitor.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[memKey]*Proposal),
		ttl:     ttl,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Put(ctx context.Context, p *Proposal) error {
	s.mu.Lock()
	s.entries[memKey{p.SessionID, p.Token}] = p
	metrics.ProposalStoreSize.Set(float64(len(s.entries)))
	s.mu.Unlock()
	metrics.ProposalsStaged.Inc()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID, token string) (*Proposal, error) {
	s.mu.RLock()
	p, ok := s.entries[memKey{sessionID, token}]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrProposalNotFound
	}
	if s.expired(p) {
		s.evict(memKey{sessionID, token})
		return nil, ErrProposalNotFound
	}
	return p, nil
}

func (s *MemoryStore) Remove(ctx context.Context, sessionID, token string) error {
	key := memKey{sessionID, token}
	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
		metrics.ProposalStoreSize.Set(float64(len(s.entries)))
	}
	s.mu.Unlock()
	if !ok {
		return ErrProposalNotFound
	}
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) expired(p *Proposal) bool {
	return s.ttl > 0 && time.Since(p.CreatedAt) > s.ttl
}

func (s *MemoryStore) evict(key memKey) {
	s.mu.Lock()
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		metrics.ProposalStoreSize.Set(float64(len(s.entries)))
		metrics.ProposalsResolved.WithLabelValues("expired").Inc()
	}
	s.mu.Unlock()
}

func (s *MemoryStore) janitor() {
	interval := s.ttl
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	var stale []memKey
	s.mu.RLock()
	for k, p := range s.entries {
		if s.expired(p) {
			stale = append(stale, k)
		}
	}
	s.mu.RUnlock()
	for _, k := range stale {
		s.evict(k)
	}
	if len(stale) > 0 {
		s.logger.Info("Evicted expired proposals", zap.Int("count", len(stale)))
	}
}
