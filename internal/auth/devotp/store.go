// Package devotp keeps plaintext codes in memory so local and test clients
// can complete a flow without a mailbox. It is never enabled in production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Entry is one captured code.
type Entry struct {
	ChallengeID string
	Identity    string
	Purpose     string
	Code        string
	ExpiresAt   time.Time
}

type Store interface {
	Put(ctx context.Context, e Entry)

	// Get returns the code for challengeID if present and not expired.
	Get(ctx context.Context, challengeID string) (code string, ok bool)

	// Latest returns the newest unexpired code captured for identity and
	// purpose. Password reset clients never see a challenge id.
	Latest(ctx context.Context, identity, purpose string) (code string, ok bool)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]Entry
	latest map[string]string // identity|purpose -> challenge id
	nowF   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Entry),
		latest: make(map[string]string),
		nowF:   time.Now,
	}
}

func latestKey(identity, purpose string) string { return identity + "|" + purpose }

func (s *MemoryStore) Put(_ context.Context, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict()
	s.byID[e.ChallengeID] = e
	s.latest[latestKey(e.Identity, e.Purpose)] = e.ChallengeID
}

func (s *MemoryStore) Get(_ context.Context, challengeID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[challengeID]
	if !ok {
		return "", false
	}
	if !e.ExpiresAt.After(s.nowF()) {
		delete(s.byID, challengeID)
		return "", false
	}
	return e.Code, true
}

func (s *MemoryStore) Latest(ctx context.Context, identity, purpose string) (string, bool) {
	s.mu.Lock()
	id, ok := s.latest[latestKey(identity, purpose)]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return s.Get(ctx, id)
}

// evict drops expired entries. Caller holds mu.
func (s *MemoryStore) evict() {
	now := s.nowF()
	for id, e := range s.byID {
		if !e.ExpiresAt.After(now) {
			delete(s.byID, id)
			if s.latest[latestKey(e.Identity, e.Purpose)] == id {
				delete(s.latest, latestKey(e.Identity, e.Purpose))
			}
		}
	}
}

var _ Store = (*MemoryStore)(nil)
