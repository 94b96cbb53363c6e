// Package pending remembers the last link each owner submitted, until it is
// replaced, cleared or expires.
package pending

import (
	"context"
	"sync"
	"time"
)

const shardCount = 32

type Request struct {
	OwnerID   int64
	URL       string
	CreatedAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[int64]Request
}

// Store is keyed by owner. Owners are spread over independent shards, so a
// write for one owner never waits on a lock shared by every owner.
type Store struct {
	shards [shardCount]*shard
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates an empty store. A ttl of zero keeps entries until they are
// overwritten.
func NewStore(ttl time.Duration) *Store {
	s := &Store{ttl: ttl, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[int64]Request)}
	}
	return s
}

func (s *Store) shardFor(owner int64) *shard {
	idx := owner % shardCount
	if idx < 0 {
		idx = -idx
	}
	return s.shards[idx]
}

// Put replaces whatever the owner had before. Empty urls are ignored.
func (s *Store) Put(owner int64, url string) Request {
	req := Request{OwnerID: owner, URL: url, CreatedAt: s.now()}
	if url == "" {
		return req
	}
	sh := s.shardFor(owner)
	sh.mu.Lock()
	sh.entries[owner] = req
	sh.mu.Unlock()
	return req
}

// Get reports false when the owner has nothing pending. That is the normal
// "ask for the link again" signal, not an error.
func (s *Store) Get(owner int64) (Request, bool) {
	sh := s.shardFor(owner)
	sh.mu.RLock()
	req, ok := sh.entries[owner]
	sh.mu.RUnlock()
	if !ok || s.expired(req) {
		return Request{}, false
	}
	return req, true
}

func (s *Store) Clear(owner int64) {
	sh := s.shardFor(owner)
	sh.mu.Lock()
	delete(sh.entries, owner)
	sh.mu.Unlock()
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for owner, req := range sh.entries {
			if s.expired(req) {
				delete(sh.entries, owner)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Janitor sweeps every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *Store) expired(req Request) bool {
	return s.ttl > 0 && s.now().Sub(req.CreatedAt) > s.ttl
}
