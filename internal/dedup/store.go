package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"skylight.fyi/adwatch/internal/article"
)

// identityLength is the number of hex characters kept from the URL digest.
// Long enough to be practically collision-free across any realistic seen set
// while keeping persisted identity files small.
const identityLength = 12

// Identity returns the deterministic dedup key for a URL. It is a pure
// function of the string: same URL, same identity, across process restarts.
func Identity(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:identityLength]
}

// Store tracks which article identities have been seen, within a run and
// (via Seed) across persisted runs. Admit is the single atomic
// check-and-insert; concurrent admits for the same URL serialize here so
// exactly one of them wins.
type Store struct {
	mu         sync.RWMutex
	seenURLs   map[string]struct{}
	seenIDs    map[string]struct{}
	byIdentity map[string]*article.Article
}

func NewStore() *Store {
	return &Store{
		seenURLs:   make(map[string]struct{}),
		seenIDs:    make(map[string]struct{}),
		byIdentity: make(map[string]*article.Article),
	}
}

// Admit records the article as seen and returns true, or returns false when
// its identity is already present. URL and identity are inserted together,
// so the two seen sets never disagree.
func (s *Store) Admit(a *article.Article) bool {
	if s == nil || a == nil {
		return false
	}

	id := Identity(a.URL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seenIDs[id]; dup {
		return false
	}

	s.seenURLs[a.URL] = struct{}{}
	s.seenIDs[id] = struct{}{}
	s.byIdentity[id] = a
	return true
}

// IsDuplicate is a read-only membership test against the raw URL set. It
// never mutates state, so callers can pre-check cheaply before building a
// full article candidate.
func (s *Store) IsDuplicate(url string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, seen := s.seenURLs[url]
	return seen
}

// Seed bulk-loads previously persisted URLs so cross-run duplicates are
// rejected without reprocessing. Call once before any Admit for the run.
func (s *Store) Seed(urls []string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		s.seenURLs[u] = struct{}{}
		s.seenIDs[Identity(u)] = struct{}{}
	}
}

// SeenURLs returns a snapshot of every URL the store has seen.
func (s *Store) SeenURLs() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.seenURLs))
	for u := range s.seenURLs {
		urls = append(urls, u)
	}
	return urls
}

// Representative returns the first admitted article for an identity.
func (s *Store) Representative(identity string) (*article.Article, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byIdentity[identity]
	return a, ok
}

// Len reports the number of distinct identities seen.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seenIDs)
}
