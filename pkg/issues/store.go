package issues

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// Record holds the dates recorded for a fix revision. Missing dates are empty.
type Record struct {
	CreationDate   string
	ResolutionDate string
	CommitDate     string
}

// Created parses the issue creation date.
func (r Record) Created() (time.Time, error) {
	return ParseDate(r.CreationDate)
}

// Store maps revision ids to issue records. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Put records the dates of rev, replacing any previous record.
func (s *Store) Put(rev string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rev] = record
}

// Rename moves the record of from to to, used once an abbreviated id is resolved.
func (s *Store) Rename(from, to string) {
	if from == to {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[from]
	if !ok {
		return
	}

	delete(s.records, from)
	s.records[to] = record
}

// Lookup returns the record of rev, or a zero Record when none exists.
func (s *Store) Lookup(rev string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records[rev]
}

// Revisions returns the recorded revision ids in sorted order.
func (s *Store) Revisions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.records))
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
