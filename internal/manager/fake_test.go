package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pwm/internal/record"
	"github.com/roach88/pwm/internal/store"
)

// fakeBackend is an in-memory Backend that records session bookkeeping.
type fakeBackend struct {
	records map[string]record.Record

	begins    int
	commits   int
	rollbacks int
	closes    int

	// Fault injection.
	beginErr  error
	insertErr error
	commitErr error
	panicOn   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{records: make(map[string]record.Record)}
}

func (b *fakeBackend) Begin(ctx context.Context) (Session, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	b.begins++
	staged := make(map[string]record.Record, len(b.records))
	for k, v := range b.records {
		staged[k] = v
	}
	return &fakeSession{backend: b, staged: staged}, nil
}

func (b *fakeBackend) Close() error { return nil }

// open reports sessions begun but not yet closed.
func (b *fakeBackend) open() int { return b.begins - b.closes }

type fakeSession struct {
	backend *fakeBackend
	staged  map[string]record.Record
	closed  bool
}

func (s *fakeSession) maybePanic(op string) {
	if s.backend.panicOn == op {
		panic("injected panic in " + op)
	}
}

func (s *fakeSession) Insert(ctx context.Context, r *record.Record) error {
	s.maybePanic("insert")
	if s.backend.insertErr != nil {
		return s.backend.insertErr
	}
	if _, ok := s.staged[r.Name]; ok {
		return fmt.Errorf("insert record %q: %w", r.Name, store.ErrDuplicate)
	}
	s.staged[r.Name] = *r
	return nil
}

func (s *fakeSession) Get(ctx context.Context, name string) (*record.Record, error) {
	s.maybePanic("get")
	r, ok := s.staged[name]
	if !ok {
		return nil, fmt.Errorf("get record %q: %w", name, store.ErrNotFound)
	}
	return &r, nil
}

func (s *fakeSession) Search(ctx context.Context, query string) ([]*record.Record, error) {
	s.maybePanic("search")
	results := []*record.Record{}
	for name, r := range s.staged {
		if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			r := r
			results = append(results, &r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (s *fakeSession) Update(ctx context.Context, r *record.Record) error {
	s.maybePanic("update")
	if _, ok := s.staged[r.Name]; !ok {
		return fmt.Errorf("update record %q: %w", r.Name, store.ErrNotFound)
	}
	s.staged[r.Name] = *r
	return nil
}

func (s *fakeSession) Commit() error {
	if s.backend.commitErr != nil {
		return s.backend.commitErr
	}
	s.backend.commits++
	s.backend.records = s.staged
	return nil
}

func (s *fakeSession) Rollback() error {
	s.backend.rollbacks++
	return nil
}

func (s *fakeSession) Close() error {
	if !s.closed {
		s.closed = true
		s.backend.closes++
	}
	return nil
}
