// Package snapshot holds the latest published copy of remote state. Readers never
// block on a load, concurrent loads collapse into one fetch, and a load that
// started earlier never replaces a value published by a later one.
package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type Versioned[T any] struct {
	Value     T
	Version   uint64
	FetchedAt time.Time
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

type Store[T any] struct {
	current atomic.Pointer[Versioned[T]]
	group   singleflight.Group

	mu        sync.Mutex
	issued    uint64
	published uint64

	now func() time.Time
}

const flightKey = "load"

func New[T any]() *Store[T] {
	return &Store[T]{now: time.Now}
}

// Current returns the latest published value; ok is false before the first load.
func (s *Store[T]) Current() (Versioned[T], bool) {
	v := s.current.Load()
	if v == nil {
		return Versioned[T]{}, false
	}
	return *v, true
}

// Load joins an in-flight fetch or starts one. The fetch runs detached from the
// caller's cancellation so one impatient caller cannot fail the others.
func (s *Store[T]) Load(ctx context.Context, fetch FetchFunc[T]) (Versioned[T], error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey, func() (any, error) {
		gen := s.nextGeneration()
		val, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		s.publish(gen, val)
		cur, _ := s.Current()
		return cur, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Versioned[T]{}, res.Err
		}
		return res.Val.(Versioned[T]), nil
	case <-ctx.Done():
		return Versioned[T]{}, ctx.Err()
	}
}

// Invalidate forces a fresh fetch even if one is already in flight, so the result
// reflects every mutation that completed before the call.
func (s *Store[T]) Invalidate(ctx context.Context, fetch FetchFunc[T]) (Versioned[T], error) {
	s.group.Forget(flightKey)
	return s.Load(ctx, fetch)
}

// Reset drops the published value and orphans in-flight loads.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.issued++
	s.published = s.issued
	s.current.Store(nil)
	s.mu.Unlock()
	s.group.Forget(flightKey)
}

func (s *Store[T]) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Store[T]) publish(gen uint64, val T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.published {
		return false
	}
	s.published = gen
	s.current.Store(&Versioned[T]{Value: val, Version: gen, FetchedAt: s.now()})
	return true
}
