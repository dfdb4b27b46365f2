// Package reactive provides observable values for diagram inputs.
//
// A State holds one input value (a width, a radius, the enabled flag). Effects
// watch states and run when any of them changes. States created in a Scope
// share its batches: changes made inside Scope.RunBatch are coalesced so each
// affected effect runs once, after the batch. Scopes are independent, so
// components driven from different goroutines never see each other's batches.
package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a callback run when a state it watches changes.
type Effect struct {
	id uint32
	fn func()
}

var effectIDs atomic.Uint32

// NewEffect creates an effect that runs fn.
func NewEffect(fn func()) *Effect {
	return &Effect{id: effectIDs.Add(1), fn: fn}
}

// Run invokes the effect now.
func (e *Effect) Run() {
	if e != nil && e.fn != nil {
		e.fn()
	}
}

// ID returns the effect's unique ID.
func (e *Effect) ID() uint32 { return e.id }

// State is an observable value.
type State[T comparable] struct {
	value T
	mu    sync.RWMutex

	scope *Scope

	// Effects watching this state
	deps   map[uint32]*Effect
	depsMu sync.RWMutex
}

// NewState creates a state holding initial, outside any scope. Its effects
// run as soon as it changes.
func NewState[T comparable](initial T) *State[T] {
	return In(nil, initial)
}

// In creates a state holding initial that batches with sc.
func In[T comparable](sc *Scope, initial T) *State[T] {
	return &State[T]{
		value: initial,
		scope: sc,
		deps:  make(map[uint32]*Effect),
	}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value. Watching effects run only if the value changed.
func (s *State[T]) Set(value T) {
	s.mu.Lock()
	changed := s.value != value
	s.value = value
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Update replaces the value with fn applied to it.
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	s.value = fn(old)
	changed := s.value != old
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *State[T]) notify() {
	// Run effects outside the lock; an effect may read or watch this state.
	s.depsMu.RLock()
	deps := make([]*Effect, 0, len(s.deps))
	for _, e := range s.deps {
		deps = append(deps, e)
	}
	s.depsMu.RUnlock()

	for _, e := range deps {
		s.scope.runOrBatch(e)
	}
}

// Watch adds an effect to run on change.
func (s *State[T]) Watch(e *Effect) {
	if e == nil {
		return
	}
	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	s.deps[e.id] = e
}

// Unwatch removes an effect.
func (s *State[T]) Unwatch(e *Effect) {
	if e == nil {
		return
	}
	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	delete(s.deps, e.id)
}

// Watchers returns the number of watching effects.
func (s *State[T]) Watchers() int {
	s.depsMu.RLock()
	defer s.depsMu.RUnlock()
	return len(s.deps)
}

// Scope groups states whose changes batch together.
type Scope struct {
	current atomic.Pointer[Batch]
}

// NewScope creates an empty scope.
func NewScope() *Scope { return &Scope{} }

// Batch collects effects triggered while it is active.
type Batch struct {
	mu      sync.Mutex
	effects map[uint32]*Effect
	order   []*Effect
	active  bool
}

func newBatch() *Batch {
	return &Batch{effects: make(map[uint32]*Effect), active: true}
}

func (b *Batch) add(e *Effect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.effects[e.id]; ok {
		return
	}
	b.effects[e.id] = e
	b.order = append(b.order, e)
}

// commit runs each collected effect once, in the order first triggered.
func (b *Batch) commit() {
	b.mu.Lock()
	b.active = false
	effects := b.order
	b.effects, b.order = nil, nil
	b.mu.Unlock()

	for _, e := range effects {
		e.Run()
	}
}

// RunBatch runs fn, deferring effects triggered by the scope's states until it
// returns. Nested batches join the outermost one.
func (sc *Scope) RunBatch(fn func()) {
	if b := sc.current.Load(); b != nil && b.active {
		fn()
		return
	}
	batch := newBatch()
	sc.current.Store(batch)
	defer func() {
		sc.current.Store(nil)
		batch.commit()
	}()
	fn()
}

func (sc *Scope) runOrBatch(e *Effect) {
	if sc != nil {
		if b := sc.current.Load(); b != nil && b.active {
			b.add(e)
			return
		}
	}
	e.Run()
}
