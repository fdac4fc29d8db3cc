// Package inflight de-duplicates concurrent fetches of the same fingerprint.
//
// The first caller to acquire a fingerprint becomes its owner and performs the
// fetch. Later callers follow the owner and receive the value it publishes.
// The registry only holds weak references to its slots, so a slot lives exactly
// as long as its owner (and any followers) hold on to it.
package inflight

import (
	"context"
	"sync"
	"weak"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
)

type slot struct {
	done      chan struct{}
	closeOnce sync.Once

	// Written before done is closed, read after
	value     any
	published bool
}

func newSlot() *slot {
	return &slot{done: make(chan struct{})}
}

func (s *slot) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

type Registry struct {
	lock  sync.Mutex
	slots map[cache.Fingerprint]weak.Pointer[slot]
}

func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[cache.Fingerprint]weak.Pointer[slot]),
	}
}

// Acquire registers interest in key.
//
// Exactly one of the return values is non-nil, unless the registered slot was
// stale. In that case both are nil, and the caller should check the cache
// before acquiring again.
//
// An owner must call Release when done, on every exit path.
func (r *Registry) Acquire(key cache.Fingerprint) (*Ownership, *Subscription) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if ref, ok := r.slots[key]; ok {
		existing := ref.Value()
		if existing != nil {
			return nil, &Subscription{slot: existing}
		}

		// The owner went away without releasing. Clear the entry so the next
		// attempt can take ownership.
		delete(r.slots, key)
		return nil, nil
	}

	s := newSlot()
	r.slots[key] = weak.Make(s)
	return &Ownership{registry: r, key: key, slot: s}, nil
}

// Len returns the number of registered slots
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.slots)
}

func (r *Registry) remove(key cache.Fingerprint, s *slot) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ref, ok := r.slots[key]
	if !ok {
		return
	}
	// Don't remove a newer generation
	if current := ref.Value(); current != nil && current != s {
		return
	}
	delete(r.slots, key)
}

// Ownership is held by the one caller responsible for fetching a fingerprint
type Ownership struct {
	registry *Registry
	key      cache.Fingerprint
	slot     *slot
}

// Publish hands value to every follower. Only the first call has an effect.
func (o *Ownership) Publish(value any) {
	o.slot.closeOnce.Do(func() {
		o.slot.value = value
		o.slot.published = true
		close(o.slot.done)
	})
}

// Release removes the slot from the registry and wakes any remaining
// followers. Safe to call multiple times.
func (o *Ownership) Release() {
	o.registry.remove(o.key, o.slot)
	o.slot.close()
}

// Subscription follows an owner's fetch
type Subscription struct {
	slot *slot
}

// Wait blocks until the owner publishes or releases.
//
// ok is false when the owner finished without publishing a value, in which
// case the caller should fall back to the cache.
func (s *Subscription) Wait(ctx context.Context) (value any, ok bool, err error) {
	select {
	case <-s.slot.done:
		return s.slot.value, s.slot.published, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
