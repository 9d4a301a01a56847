package realtime

import (
	"log"
	"sync"
)

// ParentKey narrows a subscription to rows whose named field equals the
// given value, e.g. {Field: "post_id", Value: <post id>}.
type ParentKey struct {
	Field string
	Value string
}

// Subscription delivers matching events in commit order over a bounded
// queue. No ordering is guaranteed across independent subscriptions.
type Subscription struct {
	collection string
	kinds      map[Kind]bool
	parentKey  *ParentKey

	events chan ChangeEvent

	mu       sync.Mutex
	closed   bool
	onClosed func(*Subscription)
}

func newSubscription(collection string, kinds []Kind, parentKey *ParentKey, queueSize int, onClosed func(*Subscription)) *Subscription {
	kindSet := map[Kind]bool{}
	for _, kind := range kinds {
		kindSet[kind] = true
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Subscription{
		collection: collection,
		kinds:      kindSet,
		parentKey:  parentKey,
		events:     make(chan ChangeEvent, queueSize),
		onClosed:   onClosed,
	}
}

// NewSubscription builds a detached subscription that events can be pushed
// into directly. Reconciler tests drive merges through this.
func NewSubscription(collection string, kinds []Kind, parentKey *ParentKey, queueSize int) *Subscription {
	return newSubscription(collection, kinds, parentKey, queueSize, nil)
}

// Events is the ordered event queue. It is closed when the subscription is
// closed.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

func (s *Subscription) matches(ev ChangeEvent) bool {
	if ev.Collection != s.collection {
		return false
	}
	if len(s.kinds) > 0 && !s.kinds[ev.Kind] {
		return false
	}
	if s.parentKey != nil && ev.RowField(s.parentKey.Field) != s.parentKey.Value {
		return false
	}
	return true
}

// Push offers an event to the subscription. Non-matching events are
// ignored. When the queue is full the event is dropped with a warning
// rather than blocking the dispatch loop.
func (s *Subscription) Push(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.matches(ev) {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("[REALTIME] subscription queue full, dropping %v on %v", ev.Kind, ev.Collection)
	}
}

// Close tears the subscription down. Idempotent. Events already queued are
// discarded by the closed channel's drain.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	if s.onClosed != nil {
		s.onClosed(s)
	}
}
