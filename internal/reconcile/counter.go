package reconcile

import "sync"

// Counter is the reconciled like state for one post and one viewer: the
// aggregate count plus the viewer's own liked flag. Toggles apply
// optimistically and register a pending op; the realtime merge consumes
// the pending op instead of double-counting the echo.
type Counter struct {
	mu sync.Mutex

	postID   string
	viewerID string

	liked   bool
	count   int
	pending *Pending
	closed  bool
}

func NewCounter(postID string, viewerID string, liked bool, count int) *Counter {
	return &Counter{
		postID:   postID,
		viewerID: viewerID,
		liked:    liked,
		count:    count,
		pending:  NewPending(),
	}
}

func (c *Counter) PostID() string { return c.postID }

func (c *Counter) Snapshot() (liked bool, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liked, c.count
}

// Toggle flips the local state before any network call and returns the
// action the caller must issue, plus a rollback restoring the previous
// state if that write fails.
func (c *Counter) Toggle() (Action, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevLiked, prevCount := c.liked, c.count

	var action Action
	if c.liked {
		action = ActionDelete
		c.liked = false
		if c.count > 0 {
			c.count--
		}
	} else {
		action = ActionInsert
		c.liked = true
		c.count++
	}
	c.pending.Add(c.postID, action, c.viewerID)

	rollback := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.liked = prevLiked
		c.count = prevCount
		c.pending.Consume(c.postID, action, c.viewerID)
	}
	return action, rollback
}

// ConfirmNoop settles an optimistic toggle whose write changed no row,
// e.g. an insert swallowed as already present. No echo will ever arrive
// for it, so the pending op must be consumed here or it would eat a
// later genuine echo of the viewer's own action.
func (c *Counter) ConfirmNoop(action Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Consume(c.postID, action, c.viewerID)
}

// ApplyInsert merges a like-row insert from the realtime stream. The
// viewer's own echoed insert consumes its pending op and changes nothing.
func (c *Counter) ApplyInsert(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.pending.Consume(c.postID, ActionInsert, userID) {
		return
	}
	c.count++
	if userID == c.viewerID {
		c.liked = true
	}
}

// ApplyDelete merges a like-row delete. The count never goes below zero
// regardless of event ordering.
func (c *Counter) ApplyDelete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.pending.Consume(c.postID, ActionDelete, userID) {
		return
	}
	if c.count > 0 {
		c.count--
	}
	if userID == c.viewerID {
		c.liked = false
	}
}

func (c *Counter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
