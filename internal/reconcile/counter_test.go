package reconcile

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestCounterToggleParity(t *testing.T) {
	counter := NewCounter("p1", "u1", false, 3)

	// for any sequence of successful toggles the liked flag equals the
	// net parity and the count follows it
	for i := 0; i < 6; i++ {
		counter.Toggle()
		liked, count := counter.Snapshot()
		assert.Equal(t, i%2 == 0, liked)
		if i%2 == 0 {
			assert.Equal(t, 4, count)
		} else {
			assert.Equal(t, 3, count)
		}
	}
}

func TestCounterFloor(t *testing.T) {
	counter := NewCounter("p1", "u1", true, 0)

	// unlike at zero keeps the displayed count at zero
	counter.Toggle()
	liked, count := counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 0, count)

	// a stray delete event cannot push it negative either
	counter.ApplyDelete("u2")
	_, count = counter.Snapshot()
	assert.Equal(t, 0, count)
}

func TestCounterSelfEchoNotDoubleCounted(t *testing.T) {
	counter := NewCounter("p1", "u1", false, 0)

	counter.Toggle()
	liked, count := counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 1, count)

	// the realtime echo of the viewer's own insert consumes the pending
	// op instead of incrementing again
	counter.ApplyInsert("u1")
	liked, count = counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 1, count)

	// same for the unlike echo
	counter.Toggle()
	counter.ApplyDelete("u1")
	liked, count = counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 0, count)
}

func TestCounterOtherViewersEvents(t *testing.T) {
	counter := NewCounter("p1", "u1", false, 0)

	counter.ApplyInsert("u2")
	counter.ApplyInsert("u3")
	liked, count := counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 2, count)

	counter.ApplyDelete("u2")
	liked, count = counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 1, count)

	// the viewer's like arriving from another device flips the flag
	counter.ApplyInsert("u1")
	liked, count = counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 2, count)
}

func TestCounterRollback(t *testing.T) {
	counter := NewCounter("p1", "u1", false, 2)

	_, rollback := counter.Toggle()
	liked, count := counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 3, count)

	rollback()
	liked, count = counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 2, count)

	// the pending op was cleared with the rollback, so a later insert by
	// the viewer from elsewhere applies normally
	counter.ApplyInsert("u1")
	liked, count = counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 3, count)
}

func TestCounterConfirmNoopClearsPending(t *testing.T) {
	// the server already had the row: client state was stale
	counter := NewCounter("p1", "u1", false, 1)

	action, _ := counter.Toggle()
	assert.Equal(t, ActionInsert, action)

	// the write changed nothing, so no echo is coming; without settling
	// the pending op it would later eat a genuine insert by the viewer
	counter.ConfirmNoop(action)

	counter.ApplyInsert("u1")
	liked, count := counter.Snapshot()
	assert.Equal(t, true, liked)
	assert.Equal(t, 3, count)
}

func TestCounterClosedIgnoresEvents(t *testing.T) {
	counter := NewCounter("p1", "u1", false, 1)
	counter.Close()

	counter.ApplyInsert("u2")
	counter.ApplyDelete("u2")

	liked, count := counter.Snapshot()
	assert.Equal(t, false, liked)
	assert.Equal(t, 1, count)
}

func TestPendingConsume(t *testing.T) {
	pending := NewPending()
	assert.Equal(t, 0, pending.Len())

	pending.Add("p1", ActionInsert, "u1")
	pending.Add("p1", ActionInsert, "u1")
	assert.Equal(t, 2, pending.Len())

	assert.Equal(t, true, pending.Consume("p1", ActionInsert, "u1"))
	assert.Equal(t, true, pending.Consume("p1", ActionInsert, "u1"))
	assert.Equal(t, false, pending.Consume("p1", ActionInsert, "u1"))

	// distinct actions and actors do not cross-match
	pending.Add("p1", ActionDelete, "u1")
	assert.Equal(t, false, pending.Consume("p1", ActionInsert, "u1"))
	assert.Equal(t, false, pending.Consume("p1", ActionDelete, "u2"))
	assert.Equal(t, true, pending.Consume("p1", ActionDelete, "u1"))
}
