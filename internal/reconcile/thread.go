package reconcile

import (
	"sync"

	"github.com/divyamagg2005/CampusVerse/internal/model"
)

type ThreadState int

const (
	ThreadIdle ThreadState = iota
	ThreadLoading
	ThreadReady
	ThreadLoadingMore
	ThreadSubmitting
)

// CommentView is one comment annotated with its author's email.
type CommentView struct {
	Comment     model.Comment `json:"comment"`
	AuthorEmail string        `json:"author_email"`
}

// Thread is the reconciled comment list for one post: paginated, keyed by
// comment id, append-only. Realtime inserts land at the tail in received
// order, an accepted approximation of created_at order. A closed thread
// ignores every apply, so a stale fetch resolving after teardown cannot
// corrupt anything.
type Thread struct {
	mu sync.Mutex

	postID   string
	pageSize int

	state    ThreadState
	comments []CommentView
	ids      map[string]bool
	total    int
	closed   bool
}

func NewThread(postID string, pageSize int) *Thread {
	return &Thread{
		postID:   postID,
		pageSize: pageSize,
		state:    ThreadIdle,
		ids:      map[string]bool{},
	}
}

func (t *Thread) PostID() string { return t.postID }
func (t *Thread) PageSize() int  { return t.pageSize }

func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Comments returns a copy of the reconciled list.
func (t *Thread) Comments() []CommentView {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CommentView, len(t.comments))
	copy(out, t.comments)
	return out
}

func (t *Thread) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *Thread) Loaded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.comments)
}

// BeginLoad claims the first-page load. Only an idle thread loads.
func (t *Thread) BeginLoad() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.state != ThreadIdle {
		return false
	}
	t.state = ThreadLoading
	return true
}

// FinishLoad installs the first page and the total count. A failed load
// returns the thread to idle so it can be retried.
func (t *Thread) FinishLoad(page []CommentView, total int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if !ok {
		t.state = ThreadIdle
		return
	}
	t.comments = t.comments[:0]
	t.ids = map[string]bool{}
	for _, c := range page {
		t.appendLocked(c)
	}
	t.total = total
	t.state = ThreadReady
}

// BeginLoadMore claims the next page and returns the offset to fetch at.
// It is a no-op when the thread is not ready or everything is loaded.
func (t *Thread) BeginLoadMore() (offset int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.state != ThreadReady || len(t.comments) >= t.total {
		return 0, false
	}
	t.state = ThreadLoadingMore
	return len(t.comments), true
}

func (t *Thread) FinishLoadMore(page []CommentView, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if ok {
		for _, c := range page {
			t.appendLocked(c)
		}
	}
	t.state = ThreadReady
}

// BeginSubmit claims a comment write. Only one write is in flight at a
// time per thread.
func (t *Thread) BeginSubmit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.state != ThreadReady {
		return false
	}
	t.state = ThreadSubmitting
	return true
}

// AppendConfirmed lands the server-confirmed row at the tail, with the
// viewer's email resolved locally. The id guard keeps the realtime echo
// from inserting it twice whichever arrives first.
func (t *Thread) AppendConfirmed(c CommentView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.appendLocked(c) {
		t.total++
	}
	if t.state == ThreadSubmitting {
		t.state = ThreadReady
	}
}

// FailSubmit rolls the write attempt back. The list never held the
// rejected comment, so only the state transition is undone.
func (t *Thread) FailSubmit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == ThreadSubmitting {
		t.state = ThreadReady
	}
}

// ApplyInsert merges a realtime insert. Duplicate ids are dropped, which
// makes the merge idempotent against both redelivery and the optimistic
// path racing the echo.
func (t *Thread) ApplyInsert(c CommentView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.appendLocked(c) {
		t.total++
	}
}

// ApplyDelete removes a comment by id.
func (t *Thread) ApplyDelete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || !t.ids[id] {
		return
	}
	delete(t.ids, id)
	for i, c := range t.comments {
		if c.Comment.ID == id {
			t.comments = append(t.comments[:i], t.comments[i+1:]...)
			break
		}
	}
	if t.total > 0 {
		t.total--
	}
}

func (t *Thread) appendLocked(c CommentView) bool {
	if t.ids[c.Comment.ID] {
		return false
	}
	t.ids[c.Comment.ID] = true
	t.comments = append(t.comments, c)
	return true
}

// Close tears the thread down; every later apply is discarded.
func (t *Thread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}
