package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/divyamagg2005/CampusVerse/internal/reconcile"
	"github.com/divyamagg2005/CampusVerse/internal/service"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	feed     *service.FeedService
	comments *service.CommentService
	likes    *service.LikeService
}

func New(feed *service.FeedService, comments *service.CommentService, likes *service.LikeService) *Handler {
	return &Handler{feed: feed, comments: comments, likes: likes}
}

type clientAction struct {
	Action  string `json:"action"`
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// feedClient is one connected viewer: the feed watch plus the per-post
// like and comment surfaces it has opened. Each surface owns its own
// view-model slice; nothing is shared across clients.
type feedClient struct {
	h      *Handler
	conn   *websocket.Conn
	viewer *session.Session

	writeMu sync.Mutex

	mu      sync.Mutex
	watch   *service.FeedWatch
	likes   map[string]*service.LikeControl
	threads map[string]*service.CommentThread
	closed  bool
}

// ServeFeed upgrades the connection and streams reconciled view-model
// updates: the feed wholesale on post inserts, like counters and comment
// threads incrementally as their events merge.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	viewer := session.FromContext(r.Context())
	if viewer == nil {
		http.Error(w, "sign in required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[WS] upgrade:", err)
		return
	}

	client := &feedClient{
		h:       h,
		conn:    conn,
		viewer:  viewer,
		likes:   map[string]*service.LikeControl{},
		threads: map[string]*service.CommentThread{},
	}
	client.run(r.Context())
}

func (c *feedClient) run(ctx context.Context) {
	defer c.teardown()

	views, college, err := c.h.feed.Load(ctx, c.viewer)
	if errors.Is(err, service.ErrNeedsOnboarding) {
		c.send(map[string]interface{}{"type": "needs_onboarding"})
		return
	}
	if err != nil {
		c.sendError(err)
		return
	}
	c.applyFeed(views)

	// the watch is scoped by the viewer's own college, so it fires even
	// when the feed starts out empty
	c.watch = c.h.feed.Watch(ctx, c.viewer, college, c.applyFeed)

	for {
		action := clientAction{}
		if err := c.conn.ReadJSON(&action); err != nil {
			return
		}
		c.handle(ctx, action)
	}
}

func (c *feedClient) handle(ctx context.Context, action clientAction) {
	switch action.Action {
	case "toggle_like":
		c.mu.Lock()
		lc := c.likes[action.PostID]
		c.mu.Unlock()
		if lc == nil {
			c.sendError(fmt.Errorf("unknown post: %s", action.PostID))
			return
		}
		if err := lc.Toggle(ctx); err != nil {
			c.sendError(err)
		}
	case "open_comments":
		c.openComments(ctx, action.PostID)
	case "load_more_comments":
		c.mu.Lock()
		ct := c.threads[action.PostID]
		c.mu.Unlock()
		if ct == nil {
			return
		}
		if err := ct.LoadNextPage(ctx); err != nil {
			c.sendError(err)
			return
		}
		c.sendComments(action.PostID, ct)
	case "add_comment":
		c.mu.Lock()
		ct := c.threads[action.PostID]
		c.mu.Unlock()
		if ct == nil {
			return
		}
		if err := ct.Submit(ctx, action.Content); err != nil {
			c.sendError(err)
			return
		}
		c.sendComments(action.PostID, ct)
	case "close_comments":
		c.mu.Lock()
		ct := c.threads[action.PostID]
		delete(c.threads, action.PostID)
		c.mu.Unlock()
		if ct != nil {
			ct.Close()
		}
	}
}

func (c *feedClient) openLike(view reconcile.PostView) {
	postID := view.Post.ID
	lc := c.h.likes.Open(postID, c.viewer, view.LikedByMe, view.LikeCount, func() {
		c.mu.Lock()
		lc := c.likes[postID]
		c.mu.Unlock()
		if lc == nil {
			return
		}
		liked, count := lc.Snapshot()
		c.send(map[string]interface{}{
			"type":    "like",
			"post_id": postID,
			"liked":   liked,
			"count":   count,
		})
	})

	c.mu.Lock()
	if old := c.likes[postID]; old != nil {
		old.Close()
	}
	c.likes[postID] = lc
	c.mu.Unlock()
}

func (c *feedClient) openComments(ctx context.Context, postID string) {
	c.mu.Lock()
	if _, ok := c.threads[postID]; ok {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	var ct *service.CommentThread
	ct = c.h.comments.Open(ctx, postID, c.viewer, func() {
		c.sendComments(postID, ct)
	})

	c.mu.Lock()
	c.threads[postID] = ct
	c.mu.Unlock()

	if err := ct.LoadFirstPage(ctx); err != nil {
		c.sendError(err)
		return
	}
	c.sendComments(postID, ct)
}

// applyFeed installs a feed snapshot: like controls are reconciled with
// the new post set first, so every post pushed to the client can be
// toggled, including ones that arrived through a realtime reload.
func (c *feedClient) applyFeed(views []reconcile.PostView) {
	c.syncLikes(views)
	c.send(map[string]interface{}{
		"type":  "feed",
		"posts": views,
	})
}

func (c *feedClient) syncLikes(views []reconcile.PostView) {
	current := map[string]bool{}
	for _, view := range views {
		current[view.Post.ID] = true
		c.mu.Lock()
		_, open := c.likes[view.Post.ID]
		c.mu.Unlock()
		if !open {
			c.openLike(view)
		}
	}

	dropped := []*service.LikeControl{}
	c.mu.Lock()
	for id, lc := range c.likes {
		if !current[id] {
			dropped = append(dropped, lc)
			delete(c.likes, id)
		}
	}
	c.mu.Unlock()
	for _, lc := range dropped {
		lc.Close()
	}
}

func (c *feedClient) sendComments(postID string, ct *service.CommentThread) {
	c.send(map[string]interface{}{
		"type":     "comments",
		"post_id":  postID,
		"total":    ct.Total(),
		"comments": ct.Comments(),
	})
}

func (c *feedClient) sendError(err error) {
	c.send(map[string]interface{}{
		"type":  "error",
		"error": err.Error(),
	})
}

func (c *feedClient) send(payload interface{}) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(payload); err != nil {
		log.Println("[WS] write:", err)
	}
}

func (c *feedClient) teardown() {
	c.mu.Lock()
	c.closed = true
	watch := c.watch
	likes := c.likes
	threads := c.threads
	c.likes = map[string]*service.LikeControl{}
	c.threads = map[string]*service.CommentThread{}
	c.mu.Unlock()

	if watch != nil {
		watch.Close()
	}
	for _, lc := range likes {
		lc.Close()
	}
	for _, ct := range threads {
		ct.Close()
	}
	c.conn.Close()
}
