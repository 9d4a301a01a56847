package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/realtime"
	"github.com/divyamagg2005/CampusVerse/internal/reconcile"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

// FeedLimit caps a feed load at the most recent posts in the viewer's
// college scope.
const FeedLimit = 50

type FeedService struct {
	repo   repository.Repository
	source realtime.Source
}

func NewFeedService(repo repository.Repository, source realtime.Source) *FeedService {
	return &FeedService{repo: repo, source: source}
}

// Load runs the full feed pipeline: viewer's college, recent posts in
// that scope, the distinct authors behind them, every like on the post
// set, folded into the annotated list. Any fetch failing fails the whole
// load. The resolved college is returned alongside the list so callers
// can scope a realtime watch even when the feed is empty.
func (s *FeedService) Load(ctx context.Context, viewer *session.Session) ([]reconcile.PostView, string, error) {
	if viewer == nil {
		return nil, "", ErrNotSignedIn
	}

	user, err := s.repo.Users().GetByID(ctx, viewer.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: users.GetByID: %v", ErrFeedUnavailable, err)
	}
	if user.College == nil {
		return nil, "", ErrNeedsOnboarding
	}
	college := *user.College

	posts, err := s.repo.Posts().ListByCollege(ctx, college, FeedLimit)
	if err != nil {
		return nil, "", fmt.Errorf("%w: posts.ListByCollege: %v", ErrFeedUnavailable, err)
	}

	authorIDs := distinctAuthors(posts)
	emails, err := s.repo.Users().EmailsByIDs(ctx, authorIDs)
	if err != nil {
		return nil, "", fmt.Errorf("%w: users.EmailsByIDs: %v", ErrFeedUnavailable, err)
	}
	authors := make([]model.User, 0, len(emails))
	for id, email := range emails {
		authors = append(authors, model.User{ID: id, Email: email})
	}

	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	likes, err := s.repo.Likes().ListByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, "", fmt.Errorf("%w: likes.ListByPostIDs: %v", ErrFeedUnavailable, err)
	}

	return reconcile.BuildFeed(posts, authors, likes, viewer.UserID), college, nil
}

func distinctAuthors(posts []model.Post) []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, post := range posts {
		if !seen[post.UserID] {
			seen[post.UserID] = true
			ids = append(ids, post.UserID)
		}
	}
	return ids
}

// FeedWatch reloads the feed wholesale whenever a post is inserted in the
// viewer's college scope and hands the result to the sink. A watch that
// has been closed applies nothing, even if a reload was in flight.
type FeedWatch struct {
	svc    *FeedService
	viewer *session.Session
	sub    *realtime.Subscription
	sink   func([]reconcile.PostView)

	mu     sync.Mutex
	closed bool
}

// Watch opens the realtime leg of the feed. The sink receives the
// reloaded list after every posts-insert event; load failures are logged
// and skipped, the next event retries naturally.
func (s *FeedService) Watch(ctx context.Context, viewer *session.Session, college string, sink func([]reconcile.PostView)) *FeedWatch {
	sub := s.source.Subscribe(
		realtime.CollectionPosts,
		[]realtime.Kind{realtime.KindInsert},
		&realtime.ParentKey{Field: "college", Value: college},
	)
	w := &FeedWatch{svc: s, viewer: viewer, sub: sub, sink: sink}

	go func() {
		for range sub.Events() {
			views, _, err := s.Load(ctx, viewer)
			if err != nil {
				log.Println("[FEED] reload after insert failed:", err)
				continue
			}
			w.deliver(views)
		}
	}()
	return w
}

func (w *FeedWatch) deliver(views []reconcile.PostView) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.sink(views)
}

func (w *FeedWatch) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.sub.Close()
}
