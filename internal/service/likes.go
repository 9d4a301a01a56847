package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/realtime"
	"github.com/divyamagg2005/CampusVerse/internal/reconcile"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

type LikeService struct {
	repo   repository.Repository
	source realtime.Source
}

func NewLikeService(repo repository.Repository, source realtime.Source) *LikeService {
	return &LikeService{repo: repo, source: source}
}

// Set is the request-scoped toggle used by the HTTP surface: the client
// reports its current liked state and the matching write is issued. A
// duplicate-insert conflict is swallowed as already-liked.
func (s *LikeService) Set(ctx context.Context, postID string, viewer *session.Session, currentlyLiked bool) (bool, error) {
	if viewer == nil {
		return false, ErrNotSignedIn
	}
	if currentlyLiked {
		if err := s.repo.Likes().Delete(ctx, postID, viewer.UserID); err != nil {
			return true, fmt.Errorf("likes.Delete: %w", err)
		}
		return false, nil
	}
	_, err := s.repo.Likes().Insert(ctx, postID, viewer.UserID)
	if err != nil && !errors.Is(err, repository.ErrAlreadyLiked) {
		return false, fmt.Errorf("likes.Insert: %w", err)
	}
	return true, nil
}

// LikeControl binds one post's reconciled like state to its realtime
// subscription for one viewer.
type LikeControl struct {
	svc      *LikeService
	viewer   *session.Session
	counter  *reconcile.Counter
	sub      *realtime.Subscription
	onChange func()
}

// Open builds the like state from the feed's initial values and starts
// merging realtime like events for the post. onChange, if non-nil, fires
// after every state change so a presentation layer can re-render.
func (s *LikeService) Open(postID string, viewer *session.Session, liked bool, count int, onChange func()) *LikeControl {
	sub := s.source.Subscribe(
		realtime.CollectionLikes,
		[]realtime.Kind{realtime.KindInsert, realtime.KindDelete},
		&realtime.ParentKey{Field: "post_id", Value: postID},
	)
	lc := &LikeControl{
		svc:      s,
		viewer:   viewer,
		counter:  reconcile.NewCounter(postID, viewer.UserID, liked, count),
		sub:      sub,
		onChange: onChange,
	}

	go func() {
		for ev := range sub.Events() {
			lc.merge(ev)
		}
	}()
	return lc
}

func (lc *LikeControl) merge(ev realtime.ChangeEvent) {
	like := model.Like{}
	if err := ev.DecodeRow(&like); err != nil {
		log.Println("[LIKES] bad event row:", err)
		return
	}
	switch ev.Kind {
	case realtime.KindInsert:
		lc.counter.ApplyInsert(like.UserID)
	case realtime.KindDelete:
		lc.counter.ApplyDelete(like.UserID)
	}
	lc.changed()
}

func (lc *LikeControl) changed() {
	if lc.onChange != nil {
		lc.onChange()
	}
}

// Toggle flips the like optimistically, then issues the matching write.
// A duplicate-like conflict is swallowed as already-satisfied state; any
// other failure rolls the optimistic change back and surfaces.
func (lc *LikeControl) Toggle(ctx context.Context) error {
	if lc.viewer == nil {
		return ErrNotSignedIn
	}
	action, rollback := lc.counter.Toggle()
	lc.changed()

	switch action {
	case reconcile.ActionInsert:
		_, err := lc.svc.repo.Likes().Insert(ctx, lc.counter.PostID(), lc.viewer.UserID)
		if errors.Is(err, repository.ErrAlreadyLiked) {
			// nothing was inserted, so no echo will come for this op
			lc.counter.ConfirmNoop(action)
			return nil
		}
		if err != nil {
			rollback()
			lc.changed()
			return fmt.Errorf("likes.Insert: %w", err)
		}
	case reconcile.ActionDelete:
		if err := lc.svc.repo.Likes().Delete(ctx, lc.counter.PostID(), lc.viewer.UserID); err != nil {
			rollback()
			lc.changed()
			return fmt.Errorf("likes.Delete: %w", err)
		}
	}
	return nil
}

func (lc *LikeControl) Snapshot() (liked bool, count int) {
	return lc.counter.Snapshot()
}

func (lc *LikeControl) Close() {
	lc.counter.Close()
	lc.sub.Close()
}
