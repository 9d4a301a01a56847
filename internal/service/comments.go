package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/realtime"
	"github.com/divyamagg2005/CampusVerse/internal/reconcile"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

// CommentPageSize is the pagination window for comment threads.
const CommentPageSize = 20

type CommentService struct {
	repo   repository.Repository
	source realtime.Source
}

func NewCommentService(repo repository.Repository, source realtime.Source) *CommentService {
	return &CommentService{repo: repo, source: source}
}

// CommentThread binds one post's reconciled thread to its realtime
// subscription and the viewer it serves.
type CommentThread struct {
	svc      *CommentService
	viewer   *session.Session
	thread   *reconcile.Thread
	sub      *realtime.Subscription
	onChange func()
}

// Open builds the thread for a post and starts merging its realtime
// insert/delete events. The list stays empty until LoadFirstPage.
// onChange, if non-nil, fires after every merge so a presentation layer
// can re-render.
func (s *CommentService) Open(ctx context.Context, postID string, viewer *session.Session, onChange func()) *CommentThread {
	sub := s.source.Subscribe(
		realtime.CollectionComments,
		[]realtime.Kind{realtime.KindInsert, realtime.KindDelete},
		&realtime.ParentKey{Field: "post_id", Value: postID},
	)
	ct := &CommentThread{
		svc:      s,
		viewer:   viewer,
		thread:   reconcile.NewThread(postID, CommentPageSize),
		sub:      sub,
		onChange: onChange,
	}

	go func() {
		for ev := range sub.Events() {
			ct.merge(ctx, ev)
		}
	}()
	return ct
}

func (ct *CommentThread) merge(ctx context.Context, ev realtime.ChangeEvent) {
	comment := model.Comment{}
	if err := ev.DecodeRow(&comment); err != nil {
		log.Println("[COMMENTS] bad event row:", err)
		return
	}
	switch ev.Kind {
	case realtime.KindInsert:
		ct.thread.ApplyInsert(reconcile.CommentView{
			Comment:     comment,
			AuthorEmail: ct.resolveEmail(ctx, comment.UserID),
		})
	case realtime.KindDelete:
		ct.thread.ApplyDelete(comment.ID)
	}
	if ct.onChange != nil {
		ct.onChange()
	}
}

// resolveEmail resolves a commenter's display identity. The viewer's own
// id resolves locally without a query.
func (ct *CommentThread) resolveEmail(ctx context.Context, userID string) string {
	if ct.viewer != nil && userID == ct.viewer.UserID {
		return ct.viewer.Email
	}
	emails, err := ct.svc.repo.Users().EmailsByIDs(ctx, []string{userID})
	if err != nil {
		log.Println("[COMMENTS] email lookup failed:", err)
		return reconcile.UnknownEmail
	}
	email, ok := emails[userID]
	if !ok {
		return reconcile.UnknownEmail
	}
	return email
}

// LoadFirstPage fetches the total count and the oldest page, resolving
// author emails in one batched lookup.
func (ct *CommentThread) LoadFirstPage(ctx context.Context) error {
	if !ct.thread.BeginLoad() {
		return nil
	}
	postID := ct.thread.PostID()

	total, err := ct.svc.repo.Comments().CountByPost(ctx, postID)
	if err != nil {
		ct.thread.FinishLoad(nil, 0, false)
		return fmt.Errorf("comments.CountByPost: %w", err)
	}
	comments, err := ct.svc.repo.Comments().ListPage(ctx, postID, ct.thread.PageSize(), 0)
	if err != nil {
		ct.thread.FinishLoad(nil, 0, false)
		return fmt.Errorf("comments.ListPage: %w", err)
	}
	page, err := ct.annotate(ctx, comments)
	if err != nil {
		ct.thread.FinishLoad(nil, 0, false)
		return err
	}
	ct.thread.FinishLoad(page, total, true)
	return nil
}

// LoadNextPage fetches the next window by offset from the loaded length.
// Once everything is loaded, or while another load is in flight, it makes
// no network call and changes nothing.
func (ct *CommentThread) LoadNextPage(ctx context.Context) error {
	offset, ok := ct.thread.BeginLoadMore()
	if !ok {
		return nil
	}
	comments, err := ct.svc.repo.Comments().ListPage(ctx, ct.thread.PostID(), ct.thread.PageSize(), offset)
	if err != nil {
		ct.thread.FinishLoadMore(nil, false)
		return fmt.Errorf("comments.ListPage: %w", err)
	}
	page, err := ct.annotate(ctx, comments)
	if err != nil {
		ct.thread.FinishLoadMore(nil, false)
		return err
	}
	ct.thread.FinishLoadMore(page, true)
	return nil
}

func (ct *CommentThread) annotate(ctx context.Context, comments []model.Comment) ([]reconcile.CommentView, error) {
	return ct.svc.annotate(ctx, comments)
}

// annotate resolves author emails for a comment page in one batched
// lookup keyed by the distinct author ids present.
func (s *CommentService) annotate(ctx context.Context, comments []model.Comment) ([]reconcile.CommentView, error) {
	authorIDs := []string{}
	seen := map[string]bool{}
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			authorIDs = append(authorIDs, c.UserID)
		}
	}
	emails, err := s.repo.Users().EmailsByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("users.EmailsByIDs: %w", err)
	}

	page := make([]reconcile.CommentView, 0, len(comments))
	for _, c := range comments {
		email, ok := emails[c.UserID]
		if !ok {
			email = reconcile.UnknownEmail
		}
		page = append(page, reconcile.CommentView{Comment: c, AuthorEmail: email})
	}
	return page, nil
}

// Page is the request-scoped read used by the HTTP surface: one window of
// a post's comments plus the total, with no thread state kept.
func (s *CommentService) Page(ctx context.Context, postID string, limit int, offset int) (int, []reconcile.CommentView, error) {
	if limit <= 0 {
		limit = CommentPageSize
	}
	total, err := s.repo.Comments().CountByPost(ctx, postID)
	if err != nil {
		return 0, nil, fmt.Errorf("comments.CountByPost: %w", err)
	}
	comments, err := s.repo.Comments().ListPage(ctx, postID, limit, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("comments.ListPage: %w", err)
	}
	page, err := s.annotate(ctx, comments)
	if err != nil {
		return 0, nil, err
	}
	return total, page, nil
}

// SubmitOnce is the request-scoped comment write: validates, inserts and
// returns the confirmed row annotated with the viewer's own email.
func (s *CommentService) SubmitOnce(ctx context.Context, postID string, viewer *session.Session, text string) (*reconcile.CommentView, error) {
	if viewer == nil {
		return nil, ErrNotSignedIn
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyContent
	}
	comment, err := s.repo.Comments().Insert(ctx, postID, viewer.UserID, text)
	if err != nil {
		return nil, fmt.Errorf("comments.Insert: %w", err)
	}
	return &reconcile.CommentView{Comment: *comment, AuthorEmail: viewer.Email}, nil
}

// Submit rejects blank text before any network call, inserts the comment
// and appends the server-confirmed row with the viewer's own email
// resolved locally. A failed insert leaves the list untouched.
func (ct *CommentThread) Submit(ctx context.Context, text string) error {
	if ct.viewer == nil {
		return ErrNotSignedIn
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyContent
	}
	if !ct.thread.BeginSubmit() {
		return nil
	}

	comment, err := ct.svc.repo.Comments().Insert(ctx, ct.thread.PostID(), ct.viewer.UserID, text)
	if err != nil {
		ct.thread.FailSubmit()
		return fmt.Errorf("comments.Insert: %w", err)
	}
	ct.thread.AppendConfirmed(reconcile.CommentView{
		Comment:     *comment,
		AuthorEmail: ct.viewer.Email,
	})
	return nil
}

func (ct *CommentThread) Comments() []reconcile.CommentView { return ct.thread.Comments() }
func (ct *CommentThread) Total() int                        { return ct.thread.Total() }
func (ct *CommentThread) Loaded() int                       { return ct.thread.Loaded() }

// Close unsubscribes and discards any in-flight results.
func (ct *CommentThread) Close() {
	ct.thread.Close()
	ct.sub.Close()
}
