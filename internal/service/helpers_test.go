package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/realtime"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

type fakeUsers struct {
	mu           sync.Mutex
	byID         map[string]model.User
	emailLookups int
	getErr       error
	emailsErr    error
	collegeSet   map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}, collegeSet: map[string]string{}}
}

func (f *fakeUsers) add(id string, email string, college *string) {
	f.byID[id] = model.User{ID: id, Email: email, College: college, CreatedAt: time.Now()}
}

func (f *fakeUsers) Create(ctx context.Context, email string, passwordHash string) (*model.User, error) {
	user := model.User{ID: fmt.Sprintf("u%d", len(f.byID)+1), Email: email, CreatedAt: time.Now()}
	f.byID[user.ID] = user
	return &user, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) PasswordHash(ctx context.Context, email string) (string, string, error) {
	return "", "", repository.ErrNotFound
}

func (f *fakeUsers) EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailLookups++
	if f.emailsErr != nil {
		return nil, f.emailsErr
	}
	emails := map[string]string{}
	for _, id := range ids {
		if user, ok := f.byID[id]; ok {
			emails[id] = user.Email
		}
	}
	return emails, nil
}

func (f *fakeUsers) SetCollege(ctx context.Context, id string, college string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.College != nil {
		return repository.ErrCollegeAlreadySet
	}
	user.College = &college
	f.byID[id] = user
	f.collegeSet[id] = college
	return nil
}

type fakePosts struct {
	mu          sync.Mutex
	rows        []model.Post
	listErr     error
	createErr   error
	createCalls int
}

func (f *fakePosts) ListByCollege(ctx context.Context, college string, limit int) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	posts := []model.Post{}
	for _, post := range f.rows {
		if post.College == college && len(posts) < limit {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePosts) Create(ctx context.Context, userID string, content string, imageURL *string, college string, anonymous bool) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	post := model.Post{
		ID:        fmt.Sprintf("p%d", len(f.rows)+1),
		UserID:    userID,
		Content:   content,
		ImageURL:  imageURL,
		College:   college,
		Anonymous: anonymous,
		CreatedAt: time.Now(),
	}
	f.rows = append([]model.Post{post}, f.rows...)
	return &post, nil
}

type fakeLikes struct {
	mu          sync.Mutex
	rows        []model.Like
	listErr     error
	insertErr   error
	deleteErr   error
	insertCalls int
	deleteCalls int
}

func (f *fakeLikes) ListByPostIDs(ctx context.Context, postIDs []string) ([]model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	wanted := map[string]bool{}
	for _, id := range postIDs {
		wanted[id] = true
	}
	likes := []model.Like{}
	for _, like := range f.rows {
		if wanted[like.PostID] {
			likes = append(likes, like)
		}
	}
	return likes, nil
}

func (f *fakeLikes) Insert(ctx context.Context, postID string, userID string) (*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, like := range f.rows {
		if like.PostID == postID && like.UserID == userID {
			return nil, repository.ErrAlreadyLiked
		}
	}
	like := model.Like{
		ID:        fmt.Sprintf("l%d", len(f.rows)+1),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	f.rows = append(f.rows, like)
	return &like, nil
}

func (f *fakeLikes) Delete(ctx context.Context, postID string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, like := range f.rows {
		if like.PostID == postID && like.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

type fakeComments struct {
	mu          sync.Mutex
	rows        []model.Comment
	countErr    error
	listErr     error
	insertErr   error
	countCalls  int
	listCalls   int
	insertCalls int
}

func (f *fakeComments) CountByPost(ctx context.Context, postID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, c := range f.rows {
		if c.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (f *fakeComments) ListPage(ctx context.Context, postID string, limit int, offset int) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	matching := []model.Comment{}
	for _, c := range f.rows {
		if c.PostID == postID {
			matching = append(matching, c)
		}
	}
	if offset >= len(matching) {
		return []model.Comment{}, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[offset:end], nil
}

func (f *fakeComments) Insert(ctx context.Context, postID string, userID string, content string) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	c := model.Comment{
		ID:        fmt.Sprintf("c%d", len(f.rows)+1),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.rows = append(f.rows, c)
	return &c, nil
}

type fakeRepo struct {
	users    *fakeUsers
	posts    *fakePosts
	likes    *fakeLikes
	comments *fakeComments
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    newFakeUsers(),
		posts:    &fakePosts{},
		likes:    &fakeLikes{},
		comments: &fakeComments{},
	}
}

func (f *fakeRepo) Users() repository.Users       { return f.users }
func (f *fakeRepo) Posts() repository.Posts       { return f.posts }
func (f *fakeRepo) Likes() repository.Likes       { return f.likes }
func (f *fakeRepo) Comments() repository.Comments { return f.comments }

type fakeStorage struct {
	uploadErr   error
	uploadCalls int
	uploaded    map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (f *fakeStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	f.uploadCalls++
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded[path] = data
	return nil
}

func (f *fakeStorage) PublicURL(path string) string {
	return "http://storage.local/" + path
}

type fakeSource struct {
	mu   sync.Mutex
	subs []*realtime.Subscription
}

func (f *fakeSource) Subscribe(collection string, kinds []realtime.Kind, parentKey *realtime.ParentKey) *realtime.Subscription {
	sub := realtime.NewSubscription(collection, kinds, parentKey, 16)
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

func (f *fakeSource) push(ev realtime.ChangeEvent) {
	f.mu.Lock()
	subs := append([]*realtime.Subscription{}, f.subs...)
	f.mu.Unlock()
	for _, sub := range subs {
		sub.Push(ev)
	}
}

func insertEvent(collection string, row interface{}) realtime.ChangeEvent {
	data, _ := json.Marshal(row)
	return realtime.ChangeEvent{Collection: collection, Kind: realtime.KindInsert, New: data}
}

func deleteEvent(collection string, row interface{}) realtime.ChangeEvent {
	data, _ := json.Marshal(row)
	return realtime.ChangeEvent{Collection: collection, Kind: realtime.KindDelete, Old: data}
}

func viewer(id string, email string) *session.Session {
	return &session.Session{UserID: id, Email: email}
}

// waitSignal blocks until the onChange hook fires or the test deadline
// passes.
func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for merge")
	}
}
