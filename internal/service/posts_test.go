package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestPostCreate(t *testing.T) {
	repo := newFakeRepo()
	repo.users.add("u1", "u1@mit.edu", college("MIT"))
	storage := newFakeStorage()

	svc := NewPostService(repo, storage)
	post, err := svc.Create(context.Background(), viewer("u1", "u1@mit.edu"), "  hello campus  ", nil, false)

	assert.Equal(t, nil, err)
	assert.Equal(t, "hello campus", post.Content)
	assert.Equal(t, "MIT", post.College)
	assert.Equal(t, nil, post.ImageURL)
	assert.Equal(t, 0, storage.uploadCalls)
}

func TestPostCreateWithImage(t *testing.T) {
	repo := newFakeRepo()
	repo.users.add("u1", "u1@mit.edu", college("MIT"))
	storage := newFakeStorage()

	svc := NewPostService(repo, storage)
	image := &PostImage{Filename: "pic.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
	post, err := svc.Create(context.Background(), viewer("u1", "u1@mit.edu"), "with image", image, true)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, storage.uploadCalls)
	assert.NotEqual(t, nil, post.ImageURL)
	assert.Equal(t, true, post.Anonymous)
}

func TestPostCreateUploadFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	repo.users.add("u1", "u1@mit.edu", college("MIT"))
	storage := newFakeStorage()
	storage.uploadErr = errors.New("bucket unavailable")

	svc := NewPostService(repo, storage)
	image := &PostImage{Filename: "pic.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
	_, err := svc.Create(context.Background(), viewer("u1", "u1@mit.edu"), "with image", image, false)

	assert.Equal(t, true, errors.Is(err, ErrUploadFailed))
	// no post row was written: the submission aborted entirely
	assert.Equal(t, 0, repo.posts.createCalls)
	assert.Equal(t, 0, len(repo.posts.rows))
}

func TestPostCreateEmptyContent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewPostService(repo, newFakeStorage())

	_, err := svc.Create(context.Background(), viewer("u1", "u1@mit.edu"), "   ", nil, false)

	assert.Equal(t, true, errors.Is(err, ErrEmptyContent))
	assert.Equal(t, 0, repo.posts.createCalls)
}

func TestPostCreateNeedsOnboarding(t *testing.T) {
	repo := newFakeRepo()
	repo.users.add("u1", "u1@mit.edu", nil)

	svc := NewPostService(repo, newFakeStorage())
	_, err := svc.Create(context.Background(), viewer("u1", "u1@mit.edu"), "hello", nil, false)

	assert.Equal(t, true, errors.Is(err, ErrNeedsOnboarding))
	assert.Equal(t, 0, repo.posts.createCalls)
}

func TestSelectCollegeSetOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.users.add("u1", "u1@mit.edu", nil)

	// the session manager is not exercised here, only the onboarding path
	svc := NewAuthService(nil, repo.users)

	assert.Equal(t, nil, svc.SelectCollege(context.Background(), viewer("u1", "u1@mit.edu"), "MIT"))

	err := svc.SelectCollege(context.Background(), viewer("u1", "u1@mit.edu"), "Stanford")
	assert.NotEqual(t, nil, err)
	assert.Equal(t, "MIT", repo.users.collegeSet["u1"])
}
