package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

type PostService struct {
	repo    repository.Repository
	storage repository.ObjectStorage
}

func NewPostService(repo repository.Repository, storage repository.ObjectStorage) *PostService {
	return &PostService{repo: repo, storage: storage}
}

// PostImage is an optional image attached to a new post.
type PostImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Create publishes a post in the viewer's college scope. The image, if
// any, is uploaded first; an upload failure aborts the whole submission
// and no post row is written.
func (s *PostService) Create(ctx context.Context, viewer *session.Session, content string, image *PostImage, anonymous bool) (*model.Post, error) {
	if viewer == nil {
		return nil, ErrNotSignedIn
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	user, err := s.repo.Users().GetByID(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}
	if user.College == nil {
		return nil, ErrNeedsOnboarding
	}

	var imageURL *string
	if image != nil {
		path := fmt.Sprintf("%s/%s%s", viewer.UserID, uuid.New().String(), filepath.Ext(image.Filename))
		if err := s.storage.Upload(ctx, path, image.Data, image.ContentType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		url := s.storage.PublicURL(path)
		imageURL = &url
	}

	post, err := s.repo.Posts().Create(ctx, viewer.UserID, content, imageURL, *user.College, anonymous)
	if err != nil {
		return nil, fmt.Errorf("posts.Create: %w", err)
	}
	return post, nil
}
