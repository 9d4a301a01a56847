package repository

import (
	"context"
	"errors"

	"github.com/divyamagg2005/CampusVerse/internal/model"
)

var (
	// ErrAlreadyLiked maps the unique (post_id, user_id) violation on
	// post_likes. Callers treat it as an already-satisfied desired state.
	ErrAlreadyLiked = errors.New("post already liked")

	ErrNotFound          = errors.New("row not found")
	ErrCollegeAlreadySet = errors.New("college already set")
	ErrEmailTaken        = errors.New("email already registered")
)

type Users interface {
	Create(ctx context.Context, email string, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	PasswordHash(ctx context.Context, email string) (id string, hash string, err error)
	EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error)
	SetCollege(ctx context.Context, id string, college string) error
}

type Posts interface {
	ListByCollege(ctx context.Context, college string, limit int) ([]model.Post, error)
	Create(ctx context.Context, userID string, content string, imageURL *string, college string, anonymous bool) (*model.Post, error)
}

type Likes interface {
	ListByPostIDs(ctx context.Context, postIDs []string) ([]model.Like, error)
	Insert(ctx context.Context, postID string, userID string) (*model.Like, error)
	Delete(ctx context.Context, postID string, userID string) error
}

type Comments interface {
	CountByPost(ctx context.Context, postID string) (int, error)
	ListPage(ctx context.Context, postID string, limit int, offset int) ([]model.Comment, error)
	Insert(ctx context.Context, postID string, userID string, content string) (*model.Comment, error)
}

type Repository interface {
	Users() Users
	Posts() Posts
	Likes() Likes
	Comments() Comments
}

// ObjectStorage holds post images. Upload failures abort the post that
// carried the image.
type ObjectStorage interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
}
