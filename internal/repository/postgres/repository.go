package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/divyamagg2005/CampusVerse/config"
	"github.com/divyamagg2005/CampusVerse/internal/model"
	"github.com/divyamagg2005/CampusVerse/internal/repository"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB

	users    usersRepo
	posts    postsRepo
	likes    likesRepo
	comments commentsRepo
}

func New(conf config.Postgres) (*postgresRepository, error) {
	url := fmt.Sprintf(
		"postgresql://%v:%v@%v:%v/%v?sslmode=disable", conf.User, conf.Pass, conf.Host, conf.Port, conf.DB)

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %v", err)
	}
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("db.Ping: %v", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres.WithInstance: %v", err)
	}
	migrations := fmt.Sprintf("file://%v", conf.Migrations)
	m, err := migrate.NewWithDatabaseInstance(migrations, conf.DB, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate.NewWithDatabaseInstance: %v", err)
	}
	log.Println("[POSTGRES] applying migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("[POSTGRES] nothing to migrate")
		} else {
			return nil, fmt.Errorf("error when migrating: %v", err)
		}
	} else {
		log.Println("[POSTGRES] migrated successfully!")
	}

	pr := &postgresRepository{db: db}
	pr.users = usersRepo{db: db}
	pr.posts = postsRepo{db: db}
	pr.likes = likesRepo{db: db}
	pr.comments = commentsRepo{db: db}
	return pr, nil
}

func (pr *postgresRepository) Users() repository.Users       { return pr.users }
func (pr *postgresRepository) Posts() repository.Posts       { return pr.posts }
func (pr *postgresRepository) Likes() repository.Likes       { return pr.likes }
func (pr *postgresRepository) Comments() repository.Comments { return pr.comments }

func (pr *postgresRepository) Close() error { return pr.db.Close() }

type usersRepo struct {
	db *sql.DB
}

func (ur usersRepo) Create(ctx context.Context, email string, passwordHash string) (*model.User, error) {
	user := &model.User{}
	err := ur.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, email, college, created_at",
		email, passwordHash).Scan(&user.ID, &user.Email, &user.College, &user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (ur usersRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := ur.db.QueryRowContext(ctx,
		"SELECT id, email, college, created_at FROM users WHERE id = $1", id).Scan(
		&user.ID, &user.Email, &user.College, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (ur usersRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := ur.db.QueryRowContext(ctx,
		"SELECT id, email, college, created_at FROM users WHERE email = $1", email).Scan(
		&user.ID, &user.Email, &user.College, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (ur usersRepo) PasswordHash(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := ur.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = $1", email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", repository.ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

func (ur usersRepo) EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	emails := map[string]string{}
	if len(ids) == 0 {
		return emails, nil
	}
	rows, err := ur.db.QueryContext(ctx,
		"SELECT id, email FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		emails[id] = email
	}
	return emails, rows.Err()
}

// SetCollege assigns the college once. A second assignment is rejected at
// the query level so two racing onboarding calls cannot both win.
func (ur usersRepo) SetCollege(ctx context.Context, id string, college string) error {
	res, err := ur.db.ExecContext(ctx,
		"UPDATE users SET college = $2 WHERE id = $1 AND college IS NULL", id, college)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrCollegeAlreadySet
	}
	return nil
}

type postsRepo struct {
	db *sql.DB
}

func (pr postsRepo) ListByCollege(ctx context.Context, college string, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	rows, err := pr.db.QueryContext(ctx,
		"SELECT id, user_id, content, image_url, college, anonymous, created_at FROM posts WHERE college = $1 ORDER BY created_at DESC LIMIT $2",
		college, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		post := model.Post{}
		err = rows.Scan(
			&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.College, &post.Anonymous, &post.CreatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (pr postsRepo) Create(ctx context.Context, userID string, content string, imageURL *string, college string, anonymous bool) (*model.Post, error) {
	post := &model.Post{}
	err := pr.db.QueryRowContext(ctx,
		"INSERT INTO posts (user_id, content, image_url, college, anonymous) VALUES ($1, $2, $3, $4, $5) RETURNING id, user_id, content, image_url, college, anonymous, created_at",
		userID, content, imageURL, college, anonymous).Scan(
		&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.College, &post.Anonymous, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return post, nil
}

type likesRepo struct {
	db *sql.DB
}

func (lr likesRepo) ListByPostIDs(ctx context.Context, postIDs []string) ([]model.Like, error) {
	likes := []model.Like{}
	if len(postIDs) == 0 {
		return likes, nil
	}
	rows, err := lr.db.QueryContext(ctx,
		"SELECT id, post_id, user_id, created_at FROM post_likes WHERE post_id = ANY($1)", pq.Array(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		like := model.Like{}
		if err := rows.Scan(&like.ID, &like.PostID, &like.UserID, &like.CreatedAt); err != nil {
			return nil, err
		}
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

func (lr likesRepo) Insert(ctx context.Context, postID string, userID string) (*model.Like, error) {
	like := &model.Like{}
	err := lr.db.QueryRowContext(ctx,
		"INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) RETURNING id, post_id, user_id, created_at",
		postID, userID).Scan(&like.ID, &like.PostID, &like.UserID, &like.CreatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrAlreadyLiked
	}
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (lr likesRepo) Delete(ctx context.Context, postID string, userID string) error {
	_, err := lr.db.ExecContext(ctx,
		"DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2", postID, userID)
	return err
}

type commentsRepo struct {
	db *sql.DB
}

func (cr commentsRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	var count int
	err := cr.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM post_comments WHERE post_id = $1", postID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (cr commentsRepo) ListPage(ctx context.Context, postID string, limit int, offset int) ([]model.Comment, error) {
	comments := []model.Comment{}
	rows, err := cr.db.QueryContext(ctx,
		"SELECT id, post_id, user_id, content, created_at FROM post_comments WHERE post_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3",
		postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		comment := model.Comment{}
		err = rows.Scan(&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (cr commentsRepo) Insert(ctx context.Context, postID string, userID string, content string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := cr.db.QueryRowContext(ctx,
		"INSERT INTO post_comments (post_id, user_id, content) VALUES ($1, $2, $3) RETURNING id, post_id, user_id, content, created_at",
		postID, userID, content).Scan(&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
