package v1

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	gql "github.com/divyamagg2005/CampusVerse/internal/handlers/http/v1/graphql"
	"github.com/divyamagg2005/CampusVerse/internal/handlers/http/v1/ws"
	"github.com/divyamagg2005/CampusVerse/internal/service"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

const maxImageSize = 10 << 20

func New(svc gql.Services, wsHandler *ws.Handler, sessions *session.Manager) (*gin.Engine, error) {
	var (
		router = gin.New()
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300 * time.Second,
	}))

	gqlHandler, err := gql.New(svc)
	if err != nil {
		return nil, err
	}

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.Use(gin.Logger())
		apiGroup.Use(withSession(sessions))

		apiGroup.Any("/graphql", gin.WrapH(gqlHandler))
		apiGroup.POST("/posts", createPost(svc.Posts))
		apiGroup.GET("/ws/feed", gin.WrapF(wsHandler.ServeFeed))

		apiGroup.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	}

	return router, nil
}

// withSession resolves the bearer token, if any, and threads the session
// through the request context. Requests without a valid token proceed
// unauthenticated; operations that need a viewer reject them themselves.
func withSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok {
			if sess, err := sessions.Verify(token); err == nil {
				ctx := session.WithContext(c.Request.Context(), sess, token)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

// createPost handles the multipart submission path: optional image plus
// content. The image upload happens inside the service so a failed upload
// aborts the whole post.
func createPost(posts *service.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := session.FromContext(c.Request.Context())
		if viewer == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		content := c.PostForm("content")
		anonymous := c.PostForm("anonymous") == "true"

		var image *service.PostImage
		file, header, err := c.Request.FormFile("image")
		if err == nil {
			defer file.Close()
			if header.Size > maxImageSize {
				c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
				return
			}
			contentType := header.Header.Get("Content-Type")
			if !allowedImageType(contentType) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type"})
				return
			}
			data, err := io.ReadAll(file)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
				return
			}
			image = &service.PostImage{
				Filename:    header.Filename,
				ContentType: contentType,
				Data:        data,
			}
		}

		post, err := posts.Create(c.Request.Context(), viewer, content, image, anonymous)
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNeedsOnboarding):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUploadFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed, post not created"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		default:
			c.JSON(http.StatusCreated, post)
		}
	}
}

func allowedImageType(contentType string) bool {
	allowed := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/jpg":  true,
	}
	return allowed[contentType]
}
