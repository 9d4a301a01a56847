package app

import (
	"context"
	"fmt"

	"github.com/divyamagg2005/CampusVerse/config"
	v1 "github.com/divyamagg2005/CampusVerse/internal/handlers/http/v1"
	"github.com/divyamagg2005/CampusVerse/internal/handlers/http/v1/graphql"
	"github.com/divyamagg2005/CampusVerse/internal/handlers/http/v1/ws"
	"github.com/divyamagg2005/CampusVerse/internal/httpserver"
	"github.com/divyamagg2005/CampusVerse/internal/realtime"
	"github.com/divyamagg2005/CampusVerse/internal/repository/minio"
	"github.com/divyamagg2005/CampusVerse/internal/repository/postgres"
	"github.com/divyamagg2005/CampusVerse/internal/service"
	"github.com/divyamagg2005/CampusVerse/internal/session"
)

func Run(conf config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := postgres.New(conf.Postgres)
	if err != nil {
		return fmt.Errorf("error when setting up repository: %v", err)
	}
	defer repo.Close()

	storage, err := minio.New(conf.MinIO)
	if err != nil {
		return fmt.Errorf("error when setting up object storage: %v", err)
	}

	listener, err := realtime.NewListener(conf.Postgres, conf.Realtime)
	if err != nil {
		return fmt.Errorf("error when setting up realtime listener: %v", err)
	}
	go listener.Run(ctx)

	sessions := session.NewManager(conf.Auth, repo.Users())

	svc := graphql.Services{
		Auth:     service.NewAuthService(sessions, repo.Users()),
		Feed:     service.NewFeedService(repo, listener),
		Comments: service.NewCommentService(repo, listener),
		Likes:    service.NewLikeService(repo, listener),
		Posts:    service.NewPostService(repo, storage),
	}
	wsHandler := ws.New(svc.Feed, svc.Comments, svc.Likes)

	handler, err := v1.New(svc, wsHandler, sessions)
	if err != nil {
		return fmt.Errorf("error when setting up handler: %v", err)
	}

	httpserver := httpserver.New(conf.HTTPServer, handler)

	return httpserver.Run(ctx)
}
