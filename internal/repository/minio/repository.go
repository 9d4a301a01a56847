package minio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/divyamagg2005/CampusVerse/config"
)

type minioStorage struct {
	cli       *minio.Client
	bucket    string
	publicURL string
}

func New(conf config.MinIO) (*minioStorage, error) {
	client, err := minio.New(fmt.Sprintf("%s:%s", conf.Host, conf.Port), &minio.Options{
		Creds:  credentials.NewStaticV4(conf.User, conf.Pass, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil || !exists {
		err = client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("bucket creation error: %v", err)
		}
	}

	storage := &minioStorage{
		cli:       client,
		bucket:    conf.Bucket,
		publicURL: conf.PublicURL,
	}
	return storage, nil
}

func (ms *minioStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := ms.cli.PutObject(
		ctx,
		ms.bucket,
		path,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("cli.PutObject: %v", err)
	}
	return nil
}

func (ms *minioStorage) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", ms.publicURL, ms.bucket, path)
}
