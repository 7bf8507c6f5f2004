package minioad

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// Storage keeps video feedback blobs in a single MinIO bucket.
type Storage struct {
	c      *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey string, secure bool, bucket string) (*Storage, error) {
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return &Storage{c: c, bucket: bucket}, nil
}

// EnsureBucket creates the bucket when missing; called once at startup.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	ok, err := s.c.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := s.c.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return err
	}
	log.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

func (s *Storage) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := s.c.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *Storage) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.c.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Storage) Remove(ctx context.Context, name string) error {
	return s.c.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}
