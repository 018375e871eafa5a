package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Host      string
	Port      string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
}

func (c *S3Config) Endpoint() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// NewS3Conn создает клиент объектного хранилища
func NewS3Conn(cfg *S3Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint(), &minio.Options{
		Creds: credentials.NewStaticV4(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return client, nil
}

// S3Storage хранит копию файла объектом в бакете. Маркер ревизии не
// используется: объектное хранилище перезаписывает объект атомарно.
type S3Storage struct {
	client *minio.Client
	bucket string
	object string
}

func NewS3Storage(client *minio.Client, bucket, object string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		object: object,
	}
}

// Fetch получает текущее содержимое объекта. ETag возвращается как
// ревизия, но Upload его не требует.
func (s *S3Storage) Fetch(ctx context.Context) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to stat object: %w", err)
	}

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object: %w", err)
	}

	return content, info.ETag, nil
}

// Upload перезаписывает объект новым содержимым
func (s *S3Storage) Upload(ctx context.Context, content []byte, _ string) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		s.object,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}
