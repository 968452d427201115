package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/models"
)

// UploadError marks a failed artifact upload. Fatal to the recording stage:
// without a durable URL there is nothing to record.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload artifact %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ArtifactStore keeps processed images in MinIO and hands out durable URLs.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

func NewArtifactStore(cfg config.MinIOConfig) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &ArtifactStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Upload stores a processed image under an account-scoped key and returns the
// durable URL. The key embeds class name and epoch millis; collisions within
// the same millisecond for the same account and class are accepted as
// best-effort.
func (s *ArtifactStore) Upload(ctx context.Context, img *models.ProcessedImage, account models.Account, predictedClass string, capturedAt time.Time) (*models.StoredArtifact, error) {
	key := ArtifactKey(account, predictedClass, capturedAt)

	reader := bytes.NewReader(img.Data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}

	return &models.StoredArtifact{
		URL: s.objectURL(key),
		Key: key,
	}, nil
}

// GetObject retrieves artifact bytes by key (catalog slideshow clients).
func (s *ArtifactStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// objectURL builds the public-read URL for a stored key. The bucket carries a
// public download policy, mirroring how mobile clients fetch images directly.
func (s *ArtifactStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.client.EndpointURL().String(), "/"), s.bucket, key)
}

// Ping checks MinIO connectivity.
func (s *ArtifactStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// ArtifactKey derives the storage path for one identification:
// images/guests/<class>_<epochMillis>.jpg for guests,
// images/users/<accountID>/<class>_<epochMillis>.jpg for registered accounts.
func ArtifactKey(account models.Account, predictedClass string, capturedAt time.Time) string {
	name := fmt.Sprintf("%s_%d.jpg", sanitizeClass(predictedClass), capturedAt.UnixMilli())
	if account.IsGuest() {
		return "images/guests/" + name
	}
	return "images/users/" + account.ID + "/" + name
}

// sanitizeClass makes a class name safe as an object key segment.
func sanitizeClass(class string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, class)
}
