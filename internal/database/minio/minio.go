package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"adjudication-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client for verification document storage.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names used by the adjudication service.
var Storage = struct {
	VerificationDocuments string
}{
	VerificationDocuments: "verification-documents",
}

var BucketNames = []string{
	Storage.VerificationDocuments,
}

// NewMinioClient initializes a MinIO client and verifies connectivity.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("Invalid value for MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err = minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{client: minioClient, config: cfg}
	if err := mc.ensureBuckets(ctx); err != nil {
		return nil, err
	}

	slog.Info("Connected to MinIO", "endpoint", cfg.MinioURL)
	return mc, nil
}

func (m *MinioClient) ensureBuckets(ctx context.Context) error {
	for _, bucket := range BucketNames {
		exists, err := m.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.config.MinioLocation})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		slog.Info("Created bucket", "bucket", bucket)
	}
	return nil
}

// PutDocument stores document bytes and returns the object key.
func (m *MinioClient) PutDocument(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, Storage.VerificationDocuments, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", key, err)
	}
	return nil
}

// GetDocument fetches document bytes by object key.
func (m *MinioClient) GetDocument(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, Storage.VerificationDocuments, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return data, nil
}
