package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

// Store archives finished analyses as objects in a MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Keys returns the object keys for a persisted result. The user id is a
// single path segment.
func Keys(userID, id string) (jsonKey, textKey string) {
	base := path.Join(url.PathEscape(userID), url.PathEscape(id))
	return base + ".json", base + ".txt"
}

// Put implements analysis.Archive. It writes the JSON document and a plain
// text report, and returns the URL of the JSON object.
func (s *Store) Put(ctx context.Context, userID string, r *analysis.AnalysisResult) (string, error) {
	if !r.Persisted() {
		return "", fmt.Errorf("archive: result has no persisted id")
	}
	jsonKey, textKey := Keys(userID, r.ID)

	doc, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("archive: encode: %w", err)
	}
	if err := s.put(ctx, jsonKey, doc, "application/json"); err != nil {
		return "", err
	}

	var report bytes.Buffer
	if err := analysis.RenderText(&report, r); err != nil {
		return "", fmt.Errorf("archive: render: %w", err)
	}
	if err := s.put(ctx, textKey, report.Bytes(), "text/plain; charset=utf-8"); err != nil {
		return "", err
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	return fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, jsonKey), nil
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}
