package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/speculative-artefact/compactImg/config"
	"github.com/speculative-artefact/compactImg/internal/cache"
	"github.com/speculative-artefact/compactImg/internal/logger"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

type MinioClient struct {
	client     *minioLib.Client
	httpClient *http.Client
	bucketName string
	urlExpiry  time.Duration
	cacheTTL   time.Duration
	urlCache   *cache.Manager[string]
	logger     zerolog.Logger
}

func NewClient(cfg *config.MinIOConfig, uploadCfg *config.UploadConfig) (storage.Client, error) {
	log := logger.GetLogger("minio-client")

	// Initialize MinIO client
	client, err := minioLib.New(cfg.Endpoint, &minioLib.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.SSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing MinIO client: %w", err)
	}

	mc := &MinioClient{
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucketName: cfg.Bucket,
		urlExpiry:  cfg.URLExpiry,
		cacheTTL:   uploadCfg.CacheTTL,
		urlCache:   cache.NewManager[string](5*time.Minute, 5*time.Minute),
		logger:     log,
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking if bucket exists: %w", err)
	}

	if !exists {
		err = client.MakeBucket(context.Background(), cfg.Bucket, minioLib.MakeBucketOptions{Region: cfg.Location})
		if err != nil {
			return nil, fmt.Errorf("error creating bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("Bucket created")
	} else {
		log.Info().Str("bucket", cfg.Bucket).Msg("Bucket already exists")
	}

	return mc, nil
}

// Upload writes a blob to MinIO with the configured cache lifetime and
// returns its time-limited URL reference.
func (m *MinioClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	opts := minioLib.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: fmt.Sprintf("public, max-age=%d", int(m.cacheTTL.Seconds())),
	}
	_, err := m.client.PutObject(ctx, m.bucketName, objectName, reader, size, opts)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("error uploading blob: %w", err)
	}

	url, err := m.ObjectURL(ctx, objectName)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	m.logger.Debug().Str("object", objectName).Msg("Blob uploaded successfully")
	return storage.ObjectInfo{URL: url, Pathname: objectName}, nil
}

// Fetch retrieves a blob through its URL reference. A non-2xx response is
// an error.
func (m *MinioClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building fetch request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch blob, status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading blob body: %w", err)
	}

	m.logger.Debug().Str("url", url).Int("size", len(data)).Msg("Blob fetched successfully")
	return data, nil
}

// ObjectURL generates a pre-signed URL for an object. URLs are cached for
// a fraction of their expiry so repeated lookups stay cheap.
func (m *MinioClient) ObjectURL(ctx context.Context, objectName string) (string, error) {
	if cached, err := m.urlCache.GetValue(objectName); err == nil && cached != "" {
		return cached, nil
	}

	url, err := m.client.PresignedGetObject(ctx, m.bucketName, objectName, m.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("error generating pre-signed URL: %w", err)
	}

	if err := m.urlCache.SetWithExpiration(objectName, url.String(), m.urlExpiry/2); err != nil {
		m.logger.Warn().Err(err).Str("object", objectName).Msg("Failed to cache object URL")
	}

	return url.String(), nil
}

// Close closes the MinIO client connection
func (m *MinioClient) Close() error {
	return nil
}
