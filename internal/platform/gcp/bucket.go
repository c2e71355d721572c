package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryIllustration BucketCategory = "illustration"
)

type BucketConfig struct {
	Storage               ObjectStorageConfig
	IllustrationBucket    string
	IllustrationCDNDomain string
	// PublicBaseURL overrides the host used in public URLs (for example a
	// browser-reachable emulator address).
	PublicBaseURL string
	// Credentials is either a JSON key or a path to one. Empty uses ADC.
	Credentials string
	UploadTimeout time.Duration
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader, contentType string) error
	GetPublicURL(category BucketCategory, key string) string
	Close() error
}

type bucket struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log                *logger.Logger
	storageClient      *storage.Client
	storageMode        ObjectStorageMode
	emulatorHost       string
	illustrationBucket bucket
	publicBaseURL      string
	uploadTimeout      time.Duration
}

func NewBucketService(log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if strings.TrimSpace(cfg.IllustrationBucket) == "" {
		return nil, fmt.Errorf("missing env var ILLUSTRATION_GCS_BUCKET_NAME")
	}
	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}

	stClient, err := newStorageClientForMode(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog := log.With("service", "BucketService")
	serviceLog.Info("Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"illustration_bucket", cfg.IllustrationBucket,
	)

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return newBucketService(serviceLog, stClient, cfg, publicBaseURL, timeout), nil
}

func newBucketService(log *logger.Logger, client *storage.Client, cfg BucketConfig, publicBaseURL string, timeout time.Duration) *bucketService {
	return &bucketService{
		log:           log,
		storageClient: client,
		storageMode:   cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		illustrationBucket: bucket{
			name:      strings.TrimSpace(cfg.IllustrationBucket),
			cdnDomain: strings.TrimSpace(cfg.IllustrationCDNDomain),
		},
		publicBaseURL: publicBaseURL,
		uploadTimeout: timeout,
	}
}

func newStorageClientForMode(ctx context.Context, cfg BucketConfig) (*storage.Client, error) {
	switch cfg.Storage.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client only honors the emulator through this variable.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.Storage.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Storage.Mode)}
	}
}

func resolvePublicBaseURL(cfg BucketConfig) (baseURL string, source string, err error) {
	raw := strings.TrimSpace(cfg.PublicBaseURL)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.Storage.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (bs *bucketService) getBucket(category BucketCategory) (bucket, error) {
	switch category {
	case BucketCategoryIllustration:
		return bs.illustrationBucket, nil
	default:
		return bucket{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader, contentType string) error {
	b, err := bs.getBucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, bs.uploadTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = contentTypeForKey(key)
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Debug("Uploaded object", "bucket", b.name, "key", key)
	return nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	b, err := bs.getBucket(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.emulatorMediaURL(b.name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, b.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}

func (bs *bucketService) emulatorMediaURL(bucketName, key string) string {
	base := bs.publicBaseURL
	if base == "" {
		base = bs.emulatorHost
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucketName), url.PathEscape(key))
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
