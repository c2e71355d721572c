package bookgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/gcp"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

// Rehoster copies a transient image to permanent storage and returns its
// durable public URL.
type Rehoster interface {
	Rehost(ctx context.Context, transientURL string) (string, error)
}

const maxIllustrationBytes = 20 << 20

type assetRehoster struct {
	log    *logger.Logger
	bucket gcp.BucketService
	http   *http.Client
	now    func() time.Time
}

func NewRehoster(log *logger.Logger, bucket gcp.BucketService, httpClient *http.Client) Rehoster {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &assetRehoster{
		log:    log.With("service", "AssetRehoster"),
		bucket: bucket,
		http:   httpClient,
		now:    time.Now,
	}
}

func (r *assetRehoster) Rehost(ctx context.Context, transientURL string) (string, error) {
	const op = "bookgen.Rehost"
	data, contentType, err := r.fetch(ctx, strings.TrimSpace(transientURL))
	if err != nil {
		return "", domain.Wrap(domain.CodeAssetUpload, op, err)
	}
	if len(data) == 0 {
		return "", domain.NewError(domain.CodeAssetUpload, op, "transient image is empty", nil)
	}

	now := r.now().UTC()
	key := fmt.Sprintf("illustrations/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.New().String(), extensionFor(contentType))
	if err := r.bucket.UploadFile(ctx, gcp.BucketCategoryIllustration, key, bytes.NewReader(data), contentType); err != nil {
		return "", domain.Wrap(domain.CodeAssetUpload, op, err)
	}
	url := r.bucket.GetPublicURL(gcp.BucketCategoryIllustration, key)
	if url == "" {
		return "", domain.NewError(domain.CodeAssetUpload, op, "no public url for "+key, nil)
	}
	r.log.Debug("illustration rehosted", "key", key, "bytes", len(data))
	return url, nil
}

func (r *assetRehoster) fetch(ctx context.Context, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "data:") {
		du, err := dataurl.DecodeString(src)
		if err != nil {
			return nil, "", fmt.Errorf("decode data url: %w", err)
		}
		return du.Data, du.MediaType.ContentType(), nil
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return nil, "", fmt.Errorf("unsupported image location %q", src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIllustrationBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxIllustrationBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxIllustrationBytes)
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
