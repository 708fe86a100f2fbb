package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Upload is a presigned PUT target for one media object.
type Upload struct {
	URL       string
	ObjectKey string
	ExpiresAt time.Time
}

// Media hands out presigned uploads into the card media bucket.
type Media struct {
	client *minio.Client
	bucket string
	region string
	expiry time.Duration
}

func NewMedia(cfg Config) (*Media, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Media{client: client, bucket: cfg.BucketMedia, region: cfg.Region, expiry: cfg.PresignExpiry}, nil
}

func (m *Media) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("media bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("make media bucket: %w", err)
	}
	return nil
}

func (m *Media) CheckBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("media bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("media bucket missing: %s", m.bucket)
	}
	return nil
}

// PresignUpload signs a PUT for a fresh object under the card's prefix.
func (m *Media) PresignUpload(ctx context.Context, cardID, filename string) (Upload, error) {
	key, err := ObjectKey(cardID, filename)
	if err != nil {
		return Upload{}, err
	}
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.expiry)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}
	return Upload{
		URL:       u.String(),
		ObjectKey: key,
		ExpiresAt: time.Now().UTC().Add(m.expiry),
	}, nil
}

// ObjectKey builds cards/<card id>/<uuid>/<base name>.
func ObjectKey(cardID, filename string) (string, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" || strings.ContainsAny(cardID, "/\\") {
		return "", fmt.Errorf("invalid card id %q", cardID)
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", errors.New("filename is required")
	}
	return path.Join("cards", cardID, uuid.NewString(), name), nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
