package objectstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/platform/env"
)

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	BucketMedia   string
	PresignExpiry time.Duration
}

// ConfigFromEnv returns a zero Config when EVENTDECK_MINIO_ENDPOINT is unset;
// media uploads are then disabled.
func ConfigFromEnv() (Config, error) {
	endpoint := strings.TrimSpace(env.String("EVENTDECK_MINIO_ENDPOINT", ""))
	if endpoint == "" {
		return Config{}, nil
	}
	useSSL, err := env.Bool("EVENTDECK_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	expiry, err := env.Duration("EVENTDECK_MINIO_PRESIGN_EXPIRY", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:      endpoint,
		AccessKey:     env.String("EVENTDECK_MINIO_ACCESS_KEY", ""),
		SecretKey:     env.String("EVENTDECK_MINIO_SECRET_KEY", ""),
		Region:        env.String("EVENTDECK_MINIO_REGION", "us-east-1"),
		UseSSL:        useSSL,
		BucketMedia:   env.String("EVENTDECK_MINIO_BUCKET_MEDIA", "card-media"),
		PresignExpiry: expiry,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketMedia) == "" {
		return errors.New("media bucket is required")
	}
	// S3 caps presigned URLs at seven days.
	if c.PresignExpiry <= 0 || c.PresignExpiry > 7*24*time.Hour {
		return fmt.Errorf("presign expiry must be in (0, 168h] (got %s)", c.PresignExpiry)
	}
	return nil
}
