package objectstore

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Endpoint:      "localhost:9000",
		AccessKey:     "a",
		SecretKey:     "b",
		Region:        "us-east-1",
		BucketMedia:   "card-media",
		PresignExpiry: time.Minute,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	withScheme := validConfig()
	withScheme.Endpoint = "http://localhost:9000"
	if err := withScheme.Validate(); err == nil {
		t.Fatalf("Validate() expected error for scheme in endpoint")
	}

	longExpiry := validConfig()
	longExpiry.PresignExpiry = 8 * 24 * time.Hour
	if err := longExpiry.Validate(); err == nil {
		t.Fatalf("Validate() expected error for expiry over 7 days")
	}
}

func TestConfigFromEnv_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("EVENTDECK_MINIO_ENDPOINT", "")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Enabled() {
		t.Fatalf("Enabled()=true, want false")
	}
}

func TestConfigFromEnv_RequiresCredentials(t *testing.T) {
	t.Setenv("EVENTDECK_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("EVENTDECK_MINIO_ACCESS_KEY", "")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected error without access key")
	}
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("card-1", `C:\photos\stage.png`)
	if err != nil {
		t.Fatalf("ObjectKey() err=%v", err)
	}
	if !strings.HasPrefix(key, "cards/card-1/") || !strings.HasSuffix(key, "/stage.png") {
		t.Fatalf("ObjectKey()=%q", key)
	}

	for _, tc := range []struct{ card, file string }{
		{"", "a.png"},
		{"a/b", "a.png"},
		{"card-1", ""},
		{"card-1", "../"},
	} {
		if _, err := ObjectKey(tc.card, tc.file); err == nil {
			t.Fatalf("ObjectKey(%q, %q) expected error", tc.card, tc.file)
		}
	}
}

func TestPresignUpload(t *testing.T) {
	media, err := NewMedia(validConfig())
	if err != nil {
		t.Fatalf("NewMedia() err=%v", err)
	}
	upload, err := media.PresignUpload(context.Background(), "card-1", "poster.jpg")
	if err != nil {
		t.Fatalf("PresignUpload() err=%v", err)
	}
	u, err := url.Parse(upload.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "localhost:9000" || !strings.Contains(u.Path, "/card-media/cards/card-1/") {
		t.Fatalf("URL=%q", upload.URL)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Fatalf("URL missing signature: %q", upload.URL)
	}
}
