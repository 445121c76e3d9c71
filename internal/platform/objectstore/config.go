package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mosaic-labs/mosaic-go/internal/platform/env"
)

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	BucketServe   string
	BucketPersist string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("MOSAIC_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:      env.String("MOSAIC_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:     env.String("MOSAIC_MINIO_ACCESS_KEY", "mosaic"),
		SecretKey:     env.String("MOSAIC_MINIO_SECRET_KEY", "mosaicminio"),
		Region:        env.String("MOSAIC_MINIO_REGION", "us-east-1"),
		UseSSL:        useSSL,
		BucketServe:   env.String("MOSAIC_MINIO_BUCKET_SERVE", "mfe-serve"),
		BucketPersist: env.String("MOSAIC_MINIO_BUCKET_PERSIST", "mfe-persist"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
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
	if strings.TrimSpace(c.BucketServe) == "" {
		return errors.New("serve bucket is required")
	}
	if strings.TrimSpace(c.BucketPersist) == "" {
		return errors.New("persist bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
