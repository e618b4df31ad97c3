package storage

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-letters/config"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

func FromConfig(ctx context.Context, cfg config.StorageConfig) (FactoryResult, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "local"
	}

	switch driver {
	case "local":
		return FactoryResult{Driver: "local", Storage: NewLocal(cfg.LocalDir, cfg.LocalURL)}, nil

	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET required")
		}
		s, err := NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBase,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", driver)
	}
}
