package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"recipeagent"
	"recipeagent/catalog"
)

// FromConfig builds the catalog.Store selected by cfg.Backend.
func FromConfig(ctx context.Context, cfg recipeagent.CatalogConfig) (catalog.Store, error) {
	switch cfg.Backend {
	case "file":
		slog.Info("STORAGE: loading catalog snapshot from file", "path", cfg.FilePath)
		return NewSnapshotStore(ctx, NewFileSource(cfg.FilePath))

	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("CATALOG_S3_BUCKET is required for the s3 catalog backend")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		slog.Info("STORAGE: loading catalog snapshot from S3", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
		return NewSnapshotStore(ctx, NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key))

	case "sql":
		db, err := OpenDB(cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		slog.Info("STORAGE: using SQL catalog", "driver", cfg.SQLDriver)
		return NewGormStore(db), nil

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}
}
