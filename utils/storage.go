package utils

import (
	"context"
	"fmt"
	"io"

	"github.com/vnkhanh/dbsec-lab/config"
)

// ObjectStore is where uploaded assets and archived snapshots go.
type ObjectStore interface {
	// Upload stores body under key and returns the object's public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "supabase":
		return NewSupabaseStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Backend)
	}
}
