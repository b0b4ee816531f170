package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/dbsec-lab/config"
	"github.com/vnkhanh/dbsec-lab/oops"
)

type SupabaseStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

func NewSupabaseStorage(cfg config.StorageConfig) (*SupabaseStorage, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("SUPABASE_URL or SUPABASE_KEY is not configured")
	}
	baseURL := strings.TrimRight(cfg.SupabaseURL, "/")
	return &SupabaseStorage{
		client:  storage.NewClient(baseURL+"/storage/v1", cfg.SupabaseKey, nil),
		baseURL: baseURL,
		bucket:  cfg.SupabaseBucket,
	}, nil
}

// Upload puts the object at <bucket>/<key>; the bucket is expected to be public.
func (s *SupabaseStorage) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	options := storage.FileOptions{
		ContentType: &contentType,
	}
	if _, err := s.client.UploadFile(s.bucket, key, body, options); err != nil {
		return "", oops.New(err, "failed to upload %s to supabase", key)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key), nil
}
