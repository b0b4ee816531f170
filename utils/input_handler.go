package utils

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// UploadKey builds "<yyyymmdd_hhmmss>_<slug><ext>" so uploads of the same file never collide
// across seconds and keys stay URL-safe.
func UploadKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s_%s%s", now.UTC().Format("20060102_150405"), base, ext)
}

// DetectContentType prefers the client-sent header and falls back to the extension.
func DetectContentType(filename, header string) string {
	if header != "" {
		return header
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
