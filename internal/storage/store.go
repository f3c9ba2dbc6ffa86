package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes bounds a single bill image upload.
const MaxUploadBytes = 10 << 20

var (
	ErrTooLarge          = errors.New("storage: file exceeds 10 MiB")
	ErrUnsupportedType   = errors.New("storage: only images and PDF files are accepted")
	ErrEmpty             = errors.New("storage: file is empty")
	ErrNotFound          = errors.New("storage: object not found")
	ErrInvalidSignature  = errors.New("storage: invalid or expired signature")
	errNoStoreConfigured = errors.New("storage: no store configured")
)

// Store persists bill images and hands out short-lived URLs to them.
type Store interface {
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// BillKey builds the storage key for a new upload by userID.
func BillKey(userID, filename, contentType string) string {
	return path.Join("bills", userID, uuid.NewString()+extensionFor(filename, contentType))
}

// DetectContentType sniffs data and rejects anything that is not an image or PDF.
func DetectContentType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "image/") || ct == "application/pdf" {
		return ct, nil
	}
	return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, ct)
}

func extensionFor(filename, contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) > 1 && len(ext) <= 6 {
		return ext
	}
	return ".bin"
}
