// Package storage is the file-storage collaborator: it durably holds document
// bytes and hands back an opaque reference. The engine never assumes a
// particular backend; MinIO/S3 and an in-memory store are both provided.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore stores and retrieves document bytes by opaque reference.
type ObjectStore interface {
	// Put stores the bytes under the given object name and returns the
	// reference to retrieve them with.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)

	// Get returns a reader for the stored bytes. Returns
	// apperrors.ErrNotFound if the reference does not resolve.
	Get(ctx context.Context, reference string) (io.ReadCloser, error)

	// Delete removes the stored bytes. Returns apperrors.ErrNotFound if the
	// reference does not resolve; callers doing best-effort cleanup treat
	// that as benign.
	Delete(ctx context.Context, reference string) error
}

// CollisionSafeName derives a storage object name from a caller-supplied
// filename. Two uploads with identical captured filenames must never collide
// in the store's namespace, so a random suffix is inserted before the
// extension. The original name is kept verbatim in the document record.
func CollisionSafeName(original string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := sanitizeStem(strings.TrimSuffix(base, ext))
	return fmt.Sprintf("%s-%s%s", stem, uuid.New().String(), strings.ToLower(ext))
}

// sanitizeStem reduces a filename stem to characters safe in any object-store
// key. Everything outside [a-zA-Z0-9._-] becomes an underscore.
func sanitizeStem(stem string) string {
	if stem == "" {
		return "document"
	}
	var b strings.Builder
	b.Grow(len(stem))
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
