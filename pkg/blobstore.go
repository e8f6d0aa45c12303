package pkg

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore puts uploaded bytes on disk and hands back an opaque ref. The
// message ledger stores only the ref; nothing in the core ever reads the
// bytes back.
type BlobStore struct {
	dir     string
	maxSize int64
}

// NewBlobStore ensures the upload directory exists.
func NewBlobStore(dir string, maxSize int64) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &BlobStore{dir: dir, maxSize: maxSize}, nil
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg":           true,
	"image/png":            true,
	"image/gif":            true,
	"image/webp":           true,
	"application/pdf":      true,
	"text/plain":           true,
	"application/epub+zip": true,
}

// Put validates and stores one uploaded file, returning the blob ref.
func (b *BlobStore) Put(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > b.maxSize {
		return "", fmt.Errorf("%w: file too large (max %dMB)", ErrValidation, b.maxSize/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	mimeBase := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if !allowedMimeTypes[mimeBase] {
		return "", fmt.Errorf("%w: file type not allowed: %s", ErrValidation, mimeBase)
	}

	// {random_hex}_{sanitized_name} keeps refs unique and path-safe.
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate blob ref: %w", err)
	}
	ref := hex.EncodeToString(randomBytes) + "_" + sanitizeFilename(header.Filename)

	destPath := filepath.Join(b.dir, ref)
	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create blob file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// Open returns the stored bytes behind a ref for serving.
func (b *BlobStore) Open(ref string) (*os.File, error) {
	clean := sanitizeFilename(ref)
	if clean != ref {
		return nil, fmt.Errorf("%w: bad blob ref", ErrValidation)
	}
	f, err := os.Open(filepath.Join(b.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob", ErrNotFound)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// sanitizeFilename strips directory components and dangerous characters so a
// ref can never escape the upload dir.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
