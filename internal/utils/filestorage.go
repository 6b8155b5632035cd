package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStorage keeps uploads on local disk and serves them from BaseURL/uploads.
type FileStorage struct {
	BaseDir string // e.g. "./uploads"
	BaseURL string // e.g. "http://localhost:8080"
}

func NewFileStorage(baseDir, baseURL string) *FileStorage {
	return &FileStorage{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// path resolves key below BaseDir and refuses keys that escape it.
func (fs *FileStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(fs.BaseDir, clean), nil
}

// SaveFile writes reader to <BaseDir>/<subDir>/<uuid><ext> and returns the
// slash-separated key relative to BaseDir, e.g. "academy-logos/ACD00ABCDE/<uuid>.png".
func (fs *FileStorage) SaveFile(_ context.Context, subDir, originalFilename string, reader io.Reader) (string, error) {
	key := filepath.ToSlash(filepath.Join(subDir, uuid.NewString()+strings.ToLower(filepath.Ext(originalFilename))))
	full, err := fs.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	out, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", full, err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", full, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", full, err)
	}
	return key, nil
}

// DeleteFile removes key. A missing file is not an error.
func (fs *FileStorage) DeleteFile(_ context.Context, key string) error {
	full, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", full, err)
	}
	return nil
}

func (fs *FileStorage) URL(_ context.Context, key string) (string, error) {
	return fs.BaseURL + "/uploads/" + key, nil
}
