package utils

import (
	"context"
	"io"
	"time"
)

// FileStore persists uploaded files under a key that is stored in the DB.
type FileStore interface {
	SaveFile(ctx context.Context, subDir, originalFilename string, reader io.Reader) (string, error)
	DeleteFile(ctx context.Context, key string) error
	// URL returns a client-reachable URL for key.
	URL(ctx context.Context, key string) (string, error)
}

const presignTTL = time.Hour
