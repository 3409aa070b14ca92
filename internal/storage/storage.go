package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/carmate-contracts/internal/config"
)

type Category string

const (
	CategoryContractDocument Category = "contract-documents"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Gateway stores blobs under a category and hands back an opaque key that
// is later used to open or delete the blob.
type Gateway interface {
	Store(ctx context.Context, category Category, name string, content []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is idempotent: deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}

// New returns the backend selected by cfg.Mode. The choice is made once at
// startup; callers never branch on the mode themselves.
func New(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (Gateway, error) {
	log = log.With().Str("component", "storage").Str("mode", string(cfg.Mode)).Logger()

	switch cfg.Mode {
	case config.StorageModeLocal:
		gw, err := NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.LocalDir).Msg("object storage initialized")
		return gw, nil
	case config.StorageModeMinio:
		gw, err := NewMinio(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("endpoint", cfg.MinioEndpoint).Str("bucket", cfg.MinioBucket).Msg("object storage initialized")
		return gw, nil
	default:
		return nil, fmt.Errorf("invalid STORAGE_MODE=%q", cfg.Mode)
	}
}

func objectKey(category Category, name string) (string, error) {
	name = strings.TrimSpace(name)
	if category == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return string(category) + "/" + name, nil
}

func validateKey(key string) error {
	if key == "" || path.Clean(key) != key || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
