package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
)

// Store persists JSON documents by key.
//
// Implementations are safe for concurrent use.
type Store interface {
	// Load decodes the value saved under key into dst.
	// Returns false with a nil error if nothing was saved.
	Load(ctx context.Context, key string, dst any) (bool, error)

	// Save encodes v as JSON and stores it under key, replacing any
	// previous value.
	Save(ctx context.Context, key string, v any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// HealthCheck confirms the backend is usable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend. Later calls return ErrClosed.
	Close() error
}

// Open opens the backend selected by cfg.Backend.
//
// Parameters:
//   - ctx: Bounds opening and migrating the backend
//   - cfg: Storage configuration
//
// Returns:
//   - Store: Ready store
//   - error: ErrUnknownBackend, or the backend's open error
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.StorageBackendSQLite:
		return OpenSQLite(ctx, cfg.SQLite)
	case config.StorageBackendBolt:
		return OpenBolt(cfg.Bolt.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func encode(key string, v any) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %q: %w", key, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}
