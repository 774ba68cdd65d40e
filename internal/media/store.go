package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store persists image bytes under a key and maps keys to public URLs.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns a fresh object key such as "recipes/<uuid>.png".
func NewKey(prefix, ext string) string {
	return path.Join(prefix, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
}

// validKey rejects keys that would escape the store root.
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("media: invalid key %q", key)
	}
	return nil
}

func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + key
}
