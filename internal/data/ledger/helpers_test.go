package ledger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (s *memStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key], nil
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = true
	return nil
}

func (s *memStore) URI(key string) string { return "gs://bucket/" + key }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

type listingStore struct {
	objects map[string]time.Time
}

func (s *listingStore) List(ctx context.Context, prefix string) ([]materials.StoredObject, error) {
	var out []materials.StoredObject
	for k, updated := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, materials.StoredObject{Key: k, Updated: updated})
		}
	}
	return out, nil
}

func (s *listingStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}
