package contextcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryManagedContext is an in-process ManagedContext for local development and
// tests. It enforces expiry the same way the hosted service does.
type MemoryManagedContext struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	creates int
}

type memoryEntry struct {
	handle   RemoteHandle
	contents []ContentRef
}

func NewMemoryManagedContext(now func() time.Time) *MemoryManagedContext {
	if now == nil {
		now = time.Now
	}
	return &MemoryManagedContext{entries: map[string]memoryEntry{}, now: now}
}

func (m *MemoryManagedContext) Create(ctx context.Context, p CreateParams) (RemoteHandle, error) {
	if err := ctx.Err(); err != nil {
		return RemoteHandle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.now()
	h := RemoteHandle{
		Name:        "cachedContents/" + uuid.NewString(),
		Model:       p.ModelID,
		DisplayName: p.DisplayName,
		CreateTime:  created,
		ExpireTime:  created.Add(p.TTL),
	}
	m.entries[h.Name] = memoryEntry{handle: h, contents: append([]ContentRef(nil), p.Contents...)}
	m.creates++
	return h, nil
}

func (m *MemoryManagedContext) Get(ctx context.Context, name string) (RemoteHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok || !m.now().Before(e.handle.ExpireTime) {
		delete(m.entries, name)
		return RemoteHandle{}, &NotFoundError{HandleID: name}
	}
	return e.handle, nil
}

func (m *MemoryManagedContext) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return &NotFoundError{HandleID: name}
	}
	delete(m.entries, name)
	return nil
}

// Creates reports how many contexts were created; tests use it to assert that
// validation failures never reach the service.
func (m *MemoryManagedContext) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *MemoryManagedContext) Contents(name string) []ContentRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ContentRef(nil), m.entries[name].contents...)
}
