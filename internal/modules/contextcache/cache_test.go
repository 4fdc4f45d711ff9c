package contextcache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type blobFake struct {
	mu      sync.Mutex
	objects map[string]bool
	puts    int
}

func (b *blobFake) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[key], nil
}

func (b *blobFake) Put(ctx context.Context, key string, r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = true
	b.puts++
	return nil
}

func (b *blobFake) URI(key string) string { return "gs://bucket/" + key }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	cache  *ContextCache
	remote *MemoryManagedContext
	blobs  *blobFake
	clock  *fakeClock
	reg    *MemoryRegistry
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	blobs := &blobFake{objects: map[string]bool{}}
	stager, err := materials.NewStager(logger.Nop(), blobs, materials.StagerConfig{})
	if err != nil {
		t.Fatalf("NewStager: %v", err)
	}
	remote := NewMemoryManagedContext(clock.Now)
	reg := NewMemoryRegistry()
	cache, err := New(logger.Nop(), stager, remote, Config{
		Model:              "gemini-test",
		DefaultInstruction: "analyze the course materials",
	}, WithRegistry(reg), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{cache: cache, remote: remote, blobs: blobs, clock: clock, reg: reg, dir: t.TempDir()}
}

func (h *harness) file(t *testing.T, name, content string) materials.FileRef {
	t.Helper()
	p := filepath.Join(h.dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return materials.FileRef{Path: p}
}

func TestCreate(t *testing.T) {
	h := newHarness(t)
	files := []materials.FileRef{h.file(t, "lecture_01.pdf", "one"), h.file(t, "textbook.docx", "two")}

	handle, err := h.cache.Create(context.Background(), CreateInput{Files: files, TTL: time.Hour})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if handle.HandleID == "" {
		t.Fatalf("handle id: want non-empty")
	}
	if !handle.ExpiresAt.After(handle.CreatedAt) {
		t.Fatalf("expires_at must be after created_at: %s vs %s", handle.ExpiresAt, handle.CreatedAt)
	}
	if handle.ExpiresAt.Sub(handle.CreatedAt) != time.Hour {
		t.Fatalf("ttl passthrough: got=%s", handle.ExpiresAt.Sub(handle.CreatedAt))
	}
	if len(handle.StagedFiles) != 2 {
		t.Fatalf("staged files: want=2 got=%d", len(handle.StagedFiles))
	}
	if handle.DisplayName != "lesson-materials-lecture_01" {
		t.Fatalf("display name: got=%q", handle.DisplayName)
	}
	if handle.InstructionText != "analyze the course materials" {
		t.Fatalf("instruction default: got=%q", handle.InstructionText)
	}
	contents := h.remote.Contents(handle.HandleID)
	if len(contents) != 2 || contents[1].MimeType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("remote contents: got=%+v", contents)
	}
	if _, ok, _ := h.reg.Get(context.Background(), handle.HandleID); !ok {
		t.Fatalf("registry: handle not recorded")
	}
}

func TestCreateRejectsBeforeRemoteCall(t *testing.T) {
	h := newHarness(t)
	f := h.file(t, "a.pdf", "a")

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"zero ttl", CreateInput{Files: []materials.FileRef{f}, TTL: 0}, ErrInvalidTTL},
		{"negative ttl", CreateInput{Files: []materials.FileRef{f}, TTL: -time.Minute}, ErrInvalidTTL},
		{"no files", CreateInput{TTL: time.Hour}, ErrEmptyCache},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.cache.Create(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v got=%v", tc.want, err)
			}
		})
	}
	if h.remote.Creates() != 0 || h.blobs.puts != 0 {
		t.Fatalf("remote calls: creates=%d puts=%d, want 0", h.remote.Creates(), h.blobs.puts)
	}
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	handle, err := h.cache.Create(context.Background(), CreateInput{Files: []materials.FileRef{h.file(t, "s.pdf", "x")}, TTL: time.Hour})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	info, err := h.cache.Info(context.Background(), handle.HandleID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Name != handle.HandleID || info.Model != "gemini-test" || info.DisplayName != "lesson-materials-s" {
		t.Fatalf("info: got=%+v", info)
	}
}

func TestInfoExpiredAndMissingAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	handle, err := h.cache.Create(context.Background(), CreateInput{Files: []materials.FileRef{h.file(t, "s.pdf", "x")}, TTL: time.Minute})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.clock.Advance(2 * time.Minute)

	_, expiredErr := h.cache.Info(context.Background(), handle.HandleID)
	_, missingErr := h.cache.Info(context.Background(), "cachedContents/never-existed")
	for name, err := range map[string]error{"expired": expiredErr, "missing": missingErr} {
		if !errors.Is(err, ErrCacheNotFound) {
			t.Fatalf("%s: want ErrCacheNotFound got=%v", name, err)
		}
	}
	if _, ok, _ := h.reg.Get(context.Background(), handle.HandleID); ok {
		t.Fatalf("registry: expired handle should be dropped")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	h := newHarness(t)
	handle, err := h.cache.Create(context.Background(), CreateInput{Files: []materials.FileRef{h.file(t, "s.pdf", "x")}, TTL: time.Hour})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.cache.Delete(context.Background(), handle.HandleID); err != nil {
			t.Fatalf("Delete #%d: %v", i+1, err)
		}
	}
	if _, err := h.cache.Info(context.Background(), handle.HandleID); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Info after delete: want ErrCacheNotFound got=%v", err)
	}
}

func TestDeleteExpiredIsNoop(t *testing.T) {
	h := newHarness(t)
	handle, err := h.cache.Create(context.Background(), CreateInput{Files: []materials.FileRef{h.file(t, "s.pdf", "x")}, TTL: time.Second})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.clock.Advance(time.Minute)
	if _, err := h.remote.Get(context.Background(), handle.HandleID); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("remote should have expired the handle: %v", err)
	}
	if err := h.cache.Delete(context.Background(), handle.HandleID); err != nil {
		t.Fatalf("Delete expired: %v", err)
	}
}

type failingRemote struct{ MemoryManagedContext }

func (f *failingRemote) Delete(ctx context.Context, name string) error {
	return errors.New("permission denied")
}

func TestDeleteSurfacesRemoteFailure(t *testing.T) {
	h := newHarness(t)
	h.cache.remote = &failingRemote{}
	err := h.cache.Delete(context.Background(), "cachedContents/x")
	var ce *CacheError
	if !errors.As(err, &ce) || ce.Op != "delete" || ce.HandleID != "cachedContents/x" {
		t.Fatalf("want CacheError{delete} got=%v", err)
	}
}
