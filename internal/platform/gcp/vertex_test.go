package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	aiplatform "google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type fakeVertex struct {
	mu       sync.Mutex
	cached   map[string]map[string]any
	lastGen  map[string]any
	lastPath string
}

func (f *fakeVertex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPath = r.URL.Path
	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/cachedContents"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		name := path + "/123"
		body["name"] = name
		body["createTime"] = "2025-03-01T09:00:00Z"
		body["expireTime"] = "2025-03-01T10:00:00Z"
		f.cached[name] = body
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodGet && strings.Contains(path, "/cachedContents/"):
		body, ok := f.cached[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodDelete && strings.Contains(path, "/cachedContents/"):
		if _, ok := f.cached[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
			return
		}
		delete(f.cached, path)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":generateContent"):
		_ = json.NewDecoder(r.Body).Decode(&f.lastGen)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"questions\":"},{"text":"[]}"}]},"finishReason":"STOP"}]}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"unexpected request"}}`))
	}
}

func newFakeVertex(t *testing.T) (*fakeVertex, *aiplatform.Service, VertexConfig) {
	t.Helper()
	fake := &fakeVertex{cached: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	cfg := VertexConfig{ProjectID: "proj", Region: "us-central1", Endpoint: srv.URL + "/"}
	svc, err := NewVertexService(context.Background(), cfg, option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewVertexService: %v", err)
	}
	return fake, svc, cfg
}

func TestCachedContentLifecycle(t *testing.T) {
	fake, svc, cfg := newFakeVertex(t)
	cc, err := NewCachedContentService(logger.Nop(), svc, cfg)
	if err != nil {
		t.Fatalf("NewCachedContentService: %v", err)
	}
	ctx := context.Background()

	h, err := cc.Create(ctx, contextcache.CreateParams{
		ModelID:     "gemini-2.0-flash-001",
		Instruction: "analyze",
		Contents:    []contextcache.ContentRef{{URI: "gs://b/lesson-materials/f/a.pdf", MimeType: "application/pdf"}},
		TTL:         time.Hour,
		DisplayName: "lesson-materials-a",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	wantName := "projects/proj/locations/us-central1/cachedContents/123"
	if h.Name != wantName || h.Model != "gemini-2.0-flash-001" || h.DisplayName != "lesson-materials-a" {
		t.Fatalf("handle: got=%+v", h)
	}
	if h.ExpireTime.Sub(h.CreateTime) != time.Hour {
		t.Fatalf("expire-create: got=%s", h.ExpireTime.Sub(h.CreateTime))
	}
	stored := fake.cached[wantName]
	if stored["ttl"] != "3600s" {
		t.Fatalf("ttl on the wire: got=%v", stored["ttl"])
	}
	if stored["model"] != "projects/proj/locations/us-central1/publishers/google/models/gemini-2.0-flash-001" {
		t.Fatalf("model on the wire: got=%v", stored["model"])
	}

	if _, err := cc.Get(ctx, wantName); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := cc.Delete(ctx, wantName); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := cc.Get(ctx, wantName); !errors.Is(err, contextcache.ErrCacheNotFound) {
		t.Fatalf("Get after delete: want ErrCacheNotFound got=%v", err)
	}
	if err := cc.Delete(ctx, wantName); !errors.Is(err, contextcache.ErrCacheNotFound) {
		t.Fatalf("Delete twice: want ErrCacheNotFound got=%v", err)
	}
}

func TestGeneratorUsesCachedContent(t *testing.T) {
	fake, svc, cfg := newFakeVertex(t)
	gen, err := NewGenerator(logger.Nop(), svc, cfg, "gemini-2.0-flash-001")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	out, err := gen.Generate(context.Background(), curriculum.GenerateRequest{
		SystemInstruction: "be a curriculum architect",
		Prompt:            "plan please",
		CachedContent:     "projects/proj/locations/us-central1/cachedContents/123",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"questions":[]}` {
		t.Fatalf("text: got=%q", out)
	}
	if !strings.HasSuffix(fake.lastPath, "/publishers/google/models/gemini-2.0-flash-001:generateContent") {
		t.Fatalf("path: got=%s", fake.lastPath)
	}
	if fake.lastGen["cachedContent"] != "projects/proj/locations/us-central1/cachedContents/123" {
		t.Fatalf("cachedContent: got=%v", fake.lastGen["cachedContent"])
	}
	if _, ok := fake.lastGen["systemInstruction"]; ok {
		t.Fatalf("systemInstruction must not be sent alongside cached content")
	}
}

func TestFormatTTL(t *testing.T) {
	cases := map[time.Duration]string{
		time.Hour:               "3600s",
		90 * time.Second:        "90s",
		1500 * time.Millisecond: "1.5s",
	}
	for d, want := range cases {
		if got := formatTTL(d); got != want {
			t.Fatalf("formatTTL(%s): want=%q got=%q", d, want, got)
		}
	}
}
