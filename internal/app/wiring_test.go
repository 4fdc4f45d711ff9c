package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/config"
	apphttp "github.com/yungbote/neurobridge-curriculum/internal/http"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type nopStore struct{}

func (nopStore) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (nopStore) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}
func (nopStore) URI(key string) string { return "gs://bucket/" + key }

type staticGenerator struct{}

func (staticGenerator) Generate(ctx context.Context, req curriculum.GenerateRequest) (string, error) {
	return `{"message":"?","questions":[{"question":"Which language?","field_name":"programming_language"}]}`, nil
}

func TestWireRegistry(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"", "none"} {
		r, c, err := wireRegistry(ctx, logger.Nop(), config.CacheConfig{Registry: name})
		if err != nil || r != nil || c != nil {
			t.Fatalf("registry %q: want nil got=%v err=%v", name, r, err)
		}
	}
	r, _, err := wireRegistry(ctx, logger.Nop(), config.CacheConfig{Registry: "memory"})
	if err != nil {
		t.Fatalf("memory registry: %v", err)
	}
	if _, ok := r.(*contextcache.MemoryRegistry); !ok {
		t.Fatalf("memory registry: got=%T", r)
	}
	if _, _, err := wireRegistry(ctx, logger.Nop(), config.CacheConfig{Registry: "etcd"}); err == nil {
		t.Fatalf("unknown registry: want error")
	}
}

func TestWireLedger(t *testing.T) {
	repo, closeFn, err := wireLedger(logger.Nop(), config.LedgerConfig{Driver: "none"})
	if err != nil || repo != nil || closeFn != nil {
		t.Fatalf("none: repo=%v err=%v", repo, err)
	}
	repo, closeFn, err = wireLedger(logger.Nop(), config.LedgerConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "l.db")})
	if err != nil || repo == nil {
		t.Fatalf("sqlite: repo=%v err=%v", repo, err)
	}
	if err := closeFn(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWireManagedContextWithoutProject(t *testing.T) {
	cfg := config.Default()
	remote, gen, err := wireManagedContext(context.Background(), logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("wireManagedContext: %v", err)
	}
	if _, ok := remote.(*contextcache.MemoryManagedContext); !ok || gen != nil {
		t.Fatalf("want in-memory context and no generator, got=%T gen=%v", remote, gen)
	}
}

func TestWireServicesRejectsBadParseMode(t *testing.T) {
	cfg := config.Default()
	cfg.Plan.ResourceTypeParsing = "loose"
	if _, err := wireServices(logger.Nop(), cfg, nopStore{}, nil, contextcache.NewMemoryManagedContext(nil), nil, nil); err == nil {
		t.Fatalf("want parse mode error")
	}
}

func TestRouterWithoutGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	svc, err := wireServices(logger.Nop(), cfg, nopStore{}, nil, contextcache.NewMemoryManagedContext(nil), nil, nil)
	if err != nil {
		t.Fatalf("wireServices: %v", err)
	}
	if svc.Curriculum != nil || svc.ParseMode != lessonplan.ParseStrict {
		t.Fatalf("services: got=%+v", svc)
	}
	engine := apphttp.NewRouter(wireRouterConfig(logger.Nop(), cfg, svc))

	req := httptest.NewRequest(http.MethodPost, "/v1/lesson-plans", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("generate without backend: want=503 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ledger/files", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ledger route without ledger: want=404 got=%d", rec.Code)
	}
}

func TestRouterWithGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	svc, err := wireServices(logger.Nop(), cfg, nopStore{}, nil, contextcache.NewMemoryManagedContext(nil), contextcache.NewMemoryRegistry(), staticGenerator{})
	if err != nil {
		t.Fatalf("wireServices: %v", err)
	}
	engine := apphttp.NewRouter(wireRouterConfig(logger.Nop(), cfg, svc))

	body := `{"topic":"Sorting","grade":"Grade 10","lecture_duration":50,"total_periods":3,` +
		`"difficulty":"hard","teaching_approach":"direct","prior_knowledge":"loops"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/lesson-plans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"needs_clarification"`) {
		t.Fatalf("generate: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

type listingStore struct{ nopStore }

func (listingStore) List(ctx context.Context, prefix string) ([]materials.StoredObject, error) {
	return nil, nil
}
func (listingStore) Delete(ctx context.Context, key string) error { return nil }

func TestWireServicesBuildsSweeperForListingStore(t *testing.T) {
	cfg := config.Default()
	repo, closeFn, err := wireLedger(logger.Nop(), config.LedgerConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "l.db")})
	if err != nil {
		t.Fatalf("wireLedger: %v", err)
	}
	defer closeFn(context.Background())
	remote := contextcache.NewMemoryManagedContext(nil)

	svc, err := wireServices(logger.Nop(), cfg, nopStore{}, repo, remote, nil, nil)
	if err != nil || svc.Sweeper != nil {
		t.Fatalf("plain store: want no sweeper got=%v err=%v", svc.Sweeper, err)
	}
	svc, err = wireServices(logger.Nop(), cfg, listingStore{}, repo, remote, nil, nil)
	if err != nil || svc.Sweeper == nil {
		t.Fatalf("listing store: want sweeper got=%v err=%v", svc.Sweeper, err)
	}

	engine := apphttp.NewRouter(wireRouterConfig(logger.Nop(), cfg, svc))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ledger/sweep", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"dry_run":true`) {
		t.Fatalf("sweep: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
