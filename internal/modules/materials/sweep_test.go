package materials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type listingStore struct {
	mu        sync.Mutex
	objects   []StoredObject
	deleted   []string
	deleteErr error
}

func (s *listingStore) List(ctx context.Context, prefix string) ([]StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StoredObject
	for _, o := range s.objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *listingStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

type keySet map[string]bool

func (k keySet) KnownKeys(ctx context.Context, namespace string) (map[string]bool, error) {
	return k, nil
}

func newSweepFixture(t *testing.T) (*Sweeper, *listingStore) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &listingStore{objects: []StoredObject{
		{Key: "lesson-materials/aa/slides.pdf", Updated: now.Add(-3 * time.Hour)},
		{Key: "lesson-materials/bb/orphan.pdf", Updated: now.Add(-3 * time.Hour)},
		{Key: "lesson-materials/cc/fresh.pdf", Updated: now.Add(-time.Minute)},
		{Key: "syllabus/dd/other.md", Updated: now.Add(-3 * time.Hour)},
	}}
	sw, err := NewSweeper(logger.Nop(), store, keySet{"lesson-materials/aa/slides.pdf": true})
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	sw.now = func() time.Time { return now }
	return sw, store
}

func TestSweepDryRunOnlyReports(t *testing.T) {
	sw, store := newSweepFixture(t)
	res, err := sw.Sweep(context.Background(), SweepInput{MinAge: time.Hour, DryRun: true})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Namespace != DefaultNamespace || res.Scanned != 3 {
		t.Fatalf("result: got=%+v", res)
	}
	if len(res.Orphans) != 1 || res.Orphans[0] != "lesson-materials/bb/orphan.pdf" {
		t.Fatalf("orphans: got=%v", res.Orphans)
	}
	if res.Deleted != 0 || len(store.deleted) != 0 {
		t.Fatalf("dry run deleted: result=%d store=%v", res.Deleted, store.deleted)
	}
}

func TestSweepDeletesOldUnrecordedObjects(t *testing.T) {
	sw, store := newSweepFixture(t)
	res, err := sw.Sweep(context.Background(), SweepInput{Namespace: "/lesson-materials/", MinAge: 0})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	// with no grace period the fresh upload is an orphan too
	if res.Deleted != 2 || len(store.deleted) != 2 {
		t.Fatalf("deleted: result=%d store=%v", res.Deleted, store.deleted)
	}
}

func TestSweepErrors(t *testing.T) {
	sw, store := newSweepFixture(t)
	if _, err := sw.Sweep(context.Background(), SweepInput{MinAge: -time.Second}); err == nil {
		t.Fatalf("negative min age: want error")
	}
	store.deleteErr = errors.New("permission denied")
	_, err := sw.Sweep(context.Background(), SweepInput{MinAge: time.Hour})
	if !errors.Is(err, ErrStagingFailed) {
		t.Fatalf("delete failure: want ErrStagingFailed got=%v", err)
	}
	if _, err := NewSweeper(logger.Nop(), store, nil); err == nil {
		t.Fatalf("nil index: want error")
	}
}
