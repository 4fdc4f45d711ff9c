package materials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// StoredObject is one object as listed by the store.
type StoredObject struct {
	Key         string
	Size        int64
	ContentType string
	Updated     time.Time
}

// ListingStore is a BlobStore that can also enumerate and remove objects.
type ListingStore interface {
	List(ctx context.Context, prefix string) ([]StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// KeyIndex reports which storage keys under a namespace the ledger has recorded.
type KeyIndex interface {
	KnownKeys(ctx context.Context, namespace string) (map[string]bool, error)
}

type SweepInput struct {
	Namespace string
	// Only objects last written before now-MinAge are candidates, so uploads still
	// waiting for their ledger row are left alone.
	MinAge time.Duration
	DryRun bool
}

type SweepResult struct {
	Namespace string   `json:"namespace"`
	Scanned   int      `json:"scanned"`
	Orphans   []string `json:"orphans"`
	Deleted   int      `json:"deleted"`
	DryRun    bool     `json:"dry_run"`
}

// Sweeper removes objects that reached the bucket but were never recorded, which
// is what a create cancelled between put and record leaves behind.
type Sweeper struct {
	log   *logger.Logger
	store ListingStore
	index KeyIndex
	now   func() time.Time
}

func NewSweeper(log *logger.Logger, store ListingStore, index KeyIndex) (*Sweeper, error) {
	if log == nil || store == nil || index == nil {
		return nil, fmt.Errorf("sweeper needs a logger, a listing store and a key index")
	}
	return &Sweeper{
		log:   log.With("service", "OrphanSweeper"),
		store: store,
		index: index,
		now:   time.Now,
	}, nil
}

func (s *Sweeper) Sweep(ctx context.Context, in SweepInput) (SweepResult, error) {
	ns := strings.Trim(strings.TrimSpace(in.Namespace), "/")
	if ns == "" {
		ns = DefaultNamespace
	}
	if in.MinAge < 0 {
		return SweepResult{}, fmt.Errorf("sweep min age must not be negative (got %s)", in.MinAge)
	}
	res := SweepResult{Namespace: ns, Orphans: []string{}, DryRun: in.DryRun}

	objects, err := s.store.List(ctx, ns+"/")
	if err != nil {
		return res, &StagingError{Op: "list", Key: ns + "/", Cause: err}
	}
	known, err := s.index.KnownKeys(ctx, ns)
	if err != nil {
		return res, fmt.Errorf("load recorded keys for %q: %w", ns, err)
	}

	cutoff := s.now().Add(-in.MinAge)
	res.Scanned = len(objects)
	for _, obj := range objects {
		if known[obj.Key] || obj.Updated.After(cutoff) {
			continue
		}
		res.Orphans = append(res.Orphans, obj.Key)
		if in.DryRun {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			return res, &StagingError{Op: "delete", Key: obj.Key, Cause: err}
		}
		res.Deleted++
	}
	s.log.Info("Orphan sweep finished",
		"namespace", ns,
		"scanned", res.Scanned,
		"orphans", len(res.Orphans),
		"deleted", res.Deleted,
		"dry_run", in.DryRun,
	)
	return res, nil
}
