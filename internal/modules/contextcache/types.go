package contextcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
)

const DefaultTTL = time.Hour

var (
	ErrEmptyCache    = errors.New("cache requires at least one file")
	ErrInvalidTTL    = errors.New("cache ttl must be positive")
	ErrCacheNotFound = errors.New("cache not found")
)

// CacheHandle is an immutable description of a live managed-context session.
type CacheHandle struct {
	HandleID        string                 `json:"handle_id"`
	BackingModel    string                 `json:"backing_model"`
	StagedFiles     []materials.StagedFile `json:"staged_files"`
	InstructionText string                 `json:"instruction_text"`
	CreatedAt       time.Time              `json:"created_at"`
	ExpiresAt       time.Time              `json:"expires_at"`
	DisplayName     string                 `json:"display_name"`
}

// Expired reports whether the handle is past its expiry at now. The remote service
// stays authoritative; this only drives local pre-flight checks.
func (h CacheHandle) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Info is the read-only metadata returned by ContextCache.Info.
type Info struct {
	Name        string    `json:"name"`
	Model       string    `json:"model"`
	ExpireTime  time.Time `json:"expire_time"`
	DisplayName string    `json:"display_name"`
}

type ContentRef struct {
	URI      string
	MimeType string
}

type CreateParams struct {
	ModelID     string
	Instruction string
	Contents    []ContentRef
	TTL         time.Duration
	DisplayName string
}

type RemoteHandle struct {
	Name        string
	Model       string
	DisplayName string
	CreateTime  time.Time
	ExpireTime  time.Time
}

// ManagedContext is the external service that owns cached contexts. Get and Delete
// report a missing or expired handle with an error matching ErrCacheNotFound.
type ManagedContext interface {
	Create(ctx context.Context, p CreateParams) (RemoteHandle, error)
	Get(ctx context.Context, name string) (RemoteHandle, error)
	Delete(ctx context.Context, name string) error
}

// Registry keeps handle metadata locally so expired handles can be rejected
// without a remote round trip.
type Registry interface {
	Put(ctx context.Context, h CacheHandle) error
	Get(ctx context.Context, id string) (CacheHandle, bool, error)
	Delete(ctx context.Context, id string) error
}

// HandleRecorder receives lifecycle events for audit. Failures are logged only.
type HandleRecorder interface {
	RecordHandle(ctx context.Context, h CacheHandle) error
	MarkHandleDeleted(ctx context.Context, id string) error
}

type CacheError struct {
	Op       string
	HandleID string
	Cause    error
}

func (e *CacheError) Error() string {
	if e.HandleID == "" {
		return fmt.Sprintf("cache %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("cache %s failed for %s: %v", e.Op, e.HandleID, e.Cause)
}

func (e *CacheError) Unwrap() error { return e.Cause }

type NotFoundError struct {
	HandleID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cache not found: %s", e.HandleID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrCacheNotFound }
