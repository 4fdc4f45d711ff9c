package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type BucketConfig struct {
	Bucket        string
	PublicBaseURL string
	Credentials   string
	Target        BucketTarget
}

// MaterialBucket is the durable store for staged course materials. Objects are
// addressed by key and exposed to the managed-context service as gs:// URIs.
type MaterialBucket struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       string
	mode         BucketMode
	emulatorHost string
	publicBase   string
}

func NewMaterialBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*MaterialBucket, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("bucket target: %w", err)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("missing material bucket name")
	}
	base, baseFrom, err := publicBase(cfg.Target, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClient(ctx, cfg.Target, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	serviceLog := log.With("service", "MaterialBucket")
	serviceLog.Info(
		"Material bucket ready",
		"bucket", bucket,
		"mode", cfg.Target.Mode,
		"mode_origin", cfg.Target.Origin(),
		"public_base", base,
		"public_base_from", baseFrom,
	)
	return &MaterialBucket{
		log:          serviceLog,
		client:       client,
		bucket:       bucket,
		mode:         cfg.Target.Mode,
		emulatorHost: strings.TrimRight(cfg.Target.EmulatorHost, "/"),
		publicBase:   base,
	}, nil
}

func newStorageClient(ctx context.Context, target BucketTarget, credentials string) (*storage.Client, error) {
	if target.Mode.Emulated() {
		// the storage client only reads the emulator endpoint from the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(target.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptions(credentials), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

// publicBase picks the origin for browser links: the configured override, then
// the emulator host, then none (storage.googleapis.com).
func publicBase(target BucketTarget, raw string) (string, string, error) {
	if strings.TrimSpace(raw) != "" {
		base, err := absoluteURL(raw)
		if err != nil {
			return "", "", fmt.Errorf("public base url: %w", err)
		}
		return base, "config", nil
	}
	if target.Mode.Emulated() {
		return strings.TrimRight(target.EmulatorHost, "/"), "emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (b *MaterialBucket) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := b.client.Bucket(b.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat gcs object %q in bucket %q: %w", key, b.bucket, err)
	}
	return true, nil
}

// Put streams r into the object. The caller bounds the upload with ctx.
func (b *MaterialBucket) Put(ctx context.Context, key string, r io.Reader) error {
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %q: %w", key, err)
	}
	return nil
}

func (b *MaterialBucket) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, strings.TrimLeft(key, "/"))
}

// List returns every object under prefix; the orphan sweep diffs it against the
// ledger.
func (b *MaterialBucket) List(ctx context.Context, prefix string) ([]materials.StoredObject, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []materials.StoredObject{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gcs prefix %q: %w", prefix, err)
		}
		out = append(out, materials.StoredObject{
			Key:         attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Updated:     attrs.Updated,
		})
	}
	return out, nil
}

func (b *MaterialBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := b.client.Bucket(b.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %q in bucket %q: %w", key, b.bucket, err)
	}
	return nil
}

// PublicURL is a browser-reachable link for a staged object.
func (b *MaterialBucket) PublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if b.mode.Emulated() {
		base := b.publicBase
		if base == "" {
			base = b.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(b.bucket), url.PathEscape(key))
		}
	}
	if b.publicBase != "" {
		return fmt.Sprintf("%s/%s/%s", b.publicBase, b.bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, key)
}

func (b *MaterialBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".pptx"):
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain"
	case strings.HasSuffix(s, ".md"):
		return "text/markdown"
	case strings.HasSuffix(s, ".html"), strings.HasSuffix(s, ".htm"):
		return "text/html"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
