package materials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

const DefaultNamespace = "lesson-materials"

type StagerConfig struct {
	Namespace     string
	Sink          Sink
	Concurrency   int
	UploadTimeout time.Duration
}

type Stager struct {
	log      *logger.Logger
	store    BlobStore
	recorder Recorder
	cfg      StagerConfig
	flight   singleflight.Group
	tracer   trace.Tracer
}

type StagerOption func(*Stager)

func WithRecorder(r Recorder) StagerOption {
	return func(s *Stager) { s.recorder = r }
}

func NewStager(log *logger.Logger, store BlobStore, cfg StagerConfig, opts ...StagerOption) (*Stager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if strings.Trim(strings.TrimSpace(cfg.Namespace), "/") == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Sink == "" {
		cfg.Sink = SinkContextCache
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 2 * time.Minute
	}
	s := &Stager{
		log:    log.With("service", "FileStager", "sink", string(cfg.Sink)),
		store:  store,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/yungbote/neurobridge-curriculum/internal/modules/materials"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Stage uploads every file whose content is not yet present under namespace and
// returns one StagedFile per input, in input order. An empty namespace uses the
// configured default.
//
// Local preconditions (extension, existence) are checked for the whole batch before
// any network call. A remote failure fails the batch; objects already written stay
// in place because keys are content-addressed and the store is append-only.
func (s *Stager) Stage(ctx context.Context, namespace string, files []FileRef) ([]StagedFile, error) {
	ns := strings.Trim(strings.TrimSpace(namespace), "/")
	if ns == "" {
		ns = strings.Trim(strings.TrimSpace(s.cfg.Namespace), "/")
	}

	ctx, span := s.tracer.Start(ctx, "materials.Stage", trace.WithAttributes(
		attribute.String("namespace", ns),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	if len(files) == 0 {
		return []StagedFile{}, nil
	}

	sizes := make([]int64, len(files))
	for i, f := range files {
		size, err := s.checkLocal(f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "local precondition")
			return nil, err
		}
		sizes[i] = size
	}

	out := make([]StagedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			staged, err := s.stageOne(gctx, ns, files[i])
			if err != nil {
				return err
			}
			if staged.SizeBytes == 0 {
				staged.SizeBytes = sizes[i]
			}
			out[i] = staged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage")
		s.log.Error("Failed to stage files", "namespace", ns, "count", len(files), "error", err)
		return nil, err
	}

	uploaded := 0
	for _, f := range out {
		if f.Uploaded {
			uploaded++
		}
	}
	span.SetAttributes(attribute.Int("uploaded", uploaded))

	// Unrecorded objects are sweep candidates, so a record failure fails the batch.
	if s.recorder != nil {
		if err := s.recorder.RecordStaged(ctx, ns, out); err != nil {
			err = &StagingError{Op: "record", Key: ns + "/", Cause: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, "record")
			s.log.Error("Failed to record staged files", "namespace", ns, "count", len(out), "error", err)
			return nil, err
		}
	}
	s.log.Info("All files staged", "namespace", ns, "count", len(out), "uploaded", uploaded)
	return out, nil
}

func (s *Stager) checkLocal(f FileRef) (int64, error) {
	ext := f.Ext()
	if !s.cfg.Sink.Accepts(ext) {
		return 0, &UnsupportedFileTypeError{Path: f.Path, Ext: ext, Allowed: s.cfg.Sink.AllowedExtensions()}
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &FileNotFoundError{Path: f.Path, Cause: err}
		}
		return 0, fmt.Errorf("stat %s: %w", f.Path, err)
	}
	if info.IsDir() {
		return 0, &FileNotFoundError{Path: f.Path, Cause: fmt.Errorf("%s is a directory", f.Path)}
	}
	return info.Size(), nil
}

// stageOne keeps fingerprint, existence check and put strictly sequential for a
// single file. Concurrent callers staging the same key share one check-then-put.
func (s *Stager) stageOne(ctx context.Context, ns string, f FileRef) (StagedFile, error) {
	fp, size, err := FingerprintFile(f.Path)
	if err != nil {
		return StagedFile{}, err
	}
	name := f.OriginalName()
	key := StorageKey(ns, fp, name)

	// Shared work is detached from the caller that started it; each caller waits
	// on its own context.
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UploadTimeout)
		defer cancel()
		return s.ensureObject(octx, key, f.Path)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return StagedFile{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		var se *StagingError
		if errors.As(res.Err, &se) && se.Path != f.Path {
			own := *se
			own.Path = f.Path
			return StagedFile{}, &own
		}
		return StagedFile{}, res.Err
	}
	uploaded := res.Val.(bool)

	out := StagedFile{
		Fingerprint:  fp,
		OriginalName: name,
		StorageKey:   key,
		StorageURI:   s.store.URI(key),
		MimeType:     MimeTypeForExt(f.Ext()),
		SizeBytes:    size,
		Uploaded:     uploaded,
	}
	if pl, ok := s.store.(PublicLinker); ok {
		out.PublicURL = pl.PublicURL(key)
	}
	return out, nil
}

func (s *Stager) ensureObject(ctx context.Context, key, path string) (bool, error) {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return false, &StagingError{Op: "exists", Key: key, Path: path, Cause: err}
	}
	if exists {
		s.log.Info("File already staged", "key", key)
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, &FileNotFoundError{Path: path, Cause: err}
		}
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	s.log.Info("Uploading file", "path", path, "key", key)
	if err := s.store.Put(ctx, key, file); err != nil {
		return false, &StagingError{Op: "put", Key: key, Path: path, Cause: err}
	}
	return true, nil
}
