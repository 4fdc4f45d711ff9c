package materials

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Fingerprint is the lowercase hex SHA-256 of a file's bytes.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// FileRef points at a local file to stage. Name overrides the basename used in the
// storage key (multipart uploads land in temp files with meaningless names).
type FileRef struct {
	Path string
	Name string
}

func (f FileRef) OriginalName() string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return filepath.Base(n)
	}
	return filepath.Base(f.Path)
}

func (f FileRef) Ext() string {
	return strings.ToLower(filepath.Ext(f.OriginalName()))
}

type StagedFile struct {
	Fingerprint  Fingerprint `json:"fingerprint"`
	OriginalName string      `json:"original_name"`
	StorageKey   string      `json:"storage_key"`
	StorageURI   string      `json:"storage_uri"`
	PublicURL    string      `json:"public_url,omitempty"`
	MimeType     string      `json:"mime_type"`
	SizeBytes    int64       `json:"size_bytes"`
	// Uploaded is false when the object was already present and the put was skipped.
	Uploaded bool `json:"uploaded"`
}

// BlobStore is durable object storage addressed by key.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader) error
	URI(key string) string
}

// PublicLinker is implemented by stores that can hand out browser-reachable links.
type PublicLinker interface {
	PublicURL(key string) string
}

// Recorder receives every successfully staged batch. Failures are logged, never fatal.
type Recorder interface {
	RecordStaged(ctx context.Context, namespace string, files []StagedFile) error
}

type Sink string

const (
	SinkContextCache Sink = "context_cache"
	SinkSearchIndex  Sink = "search_index"
)

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
}

func (s Sink) allowed() map[string]bool {
	out := map[string]bool{".pdf": true, ".pptx": true, ".docx": true, ".txt": true, ".md": true}
	if s == SinkSearchIndex {
		out[".html"] = true
	}
	return out
}

// AllowedExtensions lists the extensions accepted for the sink, sorted.
func (s Sink) AllowedExtensions() []string {
	m := s.allowed()
	out := make([]string, 0, len(m))
	for ext := range m {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (s Sink) Accepts(ext string) bool {
	return s.allowed()[strings.ToLower(ext)]
}

func MimeTypeForExt(ext string) string {
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// StorageKey composes {namespace}/{fingerprint}/{original_filename}.
func StorageKey(namespace string, fp Fingerprint, originalName string) string {
	ns := strings.Trim(strings.TrimSpace(namespace), "/")
	name := filepath.Base(strings.TrimSpace(originalName))
	return ns + "/" + fp.String() + "/" + name
}
