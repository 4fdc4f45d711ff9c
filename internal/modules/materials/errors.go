package materials

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileNotFound        = errors.New("file not found")
	ErrStagingFailed       = errors.New("staging failed")
)

type UnsupportedFileTypeError struct {
	Path    string
	Ext     string
	Allowed []string
}

func (e *UnsupportedFileTypeError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file type %s for %s (supported: %s)", ext, e.Path, strings.Join(e.Allowed, ", "))
}

func (e *UnsupportedFileTypeError) Is(target error) bool { return target == ErrUnsupportedFileType }

type FileNotFoundError struct {
	Path  string
	Cause error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool { return target == ErrFileNotFound }
func (e *FileNotFoundError) Unwrap() error        { return e.Cause }

// StagingError wraps a remote failure with the operation and object key so the
// caller can retry the batch without re-deriving anything.
type StagingError struct {
	Op    string
	Key   string
	Path  string
	Cause error
}

func (e *StagingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("staging %s failed (key=%s): %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("staging %s failed for %s (key=%s): %v", e.Op, e.Path, e.Key, e.Cause)
}

func (e *StagingError) Is(target error) bool { return target == ErrStagingFailed }
func (e *StagingError) Unwrap() error        { return e.Cause }
