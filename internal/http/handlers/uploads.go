package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
)

const (
	uploadField = "files"
	// parts beyond this are spooled to disk by the multipart reader
	uploadMemory int64 = 32 << 20
)

// saveUploads writes the multipart files to a private temp dir. The caller must
// run cleanup once staging is done; staged objects outlive the temp copies.
// maxBytes caps the whole request body.
func saveUploads(c *gin.Context, maxBytes int64) ([]materials.FileRef, func(), error) {
	noop := func() {}
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
	if err := c.Request.ParseMultipartForm(min(maxBytes, uploadMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, apierr.New(http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		}
		return nil, noop, apierr.BadRequest("invalid_multipart_form", "invalid multipart form: %v", err)
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File[uploadField]) == 0 {
		return nil, noop, nil
	}

	dir, err := os.MkdirTemp("", "curriculum-upload-*")
	if err != nil {
		return nil, noop, apierr.Internal(err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	headers := form.File[uploadField]
	refs := make([]materials.FileRef, 0, len(headers))
	for i, fh := range headers {
		name := filepath.Base(strings.TrimSpace(fh.Filename))
		if name == "" || name == "." || name == string(filepath.Separator) {
			cleanup()
			return nil, noop, apierr.BadRequest("invalid_multipart_form", "upload %d has no file name", i)
		}
		// one subdir per upload so two files with the same name do not collide
		sub := filepath.Join(dir, fmt.Sprintf("%03d", i))
		if err := os.Mkdir(sub, 0o700); err != nil {
			cleanup()
			return nil, noop, apierr.Internal(err)
		}
		dst := filepath.Join(sub, name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			cleanup()
			return nil, noop, apierr.Internal(fmt.Errorf("save upload %s: %w", name, err))
		}
		refs = append(refs, materials.FileRef{Path: dst, Name: fh.Filename})
	}
	return refs, cleanup, nil
}
