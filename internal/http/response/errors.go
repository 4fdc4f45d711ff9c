package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
)

var statusBySentinel = []struct {
	err    error
	status int
	code   string
}{
	{materials.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, "unsupported_file_type"},
	{materials.ErrFileNotFound, http.StatusBadRequest, "file_not_found"},
	{materials.ErrStagingFailed, http.StatusBadGateway, "staging_failed"},
	{contextcache.ErrEmptyCache, http.StatusBadRequest, "empty_cache"},
	{contextcache.ErrInvalidTTL, http.StatusBadRequest, "invalid_ttl"},
	{contextcache.ErrCacheNotFound, http.StatusNotFound, "cache_not_found"},
	{lessonplan.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{lessonplan.ErrUnrecognizedOutput, http.StatusUnprocessableEntity, "unrecognized_output"},
	{lessonplan.ErrInvalidPlan, http.StatusUnprocessableEntity, "invalid_plan"},
}

// Classify maps an error to an HTTP status and stable code.
func Classify(err error) (int, string) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status, ae.Code
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status, s.code
		}
	}
	var ce *contextcache.CacheError
	if errors.As(err, &ce) {
		return http.StatusBadGateway, "cache_" + ce.Op + "_failed"
	}
	return http.StatusInternalServerError, "internal"
}

// RespondErr writes the envelope for err and records it on the gin context for
// the access log. Plan validation failures list every issue under details.
func RespondErr(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	status, code := Classify(err)
	body := APIError{Message: err.Error(), Code: code}
	var ve *lessonplan.ValidationError
	if errors.As(err, &ve) {
		body.Details = ve.Messages()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}
