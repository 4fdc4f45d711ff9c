package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported", &materials.UnsupportedFileTypeError{Path: "a.exe", Ext: ".exe"}, http.StatusUnsupportedMediaType, "unsupported_file_type"},
		{"not found", fmt.Errorf("info: %w", &contextcache.NotFoundError{HandleID: "x"}), http.StatusNotFound, "cache_not_found"},
		{"ttl", contextcache.ErrInvalidTTL, http.StatusBadRequest, "invalid_ttl"},
		{"gap", &lessonplan.ValidationError{Issues: []error{&lessonplan.TimelineGapError{Period: 2, PrevEnd: 30, NextStart: 35}}}, http.StatusUnprocessableEntity, "invalid_plan"},
		{"remote", &contextcache.CacheError{Op: "create", Cause: errors.New("503")}, http.StatusBadGateway, "cache_create_failed"},
		{"api", apierr.New(http.StatusConflict, "busy", nil), http.StatusConflict, "busy"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := Classify(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("%s: want=%d/%s got=%d/%s", tc.name, tc.status, tc.code, status, code)
		}
	}
}

func TestRespondErrListsPlanIssues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondErr(c, &lessonplan.ValidationError{Issues: []error{
		&lessonplan.TimelineGapError{Period: 2, PrevEnd: 30, NextStart: 35},
		lessonplan.ErrInvalidField,
	}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: want=422 got=%d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "invalid_plan" || len(env.Error.Details) != 2 {
		t.Fatalf("envelope: got=%+v", env.Error)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("gin errors: want=1 got=%d", len(c.Errors))
	}
}
