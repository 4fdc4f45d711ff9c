package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

const defaultListLimit = 100

type ListFilter struct {
	Namespace string
	Limit     int
}

// Repo records staging and cache lifecycle events. It satisfies
// materials.Recorder and contextcache.HandleRecorder.
type Repo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

var (
	_ materials.Recorder          = (*Repo)(nil)
	_ materials.KeyIndex          = (*Repo)(nil)
	_ contextcache.HandleRecorder = (*Repo)(nil)
)

func NewRepo(db *gorm.DB, baseLog *logger.Logger) *Repo {
	return &Repo{db: db, log: baseLog.With("repo", "LedgerRepo"), now: time.Now}
}

func (r *Repo) RecordStaged(ctx context.Context, namespace string, files []materials.StagedFile) error {
	if len(files) == 0 {
		return nil
	}
	now := r.now().UTC()
	rows := make([]*StagedFileRecord, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		// one upsert may not touch the same row twice
		if seen[f.StorageKey] {
			continue
		}
		seen[f.StorageKey] = true
		rows = append(rows, &StagedFileRecord{
			ID:            uuid.New(),
			Namespace:     namespace,
			Fingerprint:   f.Fingerprint.String(),
			StorageKey:    f.StorageKey,
			StorageURI:    f.StorageURI,
			OriginalName:  f.OriginalName,
			MimeType:      f.MimeType,
			SizeBytes:     f.SizeBytes,
			StageCount:    1,
			FirstStagedAt: now,
			LastStagedAt:  now,
		})
	}
	err := dbctx.New(ctx).DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"stage_count":    gorm.Expr("staged_file.stage_count + 1"),
				"last_staged_at": now,
				"original_name":  gorm.Expr("excluded.original_name"),
				"updated_at":     now,
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("record staged files: %w", err)
	}
	r.log.Debug("Staged files recorded", "namespace", namespace, "count", len(rows))
	return nil
}

func (r *Repo) RecordHandle(ctx context.Context, h contextcache.CacheHandle) error {
	staged, err := json.Marshal(h.StagedFiles)
	if err != nil {
		return fmt.Errorf("encode staged files: %w", err)
	}
	row := &CacheHandleRecord{
		HandleID:     h.HandleID,
		BackingModel: h.BackingModel,
		DisplayName:  h.DisplayName,
		Instruction:  h.InstructionText,
		StagedFiles:  datatypes.JSON(staged),
		FileCount:    len(h.StagedFiles),
		RemoteCreate: h.CreatedAt,
		ExpiresAt:    h.ExpiresAt,
	}
	if err := dbctx.New(ctx).DB(r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error; err != nil {
		return fmt.Errorf("record cache handle %s: %w", h.HandleID, err)
	}
	return nil
}

func (r *Repo) MarkHandleDeleted(ctx context.Context, id string) error {
	if err := dbctx.New(ctx).DB(r.db).
		Where("handle_id = ?", id).
		Delete(&CacheHandleRecord{}).Error; err != nil {
		return fmt.Errorf("mark cache handle %s deleted: %w", id, err)
	}
	return nil
}

// ListStaged returns staged files, most recently staged first.
func (r *Repo) ListStaged(dbc dbctx.Context, f ListFilter) ([]*StagedFileRecord, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}
	q := dbc.DB(r.db).Order("last_staged_at DESC").Limit(limit)
	if f.Namespace != "" {
		q = q.Where("namespace = ?", f.Namespace)
	}
	var out []*StagedFileRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// KnownKeys returns every storage key recorded under namespace, plus the keys
// that live cache handles still reference there.
func (r *Repo) KnownKeys(ctx context.Context, namespace string) (map[string]bool, error) {
	db := dbctx.New(ctx).DB(r.db)
	var keys []string
	if err := db.Model(&StagedFileRecord{}).
		Where("namespace = ?", namespace).
		Pluck("storage_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("load storage keys for %s: %w", namespace, err)
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}

	var handles []*CacheHandleRecord
	if err := db.Select("handle_id", "staged_files").
		Where("expires_at > ?", time.Now()).
		Find(&handles).Error; err != nil {
		return nil, fmt.Errorf("load live cache handles: %w", err)
	}
	prefix := namespace + "/"
	for _, h := range handles {
		if len(h.StagedFiles) == 0 {
			continue
		}
		var files []materials.StagedFile
		if err := json.Unmarshal(h.StagedFiles, &files); err != nil {
			return nil, fmt.Errorf("decode staged files of %s: %w", h.HandleID, err)
		}
		for _, f := range files {
			if strings.HasPrefix(f.StorageKey, prefix) {
				out[f.StorageKey] = true
			}
		}
	}
	return out, nil
}

// GetHandle includes soft-deleted rows; check DeletedAt.Valid to tell them apart.
func (r *Repo) GetHandle(dbc dbctx.Context, id string) (*CacheHandleRecord, error) {
	var row CacheHandleRecord
	err := dbc.DB(r.db).Unscoped().Where("handle_id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListLiveHandles returns handles not deleted and not yet past expiry at now.
func (r *Repo) ListLiveHandles(dbc dbctx.Context, now time.Time) ([]*CacheHandleRecord, error) {
	var out []*CacheHandleRecord
	if err := dbc.DB(r.db).
		Where("expires_at > ?", now).
		Order("expires_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
