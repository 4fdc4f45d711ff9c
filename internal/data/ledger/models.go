package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StagedFileRecord is one row per storage key. Re-staging identical content bumps
// StageCount instead of inserting.
type StagedFileRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Namespace     string    `gorm:"column:namespace;not null;index" json:"namespace"`
	Fingerprint   string    `gorm:"column:fingerprint;not null;index" json:"fingerprint"`
	StorageKey    string    `gorm:"column:storage_key;not null;uniqueIndex" json:"storage_key"`
	StorageURI    string    `gorm:"column:storage_uri;not null" json:"storage_uri"`
	OriginalName  string    `gorm:"column:original_name;not null" json:"original_name"`
	MimeType      string    `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes     int64     `gorm:"column:size_bytes" json:"size_bytes"`
	StageCount    int       `gorm:"column:stage_count;not null;default:1" json:"stage_count"`
	FirstStagedAt time.Time `gorm:"column:first_staged_at;not null" json:"first_staged_at"`
	LastStagedAt  time.Time `gorm:"column:last_staged_at;not null;index" json:"last_staged_at"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (StagedFileRecord) TableName() string { return "staged_file" }

// CacheHandleRecord mirrors a created cache handle. Deleting a handle soft-deletes
// the row so the audit trail survives.
type CacheHandleRecord struct {
	HandleID     string         `gorm:"column:handle_id;primaryKey" json:"handle_id"`
	BackingModel string         `gorm:"column:backing_model;not null" json:"backing_model"`
	DisplayName  string         `gorm:"column:display_name" json:"display_name"`
	Instruction  string         `gorm:"column:instruction;type:text" json:"instruction"`
	StagedFiles  datatypes.JSON `gorm:"column:staged_files" json:"staged_files"`
	FileCount    int            `gorm:"column:file_count" json:"file_count"`
	RemoteCreate time.Time      `gorm:"column:remote_created_at" json:"remote_created_at"`
	ExpiresAt    time.Time      `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CacheHandleRecord) TableName() string { return "cache_handle" }
