package ledger

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// gormWriter routes gorm's slow-query and error lines into the service logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open connects to the ledger database and migrates its tables. driver is
// "postgres" or "sqlite"; for sqlite the DSN is a file path or ":memory:".
func Open(log *logger.Logger, driver, dsn string) (*gorm.DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	gormLog := gormLogger.New(
		gormWriter{log: log.With("component", "gorm", "driver", driver)},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("connect ledger %s: %w", driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("ledger migrate: %w", err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&StagedFileRecord{},
		&CacheHandleRecord{},
	)
}
