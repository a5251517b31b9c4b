package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
)

// SQLiteStore implements ports.Store on GORM with per-record transactional
// writes and secondary indexes on created_at/updated_at.
type SQLiteStore struct {
	db *gorm.DB
}

var _ ports.Store = (*SQLiteStore)(nil)

// gormLogger bridges GORM's logger to the pdbench logger
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("PDBENCH_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// recordModel is the GORM model for stored documents
type recordModel struct {
	Collection string    `gorm:"primaryKey"`
	ID         string    `gorm:"primaryKey"`
	CreatedAt  time.Time `gorm:"not null;index:idx_records_created_at"`
	UpdatedAt  time.Time `gorm:"not null;index:idx_records_updated_at;autoUpdateTime:false"`
	Payload    []byte    `gorm:"not null"`
}

func (recordModel) TableName() string { return "records" }

// metaModel is the GORM model for scalar slots (current session pointer)
type metaModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (metaModel) TableName() string { return "meta" }

// NewSQLiteStore opens (or creates) the database at dbPath. Initialization
// fails fast with a descriptive error when the backend cannot be opened.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %v", domain.ErrStoreUnavailable, err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database at %s: %v", domain.ErrStoreUnavailable, dbPath, err)
	}

	// WAL mode for safe concurrent readers
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")

	if err := db.AutoMigrate(&recordModel{}, &metaModel{}); err != nil {
		return nil, fmt.Errorf("%w: failed to migrate schema: %v", domain.ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*ports.Record, error) {
	var m recordModel
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	rec := modelToRecord(m)
	return &rec, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, collection string) ([]ports.Record, error) {
	var models []recordModel
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, mapSQLiteError(err)
	}

	out := make([]ports.Record, len(models))
	for i, m := range models {
		out[i] = modelToRecord(m)
	}
	return out, nil
}

func (s *SQLiteStore) Put(ctx context.Context, collection string, rec ports.Record) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing recordModel
		err := tx.Where("collection = ? AND id = ?", collection, rec.ID).First(&existing).Error

		m := recordModel{
			Collection: collection,
			ID:         rec.ID,
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  rec.UpdatedAt,
			Payload:    rec.Payload,
		}
		switch {
		case err == nil:
			// Keep the original creation time on replace
			m.CreatedAt = existing.CreatedAt
			return tx.Save(&m).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&m).Error
		default:
			return err
		}
	})
	return mapSQLiteError(err)
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&recordModel{}).Error
	return mapSQLiteError(err)
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var m metaModel
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", mapSQLiteError(err)
	}
	return m.Value, nil
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	if value == "" {
		err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&metaModel{}).Error
		return mapSQLiteError(err)
	}
	err := s.db.WithContext(ctx).Save(&metaModel{Key: key, Value: value}).Error
	return mapSQLiteError(err)
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func modelToRecord(m recordModel) ports.Record {
	return ports.Record{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Payload:   m.Payload,
	}
}

// mapSQLiteError converts driver-level disk exhaustion into the shared quota
// condition so callers see one error regardless of backend.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	}
	return err
}
