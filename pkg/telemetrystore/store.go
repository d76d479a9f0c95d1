package telemetrystore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO

	"github.com/dbehnke/afhds3d/pkg/logger"
	"github.com/dbehnke/afhds3d/pkg/telemetry"
)

// Config holds telemetry store configuration.
type Config struct {
	DSN string // path to the SQLite database file
}

// Store wraps the GORM database connection used to persist decoded
// telemetry records.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStore opens (creating if needed) the SQLite database at cfg.DSN and
// runs migrations.
func NewStore(cfg Config, log *logger.Logger) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "afhds3d.db"
	}

	dir := filepath.Dir(cfg.DSN)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create telemetry store directory: %w", err)
		}
	}

	gormLog := gormlogger.New(
		&gormLogAdapter{log: log},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        cfg.DSN,
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(&TelemetryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if log != nil {
		log.Info("telemetry store initialized", logger.String("dsn", cfg.DSN))
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the underlying GORM database instance.
func (s *Store) GetDB() *gorm.DB {
	return s.db
}

// Sink returns a telemetry.Sink that persists records arriving on the
// given module slot. The demux runs on the driver's tick goroutine, so
// Dispatch must not block; write errors are logged and dropped rather
// than surfaced to the caller.
func (s *Store) Sink(slot int) telemetry.Sink {
	return telemetry.SinkFunc(func(rec telemetry.Record) {
		row := &TelemetryRecord{
			Slot:       slot,
			SensorType: rec.Type,
			SensorID:   rec.ID,
			Data:       append([]byte(nil), rec.Data...),
			RecordedAt: time.Now(),
		}
		if err := s.db.Create(row).Error; err != nil && s.log != nil {
			s.log.Warn("telemetry store write failed", logger.Any("error", err))
		}
	})
}

// Repository handles telemetry record queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new telemetry record repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetRecent retrieves the most recent N records across all slots.
func (r *Repository) GetRecent(limit int) ([]TelemetryRecord, error) {
	var records []TelemetryRecord
	err := r.db.Order("recorded_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// GetBySlot retrieves the most recent N records for one module slot.
func (r *Repository) GetBySlot(slot int, limit int) ([]TelemetryRecord, error) {
	var records []TelemetryRecord
	err := r.db.Where("slot = ?", slot).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetBySensorType retrieves the most recent N records of a given sensor
// type across all slots.
func (r *Repository) GetBySensorType(sensorType byte, limit int) ([]TelemetryRecord, error) {
	var records []TelemetryRecord
	err := r.db.Where("sensor_type = ?", sensorType).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// DeleteOlderThan deletes records recorded before the given time.
func (r *Repository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("recorded_at < ?", before).Delete(&TelemetryRecord{})
	return result.RowsAffected, result.Error
}

// gormLogAdapter adapts our logger to GORM's logger interface.
type gormLogAdapter struct {
	log *logger.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Info(fmt.Sprintf(format, args...))
}
