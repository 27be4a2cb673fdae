package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
)

type snapshotRow struct {
	Seq       int    `gorm:"primaryKey;autoIncrement:false"`
	MessageID string `gorm:"column:message_id;not null"`
	Text      string `gorm:"not null"`
	Timestamp int64  `gorm:"not null"`
}

func (snapshotRow) TableName() string { return "snapshot_messages" }

// SQLiteStore keeps the snapshot in a table that is replaced on every save.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite snapshot: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite snapshot: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Load(ctx context.Context) ([]message.Message, error) {
	var rows []snapshotRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlite snapshot load: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, message.Message{Text: row.Text, Timestamp: row.Timestamp, ID: row.MessageID})
	}
	return msgs, nil
}

func (s *SQLiteStore) Save(ctx context.Context, msgs []message.Message) error {
	rows := make([]snapshotRow, 0, len(msgs))
	for i, m := range msgs {
		rows = append(rows, snapshotRow{Seq: i, MessageID: m.ID, Text: m.Text, Timestamp: m.Timestamp})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&snapshotRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("sqlite snapshot save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
