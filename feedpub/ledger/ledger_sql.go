package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PublishedEntry struct {
	ID          uint      `gorm:"primaryKey"`
	URL         string    `gorm:"uniqueIndex;column:url"`
	PublishedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
}

// Ledger backed by a SQL database (sqlite or postgres). Writes go through immediately.
type SQLLedger struct {
	db *gorm.DB
}

var _ Ledger = (*SQLLedger)(nil)

func NewSQLLedger(db *gorm.DB) (*SQLLedger, error) {
	if err := db.AutoMigrate(&PublishedEntry{}); err != nil {
		return nil, fmt.Errorf("migrating ledger table: %w", err)
	}
	return &SQLLedger{db: db}, nil
}

func (l *SQLLedger) Contains(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&PublishedEntry{}).Where("url = ?", key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (l *SQLLedger) Record(ctx context.Context, key string, publishedAt time.Time) error {
	row := &PublishedEntry{
		URL:         key,
		PublishedAt: publishedAt.UTC(),
	}
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"published_at"}),
	}).Create(row)
	if res.Error != nil {
		return fmt.Errorf("recording published entry: %w", res.Error)
	}
	return nil
}

func (l *SQLLedger) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res := l.db.WithContext(ctx).Where("published_at < ?", cutoff.UTC()).Delete(&PublishedEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (l *SQLLedger) Save(ctx context.Context) error {
	return nil
}
