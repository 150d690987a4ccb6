package storage

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry maps one row of the kv_entries table.
type Entry struct {
	Scope     string    `gorm:"column:scope;primaryKey;size:64"`
	ItemKey   string    `gorm:"column:item_key;primaryKey;size:128"`
	ItemValue string    `gorm:"column:item_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string { return "kv_entries" }

// SQL persists items in kv_entries through GORM (postgres or sqlite).
type SQL struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

func (s *SQL) GetItem(ctx context.Context, scope, key string) (string, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("scope = ? AND item_key = ?", scope, key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sql get item")
	}
	return entry.ItemValue, true, nil
}

func (s *SQL) SetItem(ctx context.Context, scope, key, value string) error {
	entry := Entry{Scope: scope, ItemKey: key, ItemValue: value, UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sql set item")
	}
	return nil
}

func (s *SQL) RemoveItem(ctx context.Context, scope, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND item_key = ?", scope, key).
		Delete(&Entry{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sql remove item")
	}
	return nil
}
