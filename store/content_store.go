package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
)

type GormContentStore struct {
	db *gorm.DB
}

var _ ContentStore = (*GormContentStore)(nil)

func NewContentStore(db *gorm.DB) *GormContentStore {
	return &GormContentStore{db: db}
}

func (s *GormContentStore) Get(ctx context.Context, id string) (*models.ContentRecord, error) {
	var rec models.ContentRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.New(err, "failed to get content %s", id)
	}
	return &rec, nil
}

func (s *GormContentStore) List(ctx context.Context, filter ContentFilter) ([]models.ContentRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.ContentRecord{})
	if filter.ContentType != "" {
		query = query.Where("content_type = ?", filter.ContentType)
	}
	if filter.TopLevel {
		query = query.Where("(parent_id IS NULL OR parent_id = '')")
	} else if filter.ParentID != "" {
		query = query.Where("parent_id = ?", filter.ParentID)
	}
	if filter.SkipHidden {
		query = query.Where("is_hidden = ?", false)
	}

	var records []models.ContentRecord
	if err := query.Order("sort_order ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, oops.New(err, "failed to list content")
	}
	return records, nil
}

func (s *GormContentStore) Put(ctx context.Context, rec *models.ContentRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return oops.New(err, "failed to put content %s", rec.ID)
	}
	return nil
}

func (s *GormContentStore) Update(ctx context.Context, id string, patch models.ContentPatch) (*models.ContentRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Order != nil {
		updates["sort_order"] = *patch.Order
	}
	if patch.IsHidden != nil {
		updates["is_hidden"] = *patch.IsHidden
	}

	if err := s.db.WithContext(ctx).Model(rec).Updates(updates).Error; err != nil {
		return nil, oops.New(err, "failed to update content %s", id)
	}
	return s.Get(ctx, id)
}

func (s *GormContentStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.ContentRecord{}, "id = ?", id)
	if result.Error != nil {
		return oops.New(result.Error, "failed to delete content %s", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
