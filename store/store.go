package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// ContentFilter narrows a content scan. Zero value returns every record, hidden ones included.
type ContentFilter struct {
	ContentType models.ContentType
	ParentID    string
	TopLevel    bool
	SkipHidden  bool
}

type ContentStore interface {
	Get(ctx context.Context, id string) (*models.ContentRecord, error)
	List(ctx context.Context, filter ContentFilter) ([]models.ContentRecord, error)
	// Put inserts or fully replaces the record with the same id.
	Put(ctx context.Context, rec *models.ContentRecord) error
	Update(ctx context.Context, id string, patch models.ContentPatch) (*models.ContentRecord, error)
	// Delete removes one record; children are left in place.
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	SetFlags(ctx context.Context, username string, flags models.UserFlags) (*models.User, error)
}

// Ping checks that the database behind db answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return oops.New(err, "cannot get DB instance")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return oops.New(err, "cannot reach DB")
	}
	return nil
}
