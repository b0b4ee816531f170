package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
)

type GormUserStore struct {
	db *gorm.DB
}

var _ UserStore = (*GormUserStore)(nil)

func NewUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Get(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.New(err, "failed to get user %s", username)
	}
	return &user, nil
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	if _, err := s.Get(ctx, user.Username); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	if err != nil {
		return oops.New(err, "failed to create user %s", user.Username)
	}
	return nil
}

func (s *GormUserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, oops.New(err, "failed to list users")
	}
	return users, nil
}

func (s *GormUserStore) SetFlags(ctx context.Context, username string, flags models.UserFlags) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if flags.IsAdmin != nil {
		updates["is_admin"] = *flags.IsAdmin
	}
	if flags.IsActive != nil {
		updates["is_active"] = *flags.IsActive
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, oops.New(err, "failed to update flags for %s", username)
	}
	return s.Get(ctx, username)
}
