package mysql

import (
	"context"
	"errors"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"gorm.io/gorm"
)

// UserRepository 用户表由用户子系统写入，这里只读
type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := conn(ctx, r.DB).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
