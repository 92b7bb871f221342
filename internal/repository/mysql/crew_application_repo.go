package mysql

import (
	"context"
	"errors"

	"Crew_Community/internal/model"

	"gorm.io/gorm"
)

type CrewApplicationRepository struct {
	DB *gorm.DB
}

func (r *CrewApplicationRepository) Save(ctx context.Context, crewID, userID uint64, answer string) error {
	err := conn(ctx, r.DB).Create(&model.CrewApplication{
		CrewID: crewID,
		UserID: userID,
		Answer: answer,
	}).Error
	return translate(err)
}

// Delete 返回是否真的删除了一行；0 行说明申请已被并发处理
func (r *CrewApplicationRepository) Delete(ctx context.Context, crewID, userID uint64) (bool, error) {
	res := conn(ctx, r.DB).Where("crew_id = ? AND user_id = ?", crewID, userID).
		Delete(&model.CrewApplication{})
	return res.RowsAffected > 0, res.Error
}

func (r *CrewApplicationRepository) Exists(ctx context.Context, crewID, userID uint64) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.CrewApplication{}).
		Where("crew_id = ? AND user_id = ?", crewID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CrewApplicationRepository) Get(ctx context.Context, crewID, userID uint64) (*model.CrewApplication, error) {
	var a model.CrewApplication
	err := conn(ctx, r.DB).Where("crew_id = ? AND user_id = ?", crewID, userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *CrewApplicationRepository) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.CrewApplication{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListByCrew 按申请先后返回
func (r *CrewApplicationRepository) ListByCrew(ctx context.Context, crewID uint64) ([]model.CrewApplication, error) {
	var list []model.CrewApplication
	err := conn(ctx, r.DB).Where("crew_id = ?", crewID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
