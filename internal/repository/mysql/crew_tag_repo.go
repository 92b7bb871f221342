package mysql

import (
	"context"

	"Crew_Community/internal/model"

	"gorm.io/gorm"
)

type CrewTagRepository struct {
	DB *gorm.DB
}

func (r *CrewTagRepository) AddTags(ctx context.Context, crewID uint64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]model.CrewTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, model.CrewTag{CrewID: crewID, Tag: t})
	}
	return conn(ctx, r.DB).Create(&rows).Error
}

// UpdateTags 只删除旧标签中不再存在的，只插入新增的
func (r *CrewTagRepository) UpdateTags(ctx context.Context, oldTags, newTags []string, crewID uint64) error {
	keep := make(map[string]bool, len(newTags))
	for _, t := range newTags {
		keep[t] = true
	}
	had := make(map[string]bool, len(oldTags))
	var removed []string
	for _, t := range oldTags {
		had[t] = true
		if !keep[t] {
			removed = append(removed, t)
		}
	}
	var added []string
	for _, t := range newTags {
		if !had[t] {
			had[t] = true
			added = append(added, t)
		}
	}
	if len(removed) > 0 {
		if err := conn(ctx, r.DB).
			Where("crew_id = ? AND tag IN ?", crewID, removed).
			Delete(&model.CrewTag{}).Error; err != nil {
			return err
		}
	}
	return r.AddTags(ctx, crewID, added)
}

func (r *CrewTagRepository) GetTagsByCrewID(ctx context.Context, crewID uint64) ([]string, error) {
	tags := make([]string, 0)
	err := conn(ctx, r.DB).Model(&model.CrewTag{}).
		Where("crew_id = ?", crewID).
		Order("id ASC").
		Pluck("tag", &tags).Error
	return tags, err
}
