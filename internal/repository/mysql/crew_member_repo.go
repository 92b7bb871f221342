package mysql

import (
	"context"
	"errors"

	"Crew_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CrewMemberRepository struct {
	DB *gorm.DB
}

// Add 联合主键保证唯一；重复插入返回 ErrDuplicateTransition 而不是静默成功
func (r *CrewMemberRepository) Add(ctx context.Context, crewID, userID uint64) error {
	err := conn(ctx, r.DB).Create(&model.CrewMember{CrewID: crewID, UserID: userID}).Error
	return translate(err)
}

// Remove 返回是否真的删除了一行
func (r *CrewMemberRepository) Remove(ctx context.Context, crewID, userID uint64) (bool, error) {
	res := conn(ctx, r.DB).Where("crew_id = ? AND user_id = ?", crewID, userID).
		Delete(&model.CrewMember{})
	return res.RowsAffected > 0, res.Error
}

func (r *CrewMemberRepository) Exists(ctx context.Context, crewID, userID uint64) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.CrewMember{}).
		Where("crew_id = ? AND user_id = ?", crewID, userID).
		Count(&count).Error
	return count > 0, err
}

// ExistsForShare 事务内加共享锁读取，与退出/驱逐的删除互斥
func (r *CrewMemberRepository) ExistsForShare(ctx context.Context, crewID, userID uint64) (bool, error) {
	var rows []model.CrewMember
	err := conn(ctx, r.DB).Clauses(clause.Locking{Strength: "SHARE"}).
		Where("crew_id = ? AND user_id = ?", crewID, userID).
		Limit(1).
		Find(&rows).Error
	return len(rows) > 0, err
}

func (r *CrewMemberRepository) SetMeetingViewed(ctx context.Context, crewID, userID uint64) error {
	return conn(ctx, r.DB).Model(&model.CrewMember{}).
		Where("crew_id = ? AND user_id = ?", crewID, userID).
		Update("meeting_viewed", true).Error
}

// ResetMeetingViewed 有新活动时，除发起人外的成员都标记为未查看
func (r *CrewMemberRepository) ResetMeetingViewed(ctx context.Context, crewID, exceptUserID uint64) error {
	return conn(ctx, r.DB).Model(&model.CrewMember{}).
		Where("crew_id = ? AND user_id <> ?", crewID, exceptUserID).
		Update("meeting_viewed", false).Error
}

func (r *CrewMemberRepository) Get(ctx context.Context, crewID, userID uint64) (*model.CrewMember, error) {
	var m model.CrewMember
	err := conn(ctx, r.DB).Where("crew_id = ? AND user_id = ?", crewID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CrewMemberRepository) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.CrewMember{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListUserIDs 按加入先后返回
func (r *CrewMemberRepository) ListUserIDs(ctx context.Context, crewID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := conn(ctx, r.DB).Model(&model.CrewMember{}).
		Where("crew_id = ?", crewID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// OtherMemberIDs 除 excludeUserID 以外最多 limit 个成员，不额外排序
func (r *CrewMemberRepository) OtherMemberIDs(ctx context.Context, crewID, excludeUserID uint64, limit int) ([]uint64, error) {
	ids := make([]uint64, 0)
	if limit <= 0 {
		return ids, nil
	}
	err := conn(ctx, r.DB).Model(&model.CrewMember{}).
		Where("crew_id = ? AND user_id <> ?", crewID, excludeUserID).
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListByCrew 成员列表，按加入先后
func (r *CrewMemberRepository) ListByCrew(ctx context.Context, crewID uint64) ([]model.CrewMember, error) {
	var list []model.CrewMember
	err := conn(ctx, r.DB).Where("crew_id = ?", crewID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
