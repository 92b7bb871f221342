package mysql

import (
	"context"
	"errors"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"gorm.io/gorm"
)

type MeetingRepository struct {
	DB *gorm.DB
}

type MeetingMemberRepository struct {
	DB *gorm.DB
}

func (r *MeetingRepository) Create(ctx context.Context, m *model.Meeting) error {
	return conn(ctx, r.DB).Create(m).Error
}

func (r *MeetingRepository) FindByID(ctx context.Context, id uint64) (*model.Meeting, error) {
	var m model.Meeting
	err := conn(ctx, r.DB).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteAllByUserIDAndCrewID 删除用户在该克鲁发起的全部活动及其参与记录，返回删除的活动数
func (r *MeetingRepository) DeleteAllByUserIDAndCrewID(ctx context.Context, userID, crewID uint64) (int64, error) {
	db := conn(ctx, r.DB)
	owned := db.Model(&model.Meeting{}).Select("id").Where("crew_id = ? AND user_id = ?", crewID, userID)
	if err := db.Where("meeting_id IN (?)", owned).Delete(&model.MeetingMember{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("crew_id = ? AND user_id = ?", crewID, userID).Delete(&model.Meeting{})
	return res.RowsAffected, res.Error
}

func (r *MeetingMemberRepository) Add(ctx context.Context, meetingID, userID uint64) error {
	err := conn(ctx, r.DB).Create(&model.MeetingMember{MeetingID: meetingID, UserID: userID}).Error
	return translate(err)
}

// RemoveAllByUserIDAndCrewID 只删除该克鲁下活动的参与记录，其他克鲁不受影响
func (r *MeetingMemberRepository) RemoveAllByUserIDAndCrewID(ctx context.Context, userID, crewID uint64) (int64, error) {
	db := conn(ctx, r.DB)
	crewMeetings := db.Model(&model.Meeting{}).Select("id").Where("crew_id = ?", crewID)
	res := db.Where("user_id = ? AND meeting_id IN (?)", userID, crewMeetings).Delete(&model.MeetingMember{})
	return res.RowsAffected, res.Error
}

func (r *MeetingMemberRepository) Exists(ctx context.Context, meetingID, userID uint64) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&model.MeetingMember{}).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		Count(&count).Error
	return count > 0, err
}
