package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"Crew_Community/internal/metrics"
	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/policy"
)

const maxMeetingTitleLen = 100

// MeetingService 活动只做最小实现：创建与参加，均要求是克鲁成员
type MeetingService struct {
	d          CrewDeps
	log        *pkg.Logger
	membership *policy.MembershipPolicy
}

func NewMeetingService(d CrewDeps) *MeetingService {
	if d.Log == nil {
		d.Log = pkg.NopLogger()
	}
	return &MeetingService{
		d:          d,
		log:        d.Log.With("service", "MeetingService"),
		membership: &policy.MembershipPolicy{Members: d.Members},
	}
}

// CreateMeeting 发起人自动参加
func (s *MeetingService) CreateMeeting(ctx context.Context, crewID, userID uint64, title string, startsAt time.Time) (m *model.Meeting, err error) {
	defer func() { metrics.RecordTransition("create_meeting", err) }()

	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n == 0 || n > maxMeetingTitleLen {
		return nil, pkg.ErrInvalidMeetingTitle
	}
	if _, err = s.d.Crews.FindByID(ctx, crewID); err != nil {
		return nil, err
	}
	if err = s.membership.ValidateCrewMember(ctx, crewID, userID); err != nil {
		return nil, err
	}
	m = &model.Meeting{CrewID: crewID, UserID: userID, Title: title, StartsAt: startsAt}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.lockMember(ctx, crewID, userID); err != nil {
			return err
		}
		if err := s.d.Meetings.Create(ctx, m); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}
		if err := s.d.MeetingMembers.Add(ctx, m.ID, userID); err != nil {
			return err
		}
		if err := s.d.Members.ResetMeetingViewed(ctx, crewID, userID); err != nil {
			return fmt.Errorf("reset meeting viewed: %w", err)
		}
		return s.d.Crews.AddMeetingCount(ctx, crewID, 1)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("meeting created", "crew_id", crewID, "meeting_id", m.ID, "user_id", userID)
	return m, nil
}

// JoinMeeting 重复参加返回 Conflict
func (s *MeetingService) JoinMeeting(ctx context.Context, meetingID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("join_meeting", err) }()

	m, err := s.d.Meetings.FindByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if err = s.membership.ValidateCrewMember(ctx, m.CrewID, userID); err != nil {
		return err
	}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.lockMember(ctx, m.CrewID, userID); err != nil {
			return err
		}
		return s.d.MeetingMembers.Add(ctx, meetingID, userID)
	})
	if err != nil {
		return err
	}
	s.log.Info("meeting joined", "crew_id", m.CrewID, "meeting_id", meetingID, "user_id", userID)
	return nil
}

// lockMember 事务内重新确认成员关系，成员行加共享锁，与退出/驱逐的删除串行
func (s *MeetingService) lockMember(ctx context.Context, crewID, userID uint64) error {
	ok, err := s.d.Members.ExistsForShare(ctx, crewID, userID)
	if err != nil {
		return fmt.Errorf("check crew member: %w", err)
	}
	if !ok {
		return pkg.ErrNotCrewMember
	}
	return nil
}
