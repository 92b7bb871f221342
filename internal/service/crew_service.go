package service

import (
	"context"
	"fmt"
	"time"

	"Crew_Community/internal/metrics"
	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/policy"
	"Crew_Community/internal/storage"
)

type CrewDeps struct {
	Tx             Transactor
	Crews          CrewStore
	Tags           CrewTagStore
	Members        CrewMemberStore
	Applications   CrewApplicationStore
	Meetings       MeetingStore
	MeetingMembers MeetingMemberStore
	Users          UserReader
	Outbox         OutboxWriter
	Images         ImageStore
	Thumbnails     ThumbnailCache
	Log            *pkg.Logger
	MaxJoined      int
	MaxApplied     int
	Now            func() time.Time
}

func (d *CrewDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// invalidateThumbnails 缓存失效失败只记日志，TTL 兜底
func (d *CrewDeps) invalidateThumbnails(ctx context.Context, crewID uint64) {
	if d.Thumbnails == nil {
		return
	}
	if err := d.Thumbnails.Invalidate(ctx, crewID); err != nil {
		d.Log.Warn("invalidate crew thumbnails failed", "crew_id", crewID, "err", err)
	}
}

// CrewService 克鲁生命周期：创建、修改、删除以及成员/申请的状态流转
type CrewService struct {
	d           CrewDeps
	log         *pkg.Logger
	membership  *policy.MembershipPolicy
	create      *policy.CreatePolicy
	update      *policy.UpdatePolicy
	application *policy.ApplicationPolicy
}

func NewCrewService(d CrewDeps) *CrewService {
	if d.Log == nil {
		d.Log = pkg.NopLogger()
	}
	return &CrewService{
		d:          d,
		log:        d.Log.With("service", "CrewService"),
		membership: &policy.MembershipPolicy{Members: d.Members},
		create: &policy.CreatePolicy{
			Crews:     d.Crews,
			Members:   d.Members,
			MaxJoined: d.MaxJoined,
		},
		update: &policy.UpdatePolicy{
			Crews:   d.Crews,
			Members: d.Members,
			Users:   d.Users,
			Now:     d.now,
		},
		application: &policy.ApplicationPolicy{
			Members:      d.Members,
			Applications: d.Applications,
			MaxJoined:    d.MaxJoined,
			MaxApplied:   d.MaxApplied,
			Now:          d.now,
		},
	}
}

// GetCrew 克鲁及其标签
func (s *CrewService) GetCrew(ctx context.Context, crewID uint64) (*model.Crew, error) {
	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return nil, err
	}
	tags, err := s.d.Tags.GetTagsByCrewID(ctx, crewID)
	if err != nil {
		return nil, fmt.Errorf("load crew tags: %w", err)
	}
	crew.Tags = tags
	return crew, nil
}

// CreateCrew 创建者直接成为成员；事务失败时删除已上传的图标
func (s *CrewService) CreateCrew(ctx context.Context, userID uint64, in CrewInput, img *Image) (crew *model.Crew, err error) {
	defer func() { metrics.RecordTransition("create", err) }()

	if _, err = s.d.Users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	crew = &model.Crew{CreatorID: userID}
	in.apply(crew)
	if err = s.create.Validate(ctx, crew); err != nil {
		return nil, err
	}

	if img != nil {
		key, uerr := s.d.Images.Upload(ctx, storage.FolderCrew, img.Filename, img.Body)
		if uerr != nil {
			return nil, fmt.Errorf("upload crew icon: %w", uerr)
		}
		crew.Icon = key
	}

	crew.MemberCount = 1
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.d.Crews.Create(ctx, crew); err != nil {
			return err
		}
		if err := s.d.Tags.AddTags(ctx, crew.ID, crew.Tags); err != nil {
			return fmt.Errorf("add crew tags: %w", err)
		}
		if err := s.d.Members.Add(ctx, crew.ID, userID); err != nil {
			return err
		}
		return s.d.Outbox.Insert(ctx, model.CrewEventJoined, crew.ID, userID, userID)
	})
	if err != nil {
		s.deleteIcon(ctx, crew.Icon)
		return nil, err
	}
	s.log.Info("crew created", "crew_id", crew.ID, "user_id", userID)
	return crew, nil
}

// UpdateCrewInfo 只有创建者可以修改；标签按差异更新。
// 校验与写入都在克鲁行锁内完成，与并发的申请串行
func (s *CrewService) UpdateCrewInfo(ctx context.Context, crewID, userID uint64, in CrewInput) (err error) {
	defer func() { metrics.RecordTransition("update_info", err) }()

	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		old, err := s.d.Crews.FindByIDForUpdate(ctx, crewID)
		if err != nil {
			return err
		}
		if old.Tags, err = s.d.Tags.GetTagsByCrewID(ctx, crewID); err != nil {
			return fmt.Errorf("load crew tags: %w", err)
		}
		updated := *old
		in.apply(&updated)
		if err := s.update.Validate(ctx, old, &updated, userID); err != nil {
			return err
		}
		if err := s.d.Crews.Save(ctx, &updated); err != nil {
			return err
		}
		if err := s.d.Tags.UpdateTags(ctx, old.Tags, updated.Tags, crewID); err != nil {
			return fmt.Errorf("update crew tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("crew info updated", "crew_id", crewID, "user_id", userID)
	return nil
}

// UpdateCrewImage 未上传新图时保留原图标
func (s *CrewService) UpdateCrewImage(ctx context.Context, crewID, userID uint64, img *Image) (err error) {
	defer func() { metrics.RecordTransition("update_image", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if err = policy.ValidateCrewCreator(crew, userID); err != nil {
		return err
	}
	if img == nil {
		return nil
	}
	key, err := s.d.Images.Upload(ctx, storage.FolderCrew, img.Filename, img.Body)
	if err != nil {
		return fmt.Errorf("upload crew icon: %w", err)
	}
	oldKey := crew.Icon
	crew.Icon = key
	if err = s.d.Crews.Save(ctx, crew); err != nil {
		s.deleteIcon(ctx, key)
		return err
	}
	s.deleteIcon(ctx, oldKey)
	s.log.Info("crew image updated", "crew_id", crewID, "user_id", userID)
	return nil
}

// DeleteCrew 在一个事务里删除克鲁及全部从属数据，提交后再删图标
func (s *CrewService) DeleteCrew(ctx context.Context, crewID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("delete", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if err = policy.ValidateCrewCreator(crew, userID); err != nil {
		return err
	}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.d.Crews.Delete(ctx, crewID); err != nil {
			return err
		}
		return s.d.Outbox.Insert(ctx, model.CrewEventDeleted, crewID, userID, userID)
	})
	if err != nil {
		return err
	}
	s.deleteIcon(ctx, crew.Icon)
	s.d.invalidateThumbnails(ctx, crewID)
	s.log.Info("crew deleted", "crew_id", crewID, "user_id", userID)
	return nil
}

// ApplyCrew 需要审批的克鲁写入申请，否则直接加入；joined 表示是否已成为成员。
// 事务内锁住克鲁行后按最新的配置重新校验，避免与修改克鲁信息交错
func (s *CrewService) ApplyCrew(ctx context.Context, crewID, userID uint64, answer string) (joined bool, err error) {
	defer func() { metrics.RecordTransition("apply", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return false, err
	}
	user, err := s.d.Users.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if err = s.application.ValidateApply(ctx, crew, user, answer); err != nil {
		return false, err
	}

	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		locked, err := s.d.Crews.FindByIDForUpdate(ctx, crewID)
		if err != nil {
			return err
		}
		if err := s.application.ValidateApply(ctx, locked, user, answer); err != nil {
			return err
		}
		if !locked.PermissionRequired {
			joined = true
			return s.addMember(ctx, crewID, userID, userID, model.CrewEventJoined)
		}
		if err := s.d.Applications.Save(ctx, crewID, userID, answer); err != nil {
			return err
		}
		return s.d.Outbox.Insert(ctx, model.CrewEventApplied, crewID, userID, userID)
	})
	if err != nil {
		return false, err
	}
	if !joined {
		s.log.Info("crew applied", "crew_id", crewID, "user_id", userID)
		return false, nil
	}
	s.d.invalidateThumbnails(ctx, crewID)
	s.log.Info("crew joined", "crew_id", crewID, "user_id", userID)
	return true, nil
}

func (s *CrewService) WithdrawApplication(ctx context.Context, crewID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("withdraw", err) }()

	if _, err = s.d.Crews.FindByID(ctx, crewID); err != nil {
		return err
	}
	if err = s.application.ValidateApplication(ctx, crewID, userID); err != nil {
		return err
	}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		return s.resolveApplication(ctx, crewID, userID, userID, model.CrewEventWithdrawn)
	})
	if err != nil {
		return err
	}
	s.log.Info("crew application withdrawn", "crew_id", crewID, "user_id", userID)
	return nil
}

// ApproveApplication 删除申请与写入成员在同一事务内，任何一步失败都回到 APPLIED
func (s *CrewService) ApproveApplication(ctx context.Context, crewID, applicantID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("approve", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if err = policy.ValidateCrewCreator(crew, userID); err != nil {
		return err
	}
	if err = s.application.ValidateApplication(ctx, crewID, applicantID); err != nil {
		return err
	}
	if err = s.application.ValidateJoinQuota(ctx, applicantID); err != nil {
		return err
	}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.resolveApplication(ctx, crewID, applicantID, userID, model.CrewEventApproved); err != nil {
			return err
		}
		return s.addMember(ctx, crewID, applicantID, userID, "")
	})
	if err != nil {
		return err
	}
	s.d.invalidateThumbnails(ctx, crewID)
	s.log.Info("crew application approved", "crew_id", crewID, "user_id", applicantID, "actor_id", userID)
	return nil
}

func (s *CrewService) DisapproveApplication(ctx context.Context, crewID, applicantID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("disapprove", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if err = policy.ValidateCrewCreator(crew, userID); err != nil {
		return err
	}
	if err = s.application.ValidateApplication(ctx, crewID, applicantID); err != nil {
		return err
	}
	err = s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		return s.resolveApplication(ctx, crewID, applicantID, userID, model.CrewEventDisapproved)
	})
	if err != nil {
		return err
	}
	s.log.Info("crew application disapproved", "crew_id", crewID, "user_id", applicantID, "actor_id", userID)
	return nil
}

// LeaveCrew 创建者不能退出，先于成员校验判断
func (s *CrewService) LeaveCrew(ctx context.Context, crewID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("leave", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if crew.IsCreator(userID) {
		return pkg.ErrCreatorDeleteForbidden
	}
	if err = s.membership.ValidateCrewMember(ctx, crewID, userID); err != nil {
		return err
	}
	if err = s.removeMember(ctx, crewID, userID, userID, model.CrewEventLeft); err != nil {
		return err
	}
	s.log.Info("crew left", "crew_id", crewID, "user_id", userID)
	return nil
}

// ExpelMember 无论调用者是谁，目标是创建者时都拒绝
func (s *CrewService) ExpelMember(ctx context.Context, crewID, memberID, userID uint64) (err error) {
	defer func() { metrics.RecordTransition("expel", err) }()

	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return err
	}
	if crew.IsCreator(memberID) {
		return pkg.ErrCreatorDeleteForbidden
	}
	if err = policy.ValidateCrewCreator(crew, userID); err != nil {
		return err
	}
	if err = s.membership.ValidateCrewMember(ctx, crewID, memberID); err != nil {
		return err
	}
	if err = s.removeMember(ctx, crewID, memberID, userID, model.CrewEventExpelled); err != nil {
		return err
	}
	s.log.Info("crew member expelled", "crew_id", crewID, "user_id", memberID, "actor_id", userID)
	return nil
}

// UpdateMeetingViewed 成员查看过克鲁的活动后清除新活动提示
func (s *CrewService) UpdateMeetingViewed(ctx context.Context, crewID, userID uint64) error {
	if _, err := s.d.Crews.FindByID(ctx, crewID); err != nil {
		return err
	}
	// MySQL 对值未变化的行不计入影响行数，成员关系单独校验
	if err := s.membership.ValidateCrewMember(ctx, crewID, userID); err != nil {
		return err
	}
	if err := s.d.Members.SetMeetingViewed(ctx, crewID, userID); err != nil {
		return fmt.Errorf("update meeting viewed: %w", err)
	}
	return nil
}

// addMember 写成员行并计数；event 为空时不写 outbox（由调用方写）
func (s *CrewService) addMember(ctx context.Context, crewID, userID, actorID uint64, event string) error {
	if err := s.d.Members.Add(ctx, crewID, userID); err != nil {
		return err
	}
	if err := s.d.Crews.AddMemberCount(ctx, crewID, 1); err != nil {
		return fmt.Errorf("incr member count: %w", err)
	}
	if event == "" {
		return nil
	}
	return s.d.Outbox.Insert(ctx, event, crewID, userID, actorID)
}

// resolveApplication 删除 0 行说明申请已被并发处理
func (s *CrewService) resolveApplication(ctx context.Context, crewID, applicantID, actorID uint64, event string) error {
	deleted, err := s.d.Applications.Delete(ctx, crewID, applicantID)
	if err != nil {
		return fmt.Errorf("delete crew application: %w", err)
	}
	if !deleted {
		return pkg.ErrDuplicateTransition
	}
	return s.d.Outbox.Insert(ctx, event, crewID, applicantID, actorID)
}

// removeMember 先删成员行，再清理该克鲁下的活动参与记录和该用户发起的活动
func (s *CrewService) removeMember(ctx context.Context, crewID, userID, actorID uint64, event string) error {
	err := s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		removed, err := s.d.Members.Remove(ctx, crewID, userID)
		if err != nil {
			return fmt.Errorf("remove crew member: %w", err)
		}
		if !removed {
			return pkg.ErrDuplicateTransition
		}
		if _, err := s.d.MeetingMembers.RemoveAllByUserIDAndCrewID(ctx, userID, crewID); err != nil {
			return fmt.Errorf("remove meeting members: %w", err)
		}
		meetings, err := s.d.Meetings.DeleteAllByUserIDAndCrewID(ctx, userID, crewID)
		if err != nil {
			return fmt.Errorf("delete meetings: %w", err)
		}
		if err := s.d.Crews.AddMeetingCount(ctx, crewID, -meetings); err != nil {
			return fmt.Errorf("decr meeting count: %w", err)
		}
		if err := s.d.Crews.AddMemberCount(ctx, crewID, -1); err != nil {
			return fmt.Errorf("decr member count: %w", err)
		}
		return s.d.Outbox.Insert(ctx, event, crewID, userID, actorID)
	})
	if err != nil {
		return err
	}
	s.d.invalidateThumbnails(ctx, crewID)
	return nil
}

// deleteIcon 图片删除失败不影响主流程
func (s *CrewService) deleteIcon(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.d.Images.Delete(ctx, storage.FolderCrew, key); err != nil {
		s.log.Error("delete crew icon failed", "key", key, "err", err)
	}
}
