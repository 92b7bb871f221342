package service

import (
	"context"
	"errors"
	"fmt"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/policy"
	"Crew_Community/internal/storage"
)

// CrewQueryService 组装克鲁的各类读视图
type CrewQueryService struct {
	d          CrewDeps
	log        *pkg.Logger
	membership *policy.MembershipPolicy
}

func NewCrewQueryService(d CrewDeps) *CrewQueryService {
	if d.Log == nil {
		d.Log = pkg.NopLogger()
	}
	return &CrewQueryService{
		d:          d,
		log:        d.Log.With("service", "CrewQueryService"),
		membership: &policy.MembershipPolicy{Members: d.Members},
	}
}

func (s *CrewQueryService) GetCrewDetail(ctx context.Context, crewID, userID uint64) (*CrewDetail, error) {
	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, crew, pkg.MaxDetailThumbnails)
	if err != nil {
		return nil, err
	}
	isMember, err := s.d.Members.Exists(ctx, crewID, userID)
	if err != nil {
		return nil, fmt.Errorf("check crew member: %w", err)
	}
	return &CrewDetail{
		CrewView:  *view,
		IsMember:  isMember,
		IsCreator: crew.IsCreator(userID),
	}, nil
}

// ListCrews page 从 0 开始；推荐排序按请求用户的性别和年龄过滤
func (s *CrewQueryService) ListCrews(ctx context.Context, sort model.CrewSort, page int, userID uint64) (*pkg.Page[CrewView], error) {
	if page < 0 {
		page = 0
	}
	if page > pkg.MaxPage {
		page = pkg.MaxPage
	}
	offset := pkg.PageOffset(page, pkg.CrewPageSize)
	var (
		crews []model.Crew
		total int64
		err   error
	)
	if sort == model.CrewSortRecommended {
		user, uerr := s.d.Users.GetUserByID(ctx, userID)
		if uerr != nil {
			return nil, uerr
		}
		crews, total, err = s.d.Crews.ListRecommended(ctx, user.Gender, user.AgeAt(s.d.now()), offset, pkg.CrewPageSize)
	} else {
		crews, total, err = s.d.Crews.ListBySort(ctx, sort, offset, pkg.CrewPageSize)
	}
	if err != nil {
		return nil, fmt.Errorf("list crews: %w", err)
	}
	list := make([]CrewView, 0, len(crews))
	for i := range crews {
		v, err := s.view(ctx, &crews[i], pkg.MaxListThumbnails)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return &pkg.Page[CrewView]{List: list, Page: page, Size: pkg.CrewPageSize, Total: total}, nil
}

func (s *CrewQueryService) GetJoinedCrews(ctx context.Context, userID uint64) ([]JoinedCrew, error) {
	crews, err := s.d.Crews.ListJoinedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined crews: %w", err)
	}
	out := make([]JoinedCrew, 0, len(crews))
	for i := range crews {
		m, err := s.d.Members.Get(ctx, crews[i].ID, userID)
		if err != nil {
			return nil, fmt.Errorf("load crew member: %w", err)
		}
		if m == nil {
			// 列表与明细之间被并发移除
			continue
		}
		v, err := s.view(ctx, &crews[i], pkg.MaxListThumbnails)
		if err != nil {
			return nil, err
		}
		out = append(out, JoinedCrew{CrewView: *v, JoinedAt: m.JoinedAt(), MeetingViewed: m.MeetingViewed})
	}
	return out, nil
}

func (s *CrewQueryService) GetAppliedCrews(ctx context.Context, userID uint64) ([]AppliedCrew, error) {
	crews, err := s.d.Crews.ListAppliedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applied crews: %w", err)
	}
	out := make([]AppliedCrew, 0, len(crews))
	for i := range crews {
		a, err := s.d.Applications.Get(ctx, crews[i].ID, userID)
		if err != nil {
			return nil, fmt.Errorf("load crew application: %w", err)
		}
		if a == nil {
			continue
		}
		v, err := s.view(ctx, &crews[i], pkg.MaxListThumbnails)
		if err != nil {
			return nil, err
		}
		out = append(out, AppliedCrew{CrewView: *v, AppliedAt: a.AppliedAt()})
	}
	return out, nil
}

// GetMembers 只有成员可以查看
func (s *CrewQueryService) GetMembers(ctx context.Context, crewID, userID uint64) ([]MemberView, error) {
	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return nil, err
	}
	if err := s.membership.ValidateCrewMember(ctx, crewID, userID); err != nil {
		return nil, err
	}
	members, err := s.d.Members.ListByCrew(ctx, crewID)
	if err != nil {
		return nil, fmt.Errorf("list crew members: %w", err)
	}
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		u, err := s.d.Users.GetUserByID(ctx, m.UserID)
		if errors.Is(err, pkg.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, MemberView{
			UserID:       u.ID,
			Nickname:     u.Nickname,
			ProfileImage: s.d.Images.URL(storage.FolderUser, u.ProfileImage),
			Gender:       u.Gender,
			IsCreator:    crew.IsCreator(u.ID),
			JoinedAt:     m.JoinedAt(),
		})
	}
	return out, nil
}

// GetApplicants 只有创建者可以查看
func (s *CrewQueryService) GetApplicants(ctx context.Context, crewID, userID uint64) ([]ApplicantView, error) {
	crew, err := s.d.Crews.FindByID(ctx, crewID)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateCrewCreator(crew, userID); err != nil {
		return nil, err
	}
	apps, err := s.d.Applications.ListByCrew(ctx, crewID)
	if err != nil {
		return nil, fmt.Errorf("list crew applications: %w", err)
	}
	out := make([]ApplicantView, 0, len(apps))
	for _, a := range apps {
		u, err := s.d.Users.GetUserByID(ctx, a.UserID)
		if errors.Is(err, pkg.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ApplicantView{
			UserID:       u.ID,
			Nickname:     u.Nickname,
			ProfileImage: s.d.Images.URL(storage.FolderUser, u.ProfileImage),
			Gender:       u.Gender,
			Answer:       a.Answer,
			AppliedAt:    a.AppliedAt(),
		})
	}
	return out, nil
}

// UserImagesByCrew 创建者头像在第一位，其余成员保持查询顺序，最多 limit 张
func (s *CrewQueryService) UserImagesByCrew(ctx context.Context, crew *model.Crew, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	if s.d.Thumbnails != nil {
		images, hit, err := s.d.Thumbnails.Get(ctx, crew.ID, limit)
		if err != nil {
			s.log.Warn("read crew thumbnails failed", "crew_id", crew.ID, "err", err)
		} else if hit {
			return images, nil
		}
	}

	images := make([]string, 0, limit)
	creator, err := s.d.Users.GetUserByID(ctx, crew.CreatorID)
	switch {
	case err == nil:
		images = append(images, s.d.Images.URL(storage.FolderUser, creator.ProfileImage))
	case !errors.Is(err, pkg.ErrUserNotFound):
		return nil, err
	}
	others, err := s.d.Members.OtherMemberIDs(ctx, crew.ID, crew.CreatorID, limit-len(images))
	if err != nil {
		return nil, fmt.Errorf("list crew members: %w", err)
	}
	for _, id := range others {
		u, err := s.d.Users.GetUserByID(ctx, id)
		if errors.Is(err, pkg.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		images = append(images, s.d.Images.URL(storage.FolderUser, u.ProfileImage))
	}

	if s.d.Thumbnails != nil {
		if err := s.d.Thumbnails.Set(ctx, crew.ID, limit, images); err != nil {
			s.log.Warn("write crew thumbnails failed", "crew_id", crew.ID, "err", err)
		}
	}
	return images, nil
}

func (s *CrewQueryService) view(ctx context.Context, crew *model.Crew, thumbnails int) (*CrewView, error) {
	tags, err := s.d.Tags.GetTagsByCrewID(ctx, crew.ID)
	if err != nil {
		return nil, fmt.Errorf("load crew tags: %w", err)
	}
	images, err := s.UserImagesByCrew(ctx, crew, thumbnails)
	if err != nil {
		return nil, err
	}
	return &CrewView{
		ID:                 crew.ID,
		CreatorID:          crew.CreatorID,
		Name:               crew.Name,
		Description:        crew.Description,
		Icon:               s.d.Images.URL(storage.FolderCrew, crew.Icon),
		MinAge:             crew.MinAge,
		MaxAge:             crew.MaxAge,
		Gender:             crew.Gender,
		PermissionRequired: crew.PermissionRequired,
		AnswerRequired:     crew.AnswerRequired,
		Question:           crew.Question,
		Tags:               tags,
		MemberCount:        crew.MemberCount,
		MeetingCount:       crew.MeetingCount,
		UserImages:         images,
		CreatedAt:          crew.CreatedAt,
		UpdatedAt:          crew.UpdatedAt,
	}, nil
}
