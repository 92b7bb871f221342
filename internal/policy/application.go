package policy

import (
	"context"
	"fmt"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
)

type ApplicationPolicy struct {
	Members      MemberReader
	Applications ApplicationReader
	MaxJoined    int
	MaxApplied   int
	Now          func() time.Time
}

// ValidateApply 已有成员或申请关系时直接拒绝，这是防止重复行的唯一入口
func (p *ApplicationPolicy) ValidateApply(ctx context.Context, c *model.Crew, u *model.User, answer string) error {
	member, err := p.Members.Exists(ctx, c.ID, u.ID)
	if err != nil {
		return fmt.Errorf("check crew member: %w", err)
	}
	if member {
		return pkg.ErrAlreadyMember
	}
	applied, err := p.Applications.Exists(ctx, c.ID, u.ID)
	if err != nil {
		return fmt.Errorf("check crew application: %w", err)
	}
	if applied {
		return pkg.ErrAlreadyApplied
	}
	if err := p.ValidateJoinQuota(ctx, u.ID); err != nil {
		return err
	}
	if c.PermissionRequired {
		n, err := p.Applications.CountByUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("count applications: %w", err)
		}
		if n >= int64(p.MaxApplied) {
			return pkg.ErrAppliedExceeded
		}
	}
	if err := CheckAge(c, u, p.now()); err != nil {
		return err
	}
	if err := CheckGender(c, u); err != nil {
		return err
	}
	return CheckAnswer(c, answer)
}

// ValidateJoinQuota 审批通过时也要再检查一次，申请期间用户可能已加入其他克鲁
func (p *ApplicationPolicy) ValidateJoinQuota(ctx context.Context, userID uint64) error {
	n, err := p.Members.CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("count joined crews: %w", err)
	}
	if n >= int64(p.MaxJoined) {
		return pkg.ErrJoinedCrewsExceeded
	}
	return nil
}

func (p *ApplicationPolicy) ValidateApplication(ctx context.Context, crewID, applicantID uint64) error {
	ok, err := p.Applications.Exists(ctx, crewID, applicantID)
	if err != nil {
		return fmt.Errorf("check crew application: %w", err)
	}
	if !ok {
		return pkg.ErrApplicationNotFound
	}
	return nil
}

func (p *ApplicationPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
