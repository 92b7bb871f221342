package policy

import (
	"context"
	"fmt"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
)

type UpdatePolicy struct {
	Crews   CrewNameReader
	Members MemberReader
	Users   UserReader
	Now     func() time.Time
}

// Validate 只有创建者可以修改；收紧年龄或性别条件时，现有成员必须仍然满足
func (p *UpdatePolicy) Validate(ctx context.Context, old, updated *model.Crew, userID uint64) error {
	if err := ValidateCrewCreator(old, userID); err != nil {
		return err
	}
	if err := ValidateCrewFields(updated); err != nil {
		return err
	}
	if updated.Name != old.Name {
		dup, err := p.Crews.ExistsByName(ctx, updated.Name, old.ID)
		if err != nil {
			return fmt.Errorf("check crew name: %w", err)
		}
		if dup {
			return pkg.ErrDuplicateCrewName
		}
	}
	if !narrowed(old, updated) {
		return nil
	}
	ids, err := p.Members.ListUserIDs(ctx, old.ID)
	if err != nil {
		return fmt.Errorf("list crew members: %w", err)
	}
	now := p.now()
	for _, id := range ids {
		u, err := p.Users.GetUserByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load member %d: %w", id, err)
		}
		if CheckAge(updated, u, now) != nil || CheckGender(updated, u) != nil {
			return pkg.ErrMemberOutOfBounds
		}
	}
	return nil
}

func (p *UpdatePolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func narrowed(old, updated *model.Crew) bool {
	if updated.MinAge > old.MinAge || updated.MaxAge < old.MaxAge {
		return true
	}
	return updated.Gender != old.Gender && updated.Gender != model.CrewGenderAny
}
