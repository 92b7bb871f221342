package policy

import (
	"context"
	"fmt"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
)

type CreatePolicy struct {
	Crews     CrewNameReader
	Members   MemberReader
	MaxJoined int
}

// Validate 在持久化之前执行一次；名称唯一最终仍由唯一索引兜底
func (p *CreatePolicy) Validate(ctx context.Context, c *model.Crew) error {
	if err := ValidateCrewFields(c); err != nil {
		return err
	}
	dup, err := p.Crews.ExistsByName(ctx, c.Name, 0)
	if err != nil {
		return fmt.Errorf("check crew name: %w", err)
	}
	if dup {
		return pkg.ErrDuplicateCrewName
	}
	joined, err := p.Members.CountByUser(ctx, c.CreatorID)
	if err != nil {
		return fmt.Errorf("count joined crews: %w", err)
	}
	if joined >= int64(p.MaxJoined) {
		return pkg.ErrJoinedCrewsExceeded
	}
	return nil
}
