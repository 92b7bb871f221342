package policy

import (
	"context"
	"fmt"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
)

// MembershipPolicy 成员与创建者两类权限校验，互相独立使用
type MembershipPolicy struct {
	Members MemberReader
}

func (p *MembershipPolicy) ValidateCrewMember(ctx context.Context, crewID, userID uint64) error {
	ok, err := p.Members.Exists(ctx, crewID, userID)
	if err != nil {
		return fmt.Errorf("check crew member: %w", err)
	}
	if !ok {
		return pkg.ErrNotCrewMember
	}
	return nil
}

func ValidateCrewCreator(c *model.Crew, userID uint64) error {
	if !c.IsCreator(userID) {
		return pkg.ErrNotCrewCreator
	}
	return nil
}
