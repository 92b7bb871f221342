package policy

import (
	"context"

	"Crew_Community/internal/model"
)

type MemberReader interface {
	Exists(ctx context.Context, crewID, userID uint64) (bool, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
	ListUserIDs(ctx context.Context, crewID uint64) ([]uint64, error)
}

type ApplicationReader interface {
	Exists(ctx context.Context, crewID, userID uint64) (bool, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
}

type CrewNameReader interface {
	ExistsByName(ctx context.Context, name string, excludeID uint64) (bool, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
}
