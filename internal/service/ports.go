package service

import (
	"context"
	"io"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/policy"
)

// Transactor 把多次仓储调用组合成一个原子单元
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CrewStore interface {
	policy.CrewNameReader
	Create(ctx context.Context, c *model.Crew) error
	Save(ctx context.Context, c *model.Crew) error
	FindByID(ctx context.Context, id uint64) (*model.Crew, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Crew, error)
	Delete(ctx context.Context, id uint64) error
	AddMemberCount(ctx context.Context, crewID uint64, delta int64) error
	AddMeetingCount(ctx context.Context, crewID uint64, delta int64) error
	ListBySort(ctx context.Context, sort model.CrewSort, offset, limit int) ([]model.Crew, int64, error)
	ListRecommended(ctx context.Context, gender model.Gender, age, offset, limit int) ([]model.Crew, int64, error)
	ListJoinedByUser(ctx context.Context, userID uint64) ([]model.Crew, error)
	ListAppliedByUser(ctx context.Context, userID uint64) ([]model.Crew, error)
}

type CrewTagStore interface {
	AddTags(ctx context.Context, crewID uint64, tags []string) error
	UpdateTags(ctx context.Context, oldTags, newTags []string, crewID uint64) error
	GetTagsByCrewID(ctx context.Context, crewID uint64) ([]string, error)
}

type CrewMemberStore interface {
	policy.MemberReader
	Add(ctx context.Context, crewID, userID uint64) error
	Remove(ctx context.Context, crewID, userID uint64) (bool, error)
	ExistsForShare(ctx context.Context, crewID, userID uint64) (bool, error)
	SetMeetingViewed(ctx context.Context, crewID, userID uint64) error
	ResetMeetingViewed(ctx context.Context, crewID, exceptUserID uint64) error
	Get(ctx context.Context, crewID, userID uint64) (*model.CrewMember, error)
	ListByCrew(ctx context.Context, crewID uint64) ([]model.CrewMember, error)
	OtherMemberIDs(ctx context.Context, crewID, excludeUserID uint64, limit int) ([]uint64, error)
}

type CrewApplicationStore interface {
	policy.ApplicationReader
	Save(ctx context.Context, crewID, userID uint64, answer string) error
	Delete(ctx context.Context, crewID, userID uint64) (bool, error)
	Get(ctx context.Context, crewID, userID uint64) (*model.CrewApplication, error)
	ListByCrew(ctx context.Context, crewID uint64) ([]model.CrewApplication, error)
}

type MeetingStore interface {
	Create(ctx context.Context, m *model.Meeting) error
	FindByID(ctx context.Context, id uint64) (*model.Meeting, error)
	DeleteAllByUserIDAndCrewID(ctx context.Context, userID, crewID uint64) (int64, error)
}

type MeetingMemberStore interface {
	Add(ctx context.Context, meetingID, userID uint64) error
	RemoveAllByUserIDAndCrewID(ctx context.Context, userID, crewID uint64) (int64, error)
	Exists(ctx context.Context, meetingID, userID uint64) (bool, error)
}

type UserReader interface {
	policy.UserReader
}

type OutboxWriter interface {
	Insert(ctx context.Context, event string, crewID, userID, actorID uint64) error
}

type ImageStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, folder, key string) error
	URL(folder, key string) string
}

// ThumbnailCache 可以为 nil，此时每次都查库
type ThumbnailCache interface {
	Get(ctx context.Context, crewID uint64, limit int) ([]string, bool, error)
	Set(ctx context.Context, crewID uint64, limit int, images []string) error
	Invalidate(ctx context.Context, crewID uint64) error
}

// Locker 多实例部署时后台任务的互斥，可以为 nil
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}
