package model

import "time"

type CrewGender string

const (
	CrewGenderMale   CrewGender = "MALE"
	CrewGenderFemale CrewGender = "FEMALE"
	CrewGenderAny    CrewGender = "ANY"
)

// Accepts 判断该性别的用户是否满足克鲁的性别要求
func (g CrewGender) Accepts(gender Gender) bool {
	return g == CrewGenderAny || string(g) == string(gender)
}

func (g CrewGender) Valid() bool {
	switch g {
	case CrewGenderMale, CrewGenderFemale, CrewGenderAny:
		return true
	}
	return false
}

type Crew struct {
	ID                 uint64     `gorm:"primaryKey"`
	CreatorID          uint64     `gorm:"not null;index"`
	Name               string     `gorm:"uniqueIndex;size:64;not null"`
	Description        string     `gorm:"type:text"`
	Icon               string     `gorm:"size:255"`
	MinAge             int        `gorm:"not null"`
	MaxAge             int        `gorm:"not null"`
	Gender             CrewGender `gorm:"size:8;not null"`
	PermissionRequired bool       `gorm:"not null"`
	AnswerRequired     bool       `gorm:"not null"`
	Question           string     `gorm:"size:255"`
	MemberCount        int64      `gorm:"not null;default:0;index"`
	MeetingCount       int64      `gorm:"not null;default:0;index"`
	Tags               []string   `gorm:"-"`
	Auditing
}

func (c *Crew) IsCreator(userID uint64) bool {
	return c.CreatorID == userID
}

// CrewTag 同一克鲁内标签不重复
type CrewTag struct {
	ID     uint64 `gorm:"primaryKey"`
	CrewID uint64 `gorm:"not null;uniqueIndex:uk_crew_tag,priority:1"`
	Tag    string `gorm:"size:16;not null;uniqueIndex:uk_crew_tag,priority:2"`
}

// CrewMember 联合主键 (crew_id, user_id)，同一用户在同一克鲁中最多一行
type CrewMember struct {
	CrewID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID        uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	MeetingViewed bool   `gorm:"not null;default:true"` // 是否已看过最新活动
	Auditing
}

func (m *CrewMember) JoinedAt() time.Time { return m.CreatedAt }

// CrewApplication 待审批的加入申请，与 CrewMember 互斥
type CrewApplication struct {
	CrewID uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	Answer string `gorm:"type:text"`
	Auditing
}

func (a *CrewApplication) AppliedAt() time.Time { return a.CreatedAt }

// CrewSort 列表排序方式，推荐排序另外按用户条件过滤
type CrewSort int

const (
	CrewSortRecommended CrewSort = iota
	CrewSortPopular
	CrewSortActive
	CrewSortLatest
)
