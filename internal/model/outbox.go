package model

const (
	CrewEventApplied     = "applied"
	CrewEventJoined      = "joined"
	CrewEventWithdrawn   = "withdrawn"
	CrewEventApproved    = "approved"
	CrewEventDisapproved = "disapproved"
	CrewEventLeft        = "left"
	CrewEventExpelled    = "expelled"
	CrewEventDeleted     = "deleted"
)

const (
	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)

// CrewOutbox 克鲁成员事件表，与状态变更在同一事务内写入
type CrewOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	CrewID    uint64 `gorm:"not null;index"`
	UserID    uint64 `gorm:"not null"`
	ActorID   uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"` // 0=pending,1=sent,2=failed
	Retry     int    `gorm:"not null;default:0"`
	Auditing
}

func (CrewOutbox) TableName() string { return "crew_outbox" }
