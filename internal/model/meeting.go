package model

import "time"

type Meeting struct {
	ID       uint64    `gorm:"primaryKey"`
	CrewID   uint64    `gorm:"not null;index:idx_meeting_crew_user,priority:1"`
	UserID   uint64    `gorm:"not null;index:idx_meeting_crew_user,priority:2"` // 发起人
	Title    string    `gorm:"size:100;not null"`
	StartsAt time.Time `gorm:"not null"`
	Auditing
}

type MeetingMember struct {
	MeetingID uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	Auditing
}
