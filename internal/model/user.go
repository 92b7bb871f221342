package model

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

const (
	UserStatusEnable  = 0
	UserStatusDisable = 1
	UserStatusLeaved  = 2
)

// User 由用户子系统维护，这里只读
type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Nickname     string    `gorm:"size:32;not null"`
	Gender       Gender    `gorm:"size:8;not null"`
	Birthday     time.Time `gorm:"type:date;not null"`
	ProfileImage string    `gorm:"size:255"`
	Regions      string    `gorm:"size:255"` // 逗号分隔
	Status       int       `gorm:"not null;default:0"`
	Auditing
}

// AgeAt 以满周岁计算
func (u *User) AgeAt(now time.Time) int {
	age := now.Year() - u.Birthday.Year()
	if now.Month() < u.Birthday.Month() || (now.Month() == u.Birthday.Month() && now.Day() < u.Birthday.Day()) {
		age--
	}
	return age
}

func (u *User) RegionList() []string {
	if u.Regions == "" {
		return nil
	}
	parts := strings.Split(u.Regions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
