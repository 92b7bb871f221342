// Package policy 克鲁相关的校验规则：只读取快照，校验失败返回 pkg 中的业务错误
package policy

import (
	"strings"
	"time"
	"unicode/utf8"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
)

const (
	MaxNameLen        = 30
	MaxDescriptionLen = 500
	MaxCrewAge        = 100
	MaxTags           = 3
	MaxTagLen         = 10
)

// ValidateCrewFields 创建与修改共用的字段校验
func ValidateCrewFields(c *model.Crew) error {
	name := strings.TrimSpace(c.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLen {
		return pkg.ErrInvalidCrewName
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLen {
		return pkg.ErrInvalidDescription
	}
	if c.MinAge < 0 || c.MaxAge > MaxCrewAge || c.MinAge > c.MaxAge {
		return pkg.ErrInvalidAgeRange
	}
	if !c.Gender.Valid() {
		return pkg.ErrInvalidCrewGender
	}
	if len(c.Tags) > MaxTags {
		return pkg.ErrInvalidTags
	}
	seen := make(map[string]bool, len(c.Tags))
	for _, t := range c.Tags {
		t = strings.TrimSpace(t)
		if n := utf8.RuneCountInString(t); n == 0 || n > MaxTagLen || seen[t] {
			return pkg.ErrInvalidTags
		}
		seen[t] = true
	}
	return nil
}

// CheckAge 年龄按满周岁计算，上下限都包含
func CheckAge(c *model.Crew, u *model.User, now time.Time) error {
	age := u.AgeAt(now)
	if age < c.MinAge || age > c.MaxAge {
		return pkg.ErrAgeForbidden
	}
	return nil
}

func CheckGender(c *model.Crew, u *model.User) error {
	if !c.Gender.Accepts(u.Gender) {
		return pkg.ErrGenderForbidden
	}
	return nil
}

func CheckAnswer(c *model.Crew, answer string) error {
	if c.AnswerRequired && strings.TrimSpace(answer) == "" {
		return pkg.ErrEmptyAnswer
	}
	return nil
}
