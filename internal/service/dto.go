package service

import (
	"io"
	"strings"
	"time"

	"Crew_Community/internal/model"
)

// Image 上传的图片，Body 由调用方负责关闭
type Image struct {
	Filename string
	Body     io.Reader
}

type CrewInput struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	MinAge             int              `json:"min_age"`
	MaxAge             int              `json:"max_age"`
	Gender             model.CrewGender `json:"gender"`
	PermissionRequired bool             `json:"permission_required"`
	AnswerRequired     bool             `json:"answer_required"`
	Question           string           `json:"question"`
	Tags               []string         `json:"tags"`
}

// apply 名称与标签去掉首尾空白
func (in *CrewInput) apply(c *model.Crew) {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.MinAge = in.MinAge
	c.MaxAge = in.MaxAge
	c.Gender = in.Gender
	c.PermissionRequired = in.PermissionRequired
	c.AnswerRequired = in.AnswerRequired
	c.Question = in.Question
	c.Tags = make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		c.Tags = append(c.Tags, strings.TrimSpace(t))
	}
}

type CrewView struct {
	ID                 uint64           `json:"id"`
	CreatorID          uint64           `json:"creator_id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Icon               string           `json:"icon"`
	MinAge             int              `json:"min_age"`
	MaxAge             int              `json:"max_age"`
	Gender             model.CrewGender `json:"gender"`
	PermissionRequired bool             `json:"permission_required"`
	AnswerRequired     bool             `json:"answer_required"`
	Question           string           `json:"question"`
	Tags               []string         `json:"tags"`
	MemberCount        int64            `json:"member_count"`
	MeetingCount       int64            `json:"meeting_count"`
	UserImages         []string         `json:"user_images"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type CrewDetail struct {
	CrewView
	IsMember  bool `json:"is_member"`
	IsCreator bool `json:"is_creator"`
}

type JoinedCrew struct {
	CrewView
	JoinedAt      time.Time `json:"joined_at"`
	MeetingViewed bool      `json:"meeting_viewed"`
}

type AppliedCrew struct {
	CrewView
	AppliedAt time.Time `json:"applied_at"`
}

type MemberView struct {
	UserID       uint64       `json:"user_id"`
	Nickname     string       `json:"nickname"`
	ProfileImage string       `json:"profile_image"`
	Gender       model.Gender `json:"gender"`
	IsCreator    bool         `json:"is_creator"`
	JoinedAt     time.Time    `json:"joined_at"`
}

type ApplicantView struct {
	UserID       uint64       `json:"user_id"`
	Nickname     string       `json:"nickname"`
	ProfileImage string       `json:"profile_image"`
	Gender       model.Gender `json:"gender"`
	Answer       string       `json:"answer"`
	AppliedAt    time.Time    `json:"applied_at"`
}
