package handler

import (
	"context"
	"net/http"
	"time"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"

	"github.com/gin-gonic/gin"
)

type MeetingCommands interface {
	CreateMeeting(ctx context.Context, crewID, userID uint64, title string, startsAt time.Time) (*model.Meeting, error)
	JoinMeeting(ctx context.Context, meetingID, userID uint64) error
}

type MeetingHandler struct {
	svc MeetingCommands
	log *pkg.Logger
}

func NewMeetingHandler(svc MeetingCommands, log *pkg.Logger) *MeetingHandler {
	if log == nil {
		log = pkg.NopLogger()
	}
	return &MeetingHandler{svc: svc, log: log.With("handler", "MeetingHandler")}
}

type createMeetingReq struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
}

// Create 只有克鲁成员可以发起聚会
func (h *MeetingHandler) Create(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	var req createMeetingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	m, err := h.svc.CreateMeeting(c.Request.Context(), crewID, userIDFromCtx(c), req.Title, req.StartsAt)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "meeting created", gin.H{"id": m.ID})
}

func (h *MeetingHandler) Join(c *gin.Context) {
	meetingID, valid := pathID(c, "meetingId")
	if !valid {
		return
	}
	if err := h.svc.JoinMeeting(c.Request.Context(), meetingID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "meeting joined", nil)
}
