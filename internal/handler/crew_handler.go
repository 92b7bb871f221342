package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"Crew_Community/internal/model"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// CrewCommands 克鲁状态变更
type CrewCommands interface {
	CreateCrew(ctx context.Context, userID uint64, in service.CrewInput, img *service.Image) (*model.Crew, error)
	UpdateCrewInfo(ctx context.Context, crewID, userID uint64, in service.CrewInput) error
	UpdateCrewImage(ctx context.Context, crewID, userID uint64, img *service.Image) error
	DeleteCrew(ctx context.Context, crewID, userID uint64) error
	ApplyCrew(ctx context.Context, crewID, userID uint64, answer string) (bool, error)
	WithdrawApplication(ctx context.Context, crewID, userID uint64) error
	ApproveApplication(ctx context.Context, crewID, applicantID, userID uint64) error
	DisapproveApplication(ctx context.Context, crewID, applicantID, userID uint64) error
	LeaveCrew(ctx context.Context, crewID, userID uint64) error
	ExpelMember(ctx context.Context, crewID, memberID, userID uint64) error
	UpdateMeetingViewed(ctx context.Context, crewID, userID uint64) error
}

// CrewQueries 克鲁读视图
type CrewQueries interface {
	GetCrewDetail(ctx context.Context, crewID, userID uint64) (*service.CrewDetail, error)
	ListCrews(ctx context.Context, sort model.CrewSort, page int, userID uint64) (*pkg.Page[service.CrewView], error)
	GetJoinedCrews(ctx context.Context, userID uint64) ([]service.JoinedCrew, error)
	GetAppliedCrews(ctx context.Context, userID uint64) ([]service.AppliedCrew, error)
	GetMembers(ctx context.Context, crewID, userID uint64) ([]service.MemberView, error)
	GetApplicants(ctx context.Context, crewID, userID uint64) ([]service.ApplicantView, error)
}

type CrewHandler struct {
	cmd   CrewCommands
	query CrewQueries
	log   *pkg.Logger
}

func NewCrewHandler(cmd CrewCommands, query CrewQueries, log *pkg.Logger) *CrewHandler {
	if log == nil {
		log = pkg.NopLogger()
	}
	return &CrewHandler{cmd: cmd, query: query, log: log.With("handler", "CrewHandler")}
}

type applyReq struct {
	Answer string `json:"answer"`
}

// readImage 读取可选的 image 文件，没有上传时返回 nil
func readImage(c *gin.Context) (*service.Image, func(), error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Image{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

// Create 创建克鲁，multipart 表单：request 为 JSON，image 为可选图标
func (h *CrewHandler) Create(c *gin.Context) {
	var req service.CrewInput
	if err := json.Unmarshal([]byte(c.PostForm("request")), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	img, closeImg, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid image"})
		return
	}
	defer closeImg()

	crew, err := h.cmd.CreateCrew(c.Request.Context(), userIDFromCtx(c), req, img)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "crew created", gin.H{"id": crew.ID})
}

func (h *CrewHandler) list(sort model.CrewSort) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 0
		if s := c.Query("page"); s != "" {
			p, err := strconv.Atoi(s)
			if err != nil || p < 0 || p > pkg.MaxPage {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid page"})
				return
			}
			page = p
		}
		res, err := h.query.ListCrews(c.Request.Context(), sort, page, userIDFromCtx(c))
		if err != nil {
			fail(c, h.log, err)
			return
		}
		ok(c, "ok", res)
	}
}

func (h *CrewHandler) Recommended() gin.HandlerFunc { return h.list(model.CrewSortRecommended) }
func (h *CrewHandler) Popular() gin.HandlerFunc     { return h.list(model.CrewSortPopular) }
func (h *CrewHandler) Active() gin.HandlerFunc      { return h.list(model.CrewSortActive) }
func (h *CrewHandler) Latest() gin.HandlerFunc      { return h.list(model.CrewSortLatest) }

// Joined 我加入的克鲁
func (h *CrewHandler) Joined(c *gin.Context) {
	list, err := h.query.GetJoinedCrews(c.Request.Context(), userIDFromCtx(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "ok", list)
}

// Applied 我申请中的克鲁
func (h *CrewHandler) Applied(c *gin.Context) {
	list, err := h.query.GetAppliedCrews(c.Request.Context(), userIDFromCtx(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "ok", list)
}

func (h *CrewHandler) Detail(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	detail, err := h.query.GetCrewDetail(c.Request.Context(), crewID, userIDFromCtx(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "ok", detail)
}

func (h *CrewHandler) UpdateInfo(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	var req service.CrewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.cmd.UpdateCrewInfo(c.Request.Context(), crewID, userIDFromCtx(c), req); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "crew updated", nil)
}

// UpdateImage 没有上传新图片时保留原图标
func (h *CrewHandler) UpdateImage(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	img, closeImg, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid image"})
		return
	}
	defer closeImg()

	if err := h.cmd.UpdateCrewImage(c.Request.Context(), crewID, userIDFromCtx(c), img); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "crew image updated", nil)
}

func (h *CrewHandler) Delete(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	if err := h.cmd.DeleteCrew(c.Request.Context(), crewID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "crew deleted", nil)
}

// Apply 免审核的克鲁直接加入
func (h *CrewHandler) Apply(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	var req applyReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	joined, err := h.cmd.ApplyCrew(c.Request.Context(), crewID, userIDFromCtx(c), req.Answer)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if joined {
		ok(c, "crew joined", nil)
		return
	}
	ok(c, "crew applied", nil)
}

func (h *CrewHandler) Withdraw(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	if err := h.cmd.WithdrawApplication(c.Request.Context(), crewID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "application withdrawn", nil)
}

func (h *CrewHandler) Approve(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	applicantID, valid := pathID(c, "applicantId")
	if !valid {
		return
	}
	if err := h.cmd.ApproveApplication(c.Request.Context(), crewID, applicantID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "application approved", nil)
}

func (h *CrewHandler) Disapprove(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	applicantID, valid := pathID(c, "applicantId")
	if !valid {
		return
	}
	if err := h.cmd.DisapproveApplication(c.Request.Context(), crewID, applicantID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "application disapproved", nil)
}

func (h *CrewHandler) Leave(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	if err := h.cmd.LeaveCrew(c.Request.Context(), crewID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "left crew", nil)
}

func (h *CrewHandler) Expel(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	memberID, valid := pathID(c, "memberId")
	if !valid {
		return
	}
	if err := h.cmd.ExpelMember(c.Request.Context(), crewID, memberID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "member expelled", nil)
}

// MeetingViewed 成员查看过活动列表后调用
func (h *CrewHandler) MeetingViewed(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	if err := h.cmd.UpdateMeetingViewed(c.Request.Context(), crewID, userIDFromCtx(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "meeting viewed", nil)
}

func (h *CrewHandler) Members(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	list, err := h.query.GetMembers(c.Request.Context(), crewID, userIDFromCtx(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "ok", list)
}

func (h *CrewHandler) Applicants(c *gin.Context) {
	crewID, valid := pathID(c, "crewId")
	if !valid {
		return
	}
	list, err := h.query.GetApplicants(c.Request.Context(), crewID, userIDFromCtx(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, "ok", list)
}
