package router

import (
	"Crew_Community/internal/handler"
	"Crew_Community/internal/metrics"
	"Crew_Community/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Crews      *handler.CrewHandler
	Meetings   *handler.MeetingHandler
	Tokens     middleware.TokenStore
	ApplyLimit *middleware.UserLimiter
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.AuthMiddleware(d.Tokens)
	crew := d.Crews
	meeting := d.Meetings

	// 克鲁相关接口
	crewGroup := r.Group("/api/crews")
	crewGroup.Use(auth)
	{
		crewGroup.POST("", crew.Create)
		crewGroup.GET("/recommend", crew.Recommended())
		crewGroup.GET("/popular", crew.Popular())
		crewGroup.GET("/active", crew.Active())
		crewGroup.GET("/latest", crew.Latest())
		crewGroup.GET("/mycrew", crew.Joined)
		crewGroup.GET("/myApplications", crew.Applied)

		crewGroup.GET("/:crewId", crew.Detail)
		crewGroup.PATCH("/:crewId", crew.UpdateInfo)
		crewGroup.PATCH("/:crewId/images", crew.UpdateImage)
		crewGroup.DELETE("/:crewId", crew.Delete)

		crewGroup.POST("/:crewId/applications", middleware.RateLimit(d.ApplyLimit), crew.Apply)
		crewGroup.DELETE("/:crewId/withdrawals", crew.Withdraw)
		crewGroup.POST("/:crewId/approvals/:applicantId", crew.Approve)
		crewGroup.POST("/:crewId/disapprovals/:applicantId", crew.Disapprove)
		crewGroup.DELETE("/:crewId/leaves", crew.Leave)
		crewGroup.DELETE("/:crewId/expulsions/:memberId", crew.Expel)
		crewGroup.GET("/:crewId/members", crew.Members)
		crewGroup.GET("/:crewId/applicants", crew.Applicants)
		crewGroup.PATCH("/:crewId/meeting-viewed", crew.MeetingViewed)

		crewGroup.POST("/:crewId/meetings", meeting.Create)
	}

	// 聚会相关接口
	meetingGroup := r.Group("/api/meetings")
	meetingGroup.Use(auth)
	{
		meetingGroup.POST("/:meetingId/members", meeting.Join)
	}

	return r
}
