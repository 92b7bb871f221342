package handler

import (
	"net/http"
	"strconv"

	"Crew_Community/internal/middleware"
	"Crew_Community/internal/pkg"

	"github.com/gin-gonic/gin"
)

func userIDFromCtx(c *gin.Context) uint64 {
	return middleware.UserID(c)
}

// pathID 解析路径上的 id，非法时直接写 400
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

func ok(c *gin.Context, msg string, data any) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"msg": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msg, "data": data})
}

// fail 业务错误按类型映射状态码，其余错误记日志后返回 500
func fail(c *gin.Context, log *pkg.Logger, err error) {
	status, msg := pkg.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"msg": msg})
}
