package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"directory-agent/internal/middleware"
)

// Router 注册路由与中间件
func Router(h *WebhookHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), middleware.Metrics(), middleware.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/user/lookup", h.UserLookup)
		v1.POST("/calendar/list", h.CalendarList)
		v1.POST("/edit", h.Edit)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
