package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MirandaDiazJorge/sistema-fichaje/config"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/api/handler"
	"github.com/MirandaDiazJorge/sistema-fichaje/internal/api/middleware"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/jwt"
	"github.com/MirandaDiazJorge/sistema-fichaje/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/register", middleware.RoleAuth("admin"), h.Auth.Register)

			// 打卡模块：打卡接口限流防误触连点
			tracking := authorized.Group("/tracking")
			{
				clockLimit := middleware.RateLimit(rdb, 6, time.Minute)
				tracking.POST("/clock-in", clockLimit, h.Tracking.ClockIn)
				tracking.POST("/clock-out", clockLimit, h.Tracking.ClockOut)
				tracking.GET("/status", h.Tracking.Status)
				tracking.GET("/history", h.History.MyHistory)
				tracking.GET("/history.ics", h.History.MyHistoryICS)
			}

			// 管理员模块
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth("admin"))
			{
				admin.GET("/users", h.User.List)
				admin.GET("/history", h.History.AllHistory)
				admin.PUT("/sessions/:id", h.Tracking.CorrectSession)
				admin.GET("/export", h.Export.Download)
			}
		}
	}

	return r
}
