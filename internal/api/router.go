package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/config"
	"github.com/jengzang/vehicle-tracker-go/internal/handler"
	"github.com/jengzang/vehicle-tracker-go/internal/middleware"
)

// Handlers 路由依赖. 为 nil 的字段不注册对应路由
type Handlers struct {
	History    *handler.HistoryHandler
	Trace      *handler.TraceHandler
	Congestion *handler.CongestionHandler
	Route      *handler.RouteHandler
	Live       *handler.LiveHandler
	Vehicle    *handler.VehicleHandler

	SocketIO  http.Handler // mounted at /socket.io/
	WebSocket http.Handler // mounted at /ws

	Limiter *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger("/socket.io/"))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Vehicle tracker API is running",
		})
	})

	limited := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		if h.Limiter == nil {
			return handlers
		}
		return append([]gin.HandlerFunc{middleware.RateLimit(h.Limiter)}, handlers...)
	}

	if h.History != nil {
		r.GET("/historical", limited(h.History.GetHistorical)...)
	}

	// API 路由组
	api := r.Group("/api/v1")
	if h.Limiter != nil {
		api.Use(middleware.RateLimit(h.Limiter))
	}
	{
		if h.History != nil {
			api.GET("/samples", h.History.GetSamples)
		}

		if h.Trace != nil {
			api.GET("/trace", h.Trace.Search)
			api.GET("/trace/pass", h.Trace.Pass)
			api.GET("/nearest", h.Trace.Nearest)
		}

		if h.Congestion != nil {
			api.GET("/congestion", h.Congestion.GetReport)
			api.GET("/congestion/policy", h.Congestion.GetPolicy)
		}

		if h.Route != nil {
			api.GET("/route", h.Route.GetGeoJSON)
			api.GET("/routes", h.Route.GetRoutes)
		}

		if h.Live != nil {
			api.GET("/vehicles/latest", h.Live.GetLatest)
		}

		if h.Vehicle != nil {
			api.GET("/vehicles", h.Vehicle.GetVehicles)
			api.GET("/samples/:id", h.Vehicle.GetSample)
		}
	}

	// 实时通道
	if h.SocketIO != nil {
		r.GET("/socket.io/*any", gin.WrapH(h.SocketIO))
		r.POST("/socket.io/*any", gin.WrapH(h.SocketIO))
	}
	if h.WebSocket != nil {
		r.GET("/ws", gin.WrapH(h.WebSocket))
	}

	// 前端静态文件
	if cfg != nil && cfg.Server.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}

	return r
}
