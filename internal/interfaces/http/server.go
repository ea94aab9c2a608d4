package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/interfaces/http/handlers"
	ws "github.com/heartline/heartline/internal/interfaces/websocket"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config HTTP服务器配置
type Config struct {
	Host string
	Port int
	Mode string // debug, release
}

// Handlers bundles the route handlers the server mounts.
type Handlers struct {
	Conversations *handlers.ConversationHandler
	Messages      *handlers.MessageHandler
	Quizzes       *handlers.QuizHandler
	Oracle        *handlers.OracleHandler
	WS            *ws.Handler
}

// NewServer 创建HTTP服务器
func NewServer(cfg Config, h Handlers, logger *zap.Logger) *Server {
	if cfg.Mode == "production" || cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	setupRoutes(router, h)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return &Server{
		server: server,
		logger: logger,
	}
}

// Start 启动服务器
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// setupRoutes 设置路由
func setupRoutes(router *gin.Engine, h Handlers) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	if h.WS != nil {
		router.GET("/ws", gin.WrapF(h.WS.ServeWS))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/conversations", h.Conversations.List)
		v1.POST("/conversations", h.Conversations.Create)
		v1.GET("/conversations/:id", h.Conversations.Get)
		v1.POST("/conversations/:id/reset", h.Conversations.Reset)
		v1.GET("/conversations/:id/next", h.Conversations.Next)

		v1.GET("/conversations/:id/messages", h.Messages.List)
		v1.POST("/conversations/:id/messages", h.Messages.Send)

		v1.GET("/conversations/:id/quiz", h.Quizzes.Get)
		v1.POST("/conversations/:id/quiz", h.Quizzes.Submit)

		if h.Oracle != nil {
			v1.GET("/oracle/tiers", h.Oracle.Tiers)
		}
	}
}

// ginLogger Gin日志中间件
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
