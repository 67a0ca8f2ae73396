package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/api/websocket"
	"github.com/rackworks/gearrack/internal/auth"
	"github.com/rackworks/gearrack/internal/catalog"
	"github.com/rackworks/gearrack/internal/config"
	"github.com/rackworks/gearrack/internal/session"
	"github.com/rackworks/gearrack/internal/storage"
)

type Server struct {
	router      *gin.Engine
	session     *session.Session
	catalog     *catalog.Catalog
	store       *storage.Store
	logger      *zap.Logger
	server      *http.Server
	wsHub       *websocket.Hub
	authService *auth.Service
}

func NewServer(cfg *config.Config, sess *session.Session, cat *catalog.Catalog, store *storage.Store, logger *zap.Logger, wsHub *websocket.Hub, authService *auth.Service) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:      gin.New(),
		session:     sess,
		catalog:     cat,
		store:       store,
		logger:      logger,
		wsHub:       wsHub,
		authService: authService,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// ==================== AUTH (PUBLIC) ====================
		authPublic := v1.Group("/auth")
		{
			authPublic.POST("/login", s.login)
		}

		// ==================== RACK ====================
		rack := v1.Group("/rack")
		rack.Use(s.authService.Middleware())
		{
			rack.GET("", s.getRack)
			rack.POST("/slots/:index/place", s.placeUnit)
			rack.DELETE("/slots/:index", s.removeUnit)
			rack.POST("/slots/:index/reset", s.resetSlot)
			rack.PATCH("/slots/:index/controls/:control", s.setControl)
			rack.POST("/swap", s.swapSlots)
			rack.POST("/reset-all", s.resetAll)
			rack.POST("/drop-target", s.resolveDropTarget)
		}

		// ==================== CATALOG ====================
		cat := v1.Group("/catalog")
		cat.Use(s.authService.Middleware())
		{
			cat.GET("/units", s.listUnits)
			cat.GET("/units/:id", s.getUnit)
			cat.POST("/refresh", s.refreshCatalog)
			cat.GET("/recents", s.listRecents)
			cat.GET("/favorites", s.listFavorites)
			cat.PUT("/favorites/:id", s.setFavorite)
		}

		// ==================== PRESETS ====================
		presets := v1.Group("/presets")
		presets.Use(s.authService.Middleware())
		{
			presets.GET("", s.listPresets)
			presets.POST("", s.savePreset)
			presets.POST("/:name/load", s.loadPreset)
			presets.DELETE("/:name", s.deletePreset)
		}

		// ==================== WEBSOCKET ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", s.wsStatus)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
