package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/api/rest"
	"github.com/rackworks/gearrack/internal/api/websocket"
	"github.com/rackworks/gearrack/internal/assets"
	"github.com/rackworks/gearrack/internal/auth"
	"github.com/rackworks/gearrack/internal/catalog"
	"github.com/rackworks/gearrack/internal/config"
	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/netfetch"
	"github.com/rackworks/gearrack/internal/rack"
	"github.com/rackworks/gearrack/internal/resolver"
	"github.com/rackworks/gearrack/internal/schema"
	"github.com/rackworks/gearrack/internal/session"
	"github.com/rackworks/gearrack/internal/storage"
)

// LifecycleManager owns construction, startup and shutdown of every
// subsystem: model loop, rack engine, fetch pipelines, catalog, session
// facade and the API surface.
type LifecycleManager struct {
	config  *config.Config
	storage *storage.Store
	logger  *zap.Logger

	loop     *rack.Loop
	overlay  *gear.OverlayManager
	engine   *rack.Engine
	assets   *assets.Manager
	pipeline *schema.Pipeline
	catalog  *catalog.Catalog
	session  *session.Session

	wsHub       *websocket.Hub
	authService *auth.Service
	restServer  *rest.Server

	shutdownOnce sync.Once
}

func NewLifecycleManager(store *storage.Store, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	fetcher := netfetch.New(cfg.Catalog.FetchTimeout, logger)
	res := resolver.New(cfg.Catalog.BaseURL)

	layout, err := config.LoadLayout(cfg.Rack.LayoutPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot layout: %w", err)
	}
	if layout == nil {
		layout = rack.DefaultLayout(cfg.Rack.Slots)
	}

	loop := rack.NewLoop(logger)
	overlay := gear.NewOverlayManager(logger)
	wsHub := websocket.NewHub(logger)
	engine := rack.NewEngine(layout, overlay, wsHub, logger)

	assetManager := assets.NewManager(fetcher, res, loop, engine, wsHub, logger)
	pipeline, err := schema.NewPipeline(fetcher, res, assetManager, loop, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema pipeline: %w", err)
	}

	cat := catalog.New(fetcher, res, cfg.Catalog.IndexPath, logger)
	sess := session.New(loop, engine, overlay, pipeline, cat, store, wsHub, logger)

	authService, err := auth.NewService(cfg.Auth.JWTSecret(), cfg.Auth.OperatorPassword(), cfg.Auth.TokenTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth service: %w", err)
	}

	lm := &LifecycleManager{
		config:      cfg,
		storage:     store,
		logger:      logger,
		loop:        loop,
		overlay:     overlay,
		engine:      engine,
		assets:      assetManager,
		pipeline:    pipeline,
		catalog:     cat,
		session:     sess,
		wsHub:       wsHub,
		authService: authService,
	}
	lm.restServer = rest.NewServer(cfg, sess, cat, store, logger, wsHub, authService)

	return lm, nil
}

// Session returns the session facade
func (lm *LifecycleManager) Session() *session.Session {
	return lm.session
}

// Catalog returns the remote unit catalog
func (lm *LifecycleManager) Catalog() *catalog.Catalog {
	return lm.catalog
}

// Start starts the entire system
func (lm *LifecycleManager) Start(ctx context.Context) error {
	lm.logger.Info("Starting GearRack",
		zap.Int("slots", lm.engine.SlotCount()),
		zap.String("catalog_base", lm.config.Catalog.BaseURL))

	go lm.wsHub.Run()
	lm.loop.Start()

	// The rack is usable without a catalog; retry via POST /catalog/refresh.
	if err := lm.catalog.Refresh(ctx); err != nil {
		lm.logger.Warn("Initial catalog refresh failed", zap.Error(err))
	} else {
		lm.logger.Info("Catalog loaded", zap.Int("units", lm.catalog.Size()))
	}

	if err := lm.restServer.Start(); err != nil {
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort))
	return nil
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down GearRack")

		shutdownCtx, cancel := context.WithTimeout(ctx, lm.config.Server.ShutdownTimeout)
		defer cancel()

		if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
			lm.logger.Error("REST server shutdown failed", zap.Error(err))
			shutdownErr = err
		}

		// Stop accepting model work and drain what is queued. Fetch
		// workers still in flight fail their TryPost and discard.
		lm.loop.Stop()

		if err := lm.storage.Close(); err != nil {
			lm.logger.Error("Storage close failed", zap.Error(err))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}

		lm.logger.Info("Shutdown complete")
	})

	return shutdownErr
}

// WaitForShutdown blocks until ctx is cancelled, then shuts down.
func (lm *LifecycleManager) WaitForShutdown(ctx context.Context) error {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return lm.Shutdown(shutdownCtx)
}
