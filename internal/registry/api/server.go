package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/trigg3rX/triggerx-registry/internal/registry"
	"github.com/trigg3rX/triggerx-registry/internal/registry/metrics"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

type Options struct {
	Port           string
	AllowedOrigins []string
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	registry   *registry.Registry
	collector  *metrics.Collector
	hub        *Hub
	nonces     *NonceTracker
	startedAt  time.Time

	peersMu sync.RWMutex
	peers   map[common.Address]*registry.Registry

	logger logging.Logger
}

func NewServer(reg *registry.Registry, collector *metrics.Collector, hub *Hub, opts Options, logger logging.Logger) *Server {
	router := gin.New()

	s := &Server{
		router:    router,
		registry:  reg,
		collector: collector,
		hub:       hub,
		nonces:    NewNonceTracker(),
		startedAt: time.Now(),
		peers:     make(map[common.Address]*registry.Registry),
		logger:    logger,
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin", TraceIDHeader},
		ExposedHeaders: []string{TraceIDHeader},
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", opts.Port),
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s
}

// AddPeer makes a registry sharing this process available as a migration peer.
func (s *Server) AddPeer(peer *registry.Registry) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	s.peers[peer.Address()] = peer
}

func (s *Server) peer(addr common.Address) (*registry.Registry, bool) {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()
	p, ok := s.peers[addr]
	return p, ok
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(TraceMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))

	s.router.GET("/health", s.HandleHealth)
	if s.collector != nil {
		s.router.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}
	if s.hub != nil {
		s.router.GET("/ws/events", s.hub.ServeWS)
	}

	tasks := s.router.Group("/tasks")
	{
		tasks.POST("", s.HandleRegisterTask)
		tasks.GET("", s.HandleListTasks)
		tasks.GET("/:id", s.HandleGetTask)
		tasks.GET("/:id/min-balance", s.HandleGetMinBalance)
		tasks.GET("/:id/check", s.HandleCheckTask)
		tasks.GET("/:id/simulate", s.HandleSimulatePerform)
		tasks.POST("/:id/funds", s.HandleAddFunds)
		tasks.POST("/:id/cancel", s.HandleCancelTask)
		tasks.POST("/:id/withdraw", s.HandleWithdrawFunds)
		tasks.POST("/:id/admin/transfer", s.HandleTransferTaskAdmin)
		tasks.POST("/:id/admin/accept", s.HandleAcceptTaskAdmin)
		tasks.POST("/:id/pause", s.HandlePauseTask)
		tasks.POST("/:id/unpause", s.HandleUnpauseTask)
		tasks.POST("/:id/gas-limit", s.HandleSetGasLimit)
		tasks.POST("/:id/check-data", s.HandleSetCheckData)
		tasks.POST("/:id/trigger-config", s.HandleSetTriggerConfig)
		tasks.POST("/:id/offchain-config", s.HandleSetOffchainConfig)
	}

	s.router.POST("/transmit", s.HandleTransmit)
	s.router.POST("/config", s.HandleSetConfig)
	s.router.GET("/config", s.HandleGetConfig)
	s.router.GET("/state", s.HandleGetState)
	s.router.GET("/max-payment", s.HandleGetMaxPayment)
	s.router.POST("/pause", s.HandlePause)
	s.router.POST("/unpause", s.HandleUnpause)
	s.router.POST("/ownership/transfer", s.HandleTransferOwnership)
	s.router.POST("/ownership/accept", s.HandleAcceptOwnership)
	s.router.POST("/owner/withdraw", s.HandleWithdrawOwnerFunds)
	s.router.POST("/owner/recover", s.HandleRecoverFunds)
	s.router.POST("/payees", s.HandleSetPayees)

	transmitters := s.router.Group("/transmitters")
	{
		transmitters.GET("/:addr", s.HandleGetTransmitter)
		transmitters.POST("/:addr/withdraw", s.HandleWithdrawPayment)
		transmitters.POST("/:addr/payeeship/transfer", s.HandleTransferPayeeship)
		transmitters.POST("/:addr/payeeship/accept", s.HandleAcceptPayeeship)
	}

	s.router.GET("/signers/:addr", s.HandleGetSigner)
	s.router.GET("/peers/:addr/permission", s.HandleGetPeerPermission)
	s.router.POST("/peers/:addr/permission", s.HandleSetPeerPermission)
	s.router.POST("/migrate", s.HandleMigrate)
}

// Handler is the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("Starting registry API", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("registry API failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) HandleHealth(c *gin.Context) {
	st := s.registry.GetState()
	body := gin.H{
		"status":       "ok",
		"service":      "registry",
		"registry":     s.registry.Address().Hex(),
		"height":       st.Height,
		"paused":       st.Paused,
		"config_count": st.ConfigCount,
		"uptime":       time.Since(s.startedAt).String(),
	}
	if s.hub != nil {
		body["ws_clients"] = s.hub.Clients()
	}
	c.JSON(http.StatusOK, body)
}
