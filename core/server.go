package core

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aiwolfdial/imposter-server/logic"
	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/service"
	"github.com/aiwolfdial/imposter-server/store"
	"github.com/aiwolfdial/imposter-server/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 10 * time.Second

// Server exposes one Engine over HTTP. Every engine call runs under mu.
type Server struct {
	config              model.Config
	upgrader            websocket.Upgrader
	engine              *logic.Engine
	mu                  sync.Mutex
	realtimeBroadcaster *service.RealtimeBroadcaster
	router              *gin.Engine
}

type playersRequest struct {
	Players []string `json:"players"`
}

type topicKeyRequest struct {
	Key string `json:"key"`
}

type rolesRequest struct {
	Jester  bool `json:"jester"`
	Sheriff bool `json:"sheriff"`
}

type customTopicRequest struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

type eliminateRequest struct {
	Index *int `json:"index"`
}

func NewServer(config model.Config, engine *logic.Engine, realtimeBroadcaster *service.RealtimeBroadcaster) *Server {
	server := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		engine:              engine,
		realtimeBroadcaster: realtimeBroadcaster,
	}
	server.router = server.newRouter()
	return server
}

// Handler returns the router; tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hydrate restores the durable setup. Requests that touch the engine wait
// until it returns.
func (s *Server) Hydrate(ctx context.Context, configStore store.ConfigStore, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Hydrate(ctx, configStore, timeout)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.HTTP.Host, strconv.Itoa(s.config.Server.HTTP.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	errs := make(chan error, 1)
	go func() {
		slog.Info("サーバを起動しました", "host", s.config.Server.HTTP.Host, "port", s.config.Server.HTTP.Port)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("サーバの起動に失敗しました", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("シグナルを受信しました")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.realtimeBroadcaster != nil {
		s.realtimeBroadcaster.Close()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("サーバの停止に失敗しました", "error", err)
		return err
	}
	slog.Info("サーバを停止しました")
	return nil
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Header("Server", "imposter-server/"+Version.Version+" "+runtime.Version()+" ("+runtime.GOOS+"; "+runtime.GOARCH+")")

		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Ngrok-Skip-Browser-Warning")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/api/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, Version)
	})
	router.GET("/api/hydration", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"hydrated": s.engine.IsHydrated()})
	})

	api := router.Group("/api")
	if s.config.Server.Authentication.Enable {
		api.Use(s.verifyMiddleware(util.IsValidHostToken))
	}
	api.GET("/config", s.handleGetConfig)
	api.PUT("/config/players", s.handleSetPlayers)
	api.PUT("/config/topic", s.handleSetTopic)
	api.PUT("/config/roles", s.handleSetRoles)
	api.DELETE("/storage", s.handleClearStorage)

	api.GET("/topics", s.handleListTopics)
	api.GET("/topics/:key", s.handleGetTopic)
	api.POST("/topics", s.handleAddTopic)
	api.DELETE("/topics/:name", s.handleRemoveTopic)

	api.GET("/match", s.handleSnapshot)
	api.POST("/match/start", s.handleStart)
	api.GET("/match/cards/:idx", s.handleCard)
	api.POST("/match/eliminate", s.handleEliminate)
	api.POST("/match/next-round", s.handleNextRound)
	api.POST("/match/sheriff-ability", s.handleSheriffAbility)
	api.POST("/match/reset", s.handleReset)

	if s.realtimeBroadcaster != nil {
		ws := router.Group("/ws")
		if s.config.Server.Authentication.Enable {
			ws.Use(s.verifyMiddleware(util.IsValidViewer))
		}
		ws.GET("", func(c *gin.Context) {
			s.handleConnections(c.Writer, c.Request)
		})
	}
	return router
}

func (s *Server) handleGetConfig(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"players":       s.engine.Players(),
		"topicKey":      s.engine.TopicKey(),
		"enableJester":  s.engine.EnableJester(),
		"enableSheriff": s.engine.EnableSheriff(),
	})
}

func (s *Server) handleSetPlayers(c *gin.Context) {
	var req playersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetPlayers(req.Players)
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleSetTopic(c *gin.Context) {
	var req topicKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetTopicKey(req.Key)
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleSetRoles(c *gin.Context) {
	var req rolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetEnableJester(req.Jester)
	s.engine.SetEnableSheriff(req.Sheriff)
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleClearStorage(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.ClearStorage(c.Request.Context()); err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListTopics(c *gin.Context) {
	s.mu.Lock()
	topics := s.engine.Topics()
	s.mu.Unlock()
	summaries := make([]model.TopicSummary, 0, len(topics))
	for _, t := range topics {
		summaries = append(summaries, t.Summary())
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleGetTopic(c *gin.Context) {
	s.mu.Lock()
	topic, ok := s.engine.GetTopicByKey(c.Param("key"))
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		return
	}
	c.JSON(http.StatusOK, topic)
}

func (s *Server) handleAddTopic(c *gin.Context) {
	var req customTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	topic, err := s.engine.AddCustomTopic(c.Request.Context(), req.Name, req.Words)
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

func (s *Server) handleRemoveTopic(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.RemoveCustomTopic(c.Request.Context(), c.Param("name")); err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleStart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.StartMatch(); err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleCard(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	card, err := s.engine.Card(idx)
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) handleEliminate(c *gin.Context) {
	var req eliminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.engine.EliminatePlayer(*req.Index)
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":    outcome,
		"aliveCount": s.engine.AliveCount(),
	})
}

func (s *Server) handleNextRound(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.IsActive() {
		abortWithError(c, http.StatusConflict, logic.ErrNoActiveMatch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": s.engine.NextRound()})
}

func (s *Server) handleSheriffAbility(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.UseSheriffAbility(); err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleReset(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ResetMatch()
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("クライアントのアップグレードに失敗しました", "error", err)
		return
	}
	id := s.realtimeBroadcaster.Register(ws)
	go func() {
		defer s.realtimeBroadcaster.Unregister(id)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Info("クライアントの接続を切断しました", "viewer", id)
				return
			}
		}
	}()
}

func (s *Server) verifyMiddleware(isValid func(secret string, token string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.ReplaceAll(c.GetHeader("Authorization"), "Bearer ", "")
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !isValid(s.config.Server.Authentication.Secret, token) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, logic.ErrNotEnoughPlayers), errors.Is(err, logic.ErrTopicUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, logic.ErrPlayerOutOfRange), errors.Is(err, service.ErrTopicNameInvalid):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrNoActiveMatch),
		errors.Is(err, logic.ErrNoSheriff),
		errors.Is(err, logic.ErrSheriffAbilityUsed),
		errors.Is(err, logic.ErrSheriffEliminated),
		errors.Is(err, service.ErrTopicExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
