// Package server exposes retrieval and chat over an authenticated HTTP
// API with per-tier rate limits and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"praxis/internal/config"
	"praxis/internal/llm"
	"praxis/internal/logging"
	"praxis/internal/memory"
	"praxis/internal/rag"
	"praxis/internal/store"
)

// Server is the praxis HTTP API.
type Server struct {
	cfg     config.ServerConfig
	engine  *gin.Engine
	metrics *metrics
	limiter *RateLimiter

	// authMu guards the key and limit maps, which config reload replaces
	// while requests are in flight.
	authMu  sync.RWMutex
	apiKeys map[string]config.APIKey
	limits  map[string]config.TierRate

	pipeline *rag.Pipeline
	client   llm.Client
	store    *store.Store
	window   int
}

// New assembles the API around a RAG pipeline, a chat client, and the
// store.
func New(cfg config.ServerConfig, pipeline *rag.Pipeline, client llm.Client, st *store.Store, windowSize int) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		metrics:  newMetrics(),
		limiter:  NewRateLimiter(nil),
		apiKeys:  cfg.APIKeys,
		limits:   cfg.Limits,
		pipeline: pipeline,
		client:   client,
		store:    st,
		window:   windowSize,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware())

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", s.metrics.handler())

	v1 := engine.Group("/v1", s.auth())
	v1.POST("/query", s.handleQuery)
	v1.POST("/chat", s.handleChat)
	v1.POST("/documents", s.handleIngest)
	v1.GET("/documents", s.handleDocumentStats)

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ApplyConfig swaps in the reloadable parts of the server config: API
// keys and tier rate limits. The listen address cannot change live.
func (s *Server) ApplyConfig(cfg config.ServerConfig) {
	s.authMu.Lock()
	s.apiKeys = cfg.APIKeys
	s.limits = cfg.Limits
	s.authMu.Unlock()
	logging.Get(logging.CategoryServer).Infow("auth config applied",
		"keys", len(cfg.APIKeys), "tiers", len(cfg.Limits))
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Get(logging.CategoryServer).Infow("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) requestLogger() gin.HandlerFunc {
	log := logging.Get(logging.CategoryServer)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start),
			"user", c.GetString("user"),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type queryRequest struct {
	Question string `json:"question" binding:"required"`
	Advanced bool   `json:"advanced"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		answer rag.Answer
		err    error
	)
	if req.Advanced {
		answer, err = s.pipeline.QueryAdvanced(c.Request.Context(), req.Question)
	} else {
		answer, err = s.pipeline.Query(c.Request.Context(), req.Question)
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question": answer.Question,
		"answer":   answer.Text,
		"sources":  answer.Sources,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	session, err := memory.NewSession(ctx, s.store, req.SessionID, s.window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	messages := append(session.History(), llm.Message{Role: llm.RoleUser, Content: req.Message})
	reply, err := s.client.Chat(ctx, messages)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := session.Record(ctx, req.Message, reply.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"reply":      reply.Content,
	})
}

type ingestRequest struct {
	Source  string `json:"source" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chunks, err := s.pipeline.IngestDocument(c.Request.Context(), rag.Document{
		Source:  req.Source,
		Content: req.Content,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"source": req.Source, "chunks": chunks})
}

func (s *Server) handleDocumentStats(c *gin.Context) {
	ctx := c.Request.Context()
	docs, err := s.store.DocumentCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	chunks, err := s.store.ChunkCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "chunks": chunks})
}
