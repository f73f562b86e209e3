// Package replay serves a captured flows file over the same HTTP API as the
// capture backend, so the dashboard can run without a live capture.
package replay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// FlowSource is the narrow store contract required by the HTTP API.
type FlowSource interface {
	model.SnapshotReader
	Len() int
}

// GenerateUnavailable is the message returned by the generate endpoints.
const GenerateUnavailable = "artifact generation is not available in replay mode"

// Server provides the flow listing API over a FlowSource.
type Server struct {
	addr        string
	flows       FlowSource
	artifactDir string
	server      *http.Server
	ctx         context.Context
	cancel      context.CancelFunc
	startTime   time.Time

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new replay server. artifactDir holds files served by
// the download endpoint; empty disables downloads.
func NewServer(addr string, flows FlowSource, artifactDir string) *Server {
	if addr == "" {
		addr = model.DefaultReplayAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:        addr,
		flows:       flows,
		artifactDir: artifactDir,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/flows", s.handleFlows)
	r.GET("/download/:file", s.handleDownload)
	r.POST("/"+model.ArtifactOpenAPI.Endpoint(), s.handleGenerate)
	r.POST("/"+model.ArtifactPostman.Endpoint(), s.handleGenerate)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("replay: listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "replay: serve: %v\n", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"flow_count": s.flows.Len(),
	})
}

func (s *Server) handleFlows(c *gin.Context) {
	flows := s.flows.Current()
	if flows == nil {
		flows = []model.Flow{}
	}
	c.JSON(http.StatusOK, gin.H{"flows": flows})
}

func (s *Server) handleDownload(c *gin.Context) {
	if s.artifactDir == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "downloads are disabled"})
		return
	}
	name := filepath.Base(filepath.Clean("/" + c.Param("file")))
	path := filepath.Join(s.artifactDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req struct {
		SelectedFlows []model.FlowID `json:"selected_flows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.GenerateResult{Success: false, Message: "invalid JSON body"})
		return
	}
	if len(req.SelectedFlows) == 0 {
		c.JSON(http.StatusBadRequest, model.GenerateResult{Success: false, Message: "no flows selected"})
		return
	}
	c.JSON(http.StatusNotImplemented, model.GenerateResult{Success: false, Message: GenerateUnavailable})
}
