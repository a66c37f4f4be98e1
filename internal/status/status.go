// Package status exposes liveness and the scheduler snapshot over HTTP.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/scheduler"
)

type SnapshotProvider interface {
	Snapshot() scheduler.Snapshot
}

type Server struct {
	addr   string
	sched  SnapshotProvider
	engine *gin.Engine
}

func NewServer(addr string, sched SnapshotProvider) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{addr: addr, sched: sched, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/status", s.status)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.sched.Snapshot())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Status server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info(ctx, "Status server stopped")
		return nil
	}
}

// Serve is Run for callers that share an errgroup with the scheduler: a
// listen or shutdown failure is logged and Serve returns nil.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Status server failed", err, "addr", s.addr)
	}
	return nil
}
