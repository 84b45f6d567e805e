// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/status"
)

// maxMessageBytes bounds one posted envelope.
const maxMessageBytes = 64 << 10

// Page is the part of the SDK the preview server exposes.
type Page interface {
	Document() *dom.Document
	Status() status.Snapshot
	Dispatch(raw []byte) bool
}

// Server serves the composed host page over HTTP.
type Server struct {
	router *gin.Engine
	page   Page
	log    *zap.Logger
}

// New builds the router for page.
func New(page Page, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	s := &Server{router: router, page: page, log: log}

	router.Use(s.access(), gin.Recovery())
	router.GET("/", s.document)
	router.GET("/status", s.status)
	router.POST("/messages", s.message)
	return s
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
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
		<-errCh
		s.log.Info("preview server stopped")
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// ---- handlers ----

func (s *Server) document(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.page.Document().Render(&buf); err != nil {
		s.log.Error("render document failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, status.Encode(s.page.Status()))
}

func (s *Server) message(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageBytes+1))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	if len(raw) > maxMessageBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
		return
	}

	if !s.page.Dispatch(raw) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "not a widget message"})
		return
	}
	c.Status(http.StatusAccepted)
}

// access logs one line per request.
func (s *Server) access() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
