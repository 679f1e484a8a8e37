// Package server exposes the gateway over HTTP. Unmatched requests run
// through the live plugin chain; /admin routes load packages and feed
// plugin and metadata events to the published handlers.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/pipeline"
	"github.com/opmodel/extplugin/internal/registry"
)

const shutdownTimeout = 10 * time.Second

// DefaultMaxUploadBytes bounds an upload body when Options leaves it unset.
const DefaultMaxUploadBytes int64 = 64 << 20

// Options configure a Server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// MaxUploadBytes bounds the request body of a package upload.
	MaxUploadBytes int64
}

// PackageLoader loads uploaded packages and lists the active ones.
type PackageLoader interface {
	LoadUploaded(ctx context.Context, payload string) []core.Component
	Entries() []registry.Entry
}

// Deps are the collaborators of a Server.
type Deps struct {
	Dispatcher *pipeline.Dispatcher
	Handlers   *pipeline.HandlerSet
	Loader     PackageLoader
}

// Server is the gateway HTTP server.
type Server struct {
	opts   Options
	deps   Deps
	engine *gin.Engine
}

// New creates a server listening on opts.Addr.
func New(opts Options, deps Deps) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{opts: opts, deps: deps}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	admin := engine.Group("/admin")
	admin.POST("/plugins/upload", s.upload)
	admin.GET("/plugins", s.listPlugins)
	admin.POST("/plugin-data", s.pluginData)
	admin.POST("/meta-data", s.metaData)

	engine.NoRoute(s.dispatch)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		output.Info("gateway listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	output.Info("gateway stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		output.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// dispatch runs the request through the plugin chain and writes the
// exchange response.
func (s *Server) dispatch(c *gin.Context) {
	ex := core.NewExchange(c.Request.Method, c.Request.URL.Path, c.Request.Header.Clone())

	if err := s.deps.Dispatcher.Execute(c.Request.Context(), ex); err != nil {
		output.Warn("plugin chain failed", "path", ex.Path, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if !ex.Response.Written {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plugin handled " + ex.Path})
		return
	}

	for name, values := range ex.Response.Header {
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	c.Status(ex.Response.Status)
	if len(ex.Response.Body) > 0 {
		_, _ = c.Writer.Write(ex.Response.Body)
	}
}

type uploadRequest struct {
	File string `json:"file" binding:"required"`
}

type componentView struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "package upload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	components := s.deps.Loader.LoadUploaded(c.Request.Context(), req.File)
	views := make([]componentView, 0, len(components))
	for _, comp := range components {
		views = append(views, componentView{Name: comp.Name, Kind: string(comp.Kind)})
	}
	c.JSON(http.StatusOK, gin.H{"components": views})
}

type entryView struct {
	Key     string   `json:"key"`
	Version string   `json:"version"`
	Source  string   `json:"source,omitempty"`
	Units   []string `json:"units"`
}

type pluginView struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

func (s *Server) listPlugins(c *gin.Context) {
	entries := s.deps.Loader.Entries()
	packages := make([]entryView, 0, len(entries))
	for _, e := range entries {
		packages = append(packages, entryView{
			Key:     e.Key,
			Version: e.Version,
			Source:  e.Source,
			Units:   e.Loader.Units(),
		})
	}

	live := s.deps.Dispatcher.Plugins()
	plugins := make([]pluginView, 0, len(live))
	for _, p := range live {
		plugins = append(plugins, pluginView{Name: p.Named(), Order: p.Order()})
	}

	handledPlugins, rpcTypes := s.deps.Handlers.Handled()
	c.JSON(http.StatusOK, gin.H{
		"packages":         packages,
		"plugins":          plugins,
		"dataHandlers":     nonNil(handledPlugins),
		"metaDataHandlers": nonNil(rpcTypes),
	})
}

type pluginDataRequest struct {
	core.PluginData
	Removed bool `json:"removed"`
}

func (s *Server) pluginData(c *gin.Context) {
	var req pluginDataRequest
	if !bindEvent(c, &req) {
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	handled := s.deps.Handlers.OnPluginData(req.PluginData, req.Removed)
	c.JSON(http.StatusOK, gin.H{"handled": handled})
}

type metaDataRequest struct {
	core.MetaData
	Removed bool `json:"removed"`
}

func (s *Server) metaData(c *gin.Context) {
	var req metaDataRequest
	if !bindEvent(c, &req) {
		return
	}
	if req.Path == "" || req.RPCType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path and rpcType are required"})
		return
	}
	handled := s.deps.Handlers.OnMetaData(req.MetaData, req.Removed)
	c.JSON(http.StatusOK, gin.H{"handled": handled})
}

func bindEvent(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
