// Package server provides the gopostr HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/xob0t/GoPoster/internal/config"
	"github.com/xob0t/GoPoster/internal/observability"
	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/poster"
	"github.com/xob0t/GoPoster/pkg/typeface"
)

// Module wires the renderer, the gin engine and the HTTP listener.
var Module = fx.Module("server",
	fx.Provide(
		NewUploads,
		NewRenderer,
		NewEngine,
		NewServer,
	),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

// Server holds the HTTP handlers.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	engine   *gin.Engine
	renderer *poster.Renderer
	uploads  *Uploads
}

// NewRenderer builds the API renderer from cfg. Local files are only read
// below assets.root; uploaded images are reachable as upload://<id>.
func NewRenderer(cfg config.Config, log *zap.Logger, up *Uploads) *poster.Renderer {
	files := &assets.FileFetcher{Root: cfg.Assets.Root, MaxBytes: cfg.Assets.MaxBytes, Confined: true}
	return newRenderer(cfg, log, up.fetcher(schemeFetcher(cfg, files)))
}

// NewLocalRenderer builds a renderer that reads any local path it is given.
// The CLI uses it for descriptors on the caller's own disk.
func NewLocalRenderer(cfg config.Config, log *zap.Logger) *poster.Renderer {
	files := &assets.FileFetcher{Root: cfg.Assets.Root, MaxBytes: cfg.Assets.MaxBytes}
	return newRenderer(cfg, log, schemeFetcher(cfg, files))
}

func schemeFetcher(cfg config.Config, files assets.Fetcher) *assets.SchemeFetcher {
	client := &http.Client{Timeout: cfg.Assets.FetchTimeout}
	return &assets.SchemeFetcher{
		HTTP: &assets.HTTPFetcher{Client: client, MaxBytes: cfg.Assets.MaxBytes, UserAgent: cfg.Assets.UserAgent},
		File: files,
		Data: assets.DataURLFetcher{},
	}
}

func newRenderer(cfg config.Config, log *zap.Logger, fetch assets.Fetcher) *poster.Renderer {
	cache := assets.New(
		assets.WithFetcher(fetch),
		assets.WithLogger(log),
		assets.MaxDimension(cfg.Assets.MaxDimension),
	)
	loader := typeface.EmbeddedLoader()
	if cfg.Render.FontRegular != "" || cfg.Render.FontBold != "" {
		loader = typeface.FileLoader(cfg.Render.FontRegular, cfg.Render.FontBold, log)
	}
	gate := typeface.NewGate(loader,
		typeface.WithLogger(log),
		typeface.WithTimeout(cfg.Render.FontTimeout))

	return poster.NewRenderer(
		poster.WithCache(cache),
		poster.WithGate(gate),
		poster.WithLogger(log),
	)
}

// NewEngine builds the gin engine with logging, tracing and metrics.
func NewEngine(cfg config.Config, log *zap.Logger, m *observability.HTTPMetrics) *gin.Engine {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		observability.RequestLogger(log),
		observability.TracingMiddleware(cfg.ServiceName),
		observability.MetricsMiddleware(m),
	)
	return r
}

func NewServer(cfg config.Config, log *zap.Logger, engine *gin.Engine, r *poster.Renderer, up *Uploads) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		renderer: r,
		uploads:  up,
	}
}

// Handler returns the engine, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// RegisterRoutes mounts the API.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)

	api := s.engine.Group("/api")
	api.GET("/layouts", s.Layouts)
	api.GET("/presets", s.CanvasPresets)
	api.POST("/validate", s.Validate)
	api.POST("/render", s.Render)
	api.POST("/export", s.Export)
	api.POST("/uploads", s.Upload)
	api.GET("/uploads", s.ListUploads)
	api.GET("/uploads/:id", s.GetUpload)
	api.DELETE("/uploads/:id", s.DeleteUpload)
}

// RunHTTP serves the engine for the lifetime of the fx app.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			url := "http://" + displayAddr(ln.Addr())
			s.log.Info("gopostr API listening", zap.String("url", url))

			// Warm the typeface so the first request does not pay for it.
			s.renderer.Gate().Start(context.Background())

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			if s.cfg.Server.OpenBrowser {
				go openBrowser(url + "/api/layouts")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func displayAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok || tcp.IP.IsUnspecified() {
		if ok {
			return fmt.Sprintf("localhost:%d", tcp.Port)
		}
		return a.String()
	}
	return tcp.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
