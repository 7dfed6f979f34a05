// Package server implements the live preview server: an editor page, a
// compile API and a websocket channel that recompiles source as it is typed
// and pushes reloads when fragment files change on disk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/nucleator/internal/compiler"
	"github.com/conneroisu/nucleator/internal/config"
	"github.com/conneroisu/nucleator/internal/errors"
	"github.com/conneroisu/nucleator/internal/interpolate"
	"github.com/conneroisu/nucleator/internal/logging"
	"github.com/conneroisu/nucleator/internal/mockdata"
	"github.com/conneroisu/nucleator/internal/registry"
	"github.com/conneroisu/nucleator/internal/watcher"
)

// Client represents a connected websocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves the editor with live recompilation
type PreviewServer struct {
	config       *config.Config
	logger       logging.Logger
	collector    *errors.Collector
	registry     *registry.FragmentRegistry
	watcher      *watcher.FileWatcher
	baseContext  interpolate.Context
	httpServer   *http.Server
	serverMutex  sync.RWMutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	shutdownOnce sync.Once
}

// New creates a new preview server
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}

	var fw *watcher.FileWatcher
	if cfg.Watch.Enabled {
		var err error
		fw, err = watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger)
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
	}

	ctx := mockdata.DefaultContext()
	if cfg.Preview.MockData != "" {
		loaded, err := mockdata.LoadFile(cfg.Preview.MockData)
		if err != nil {
			return nil, fmt.Errorf("loading mock data: %w", err)
		}
		ctx = loaded
	}

	return &PreviewServer{
		config:      cfg,
		logger:      logger.WithComponent("server"),
		collector:   errors.NewCollector(),
		registry:    registry.NewFragmentRegistry(),
		watcher:     fw,
		baseContext: ctx,
		clients:     make(map[*websocket.Conn]*Client),
		broadcast:   make(chan []byte, 16),
		register:    make(chan *Client),
		unregister:  make(chan *websocket.Conn),
	}, nil
}

// Start runs the preview server until ctx is cancelled or the listener fails.
func (s *PreviewServer) Start(ctx context.Context) error {
	s.scanFragments(ctx)
	if s.watcher != nil {
		s.setupFileWatcher(ctx)
	}

	go s.runHub(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/compile", s.handleCompile)
	mux.HandleFunc("/api/fragments", s.handleFragments)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	if s.config.Server.Open {
		go s.openBrowser(fmt.Sprintf("http://%s", addr))
	}

	s.logger.Info(ctx, "preview server listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the server, the watcher and all websocket clients.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.watcher != nil {
			if werr := s.watcher.Stop(); werr != nil {
				s.logger.Warn(ctx, werr, "stopping watcher")
			}
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		srv := s.httpServer
		s.serverMutex.RUnlock()
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

// Lookup snapshots the current fragment table for compilation.
func (s *PreviewServer) Lookup() compiler.Lookup {
	return s.registry.Lookup()
}

func (s *PreviewServer) scanFragments(ctx context.Context) {
	dir := s.config.Fragments.Dir
	if dir == "" {
		return
	}
	s.collector.Clear()
	errs := s.registry.Scan(dir, s.config.Fragments.Extensions, s.config.Fragments.ExcludePatterns)
	for _, err := range errs {
		s.collector.AddError(dir, err)
		s.logger.Warn(ctx, err, "fragment scan issue", "dir", dir)
	}
	s.logger.Info(ctx, "fragments scanned", "dir", dir, "count", s.registry.Count())
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.ExtensionFilter(s.config.Fragments.Extensions))
	s.watcher.AddFilter(watcher.NoHiddenFilter)
	s.watcher.AddFilter(watcher.PatternFilter(s.config.Fragments.ExcludePatterns))
	s.watcher.AddHandler(func(events []watcher.ChangeEvent) error {
		return s.handleFileChange(ctx, events)
	})

	if err := s.watcher.AddRecursive(s.config.Fragments.Dir); err != nil {
		s.collector.AddError(s.config.Fragments.Dir, err)
		s.logger.Warn(ctx, err, "watching fragments dir", "dir", s.config.Fragments.Dir)
		return
	}
	s.watcher.Start(ctx)
}

func (s *PreviewServer) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	s.scanFragments(ctx)

	for _, e := range events {
		s.logger.Debug(ctx, "fragment changed", "path", e.Path, "type", e.Type.String())
	}

	s.broadcastMessage(UpdateMessage{Type: "reload", Timestamp: time.Now()})
	return nil
}

func (s *PreviewServer) openBrowser(url string) {
	// Give the listener a moment to come up.
	time.Sleep(200 * time.Millisecond)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		s.logger.Debug(context.Background(), "could not open browser", "error", err.Error())
	}
}

func (s *PreviewServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)

		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
