// Package preview serves generated levels to browser and tool clients over
// a WebSocket connection.
package preview

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/levelgen/internal/config"
	"github.com/lawnchairsociety/levelgen/internal/content"
	"github.com/lawnchairsociety/levelgen/internal/logger"
	"github.com/lawnchairsociety/levelgen/internal/render"
	"github.com/lawnchairsociety/levelgen/internal/scene"
	"github.com/lawnchairsociety/levelgen/internal/spawn"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// requestTimeout bounds the generation of one preview request
const requestTimeout = 30 * time.Second

// Server answers level and generate requests on /ws
type Server struct {
	cfg       config.PreviewConfig
	opts      wfc.Options
	levels    []*wfc.Descriptor
	reporters []wfc.Reporter
	limiter   *ConnLimiter
}

// NewServer creates a preview server for the given levels. Each request
// gets its own generator built from opts, with attempts capped by
// cfg.MaxAttempts.
func NewServer(cfg config.PreviewConfig, opts wfc.Options, levels []*wfc.Descriptor) *Server {
	if cfg.MaxAttempts > 0 && (opts.MaxAttempts <= 0 || opts.MaxAttempts > cfg.MaxAttempts) {
		opts.MaxAttempts = cfg.MaxAttempts
	}
	return &Server{
		cfg:     cfg,
		opts:    opts,
		levels:  levels,
		limiter: NewConnLimiter(cfg.Connections),
	}
}

// AddReporter registers a sink for the reports of preview generations
func (s *Server) AddReporter(r wfc.Reporter) {
	s.reporters = append(s.reporters, r)
}

// Limiter returns the connection limiter
func (s *Server) Limiter() *ConnLimiter {
	return s.limiter
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe serves on address until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server listening", "address", address, "levels", len(s.levels))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := realIP(r, s.cfg.TrustProxyHeaders)

	if !s.limiter.TryAcquire(clientIP) {
		logger.Warning("Preview connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Preview connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.limiter.Release(clientIP)
		return
	}

	go s.serveConn(r.Context(), conn, clientIP)
}

// serveConn answers requests from one client until it disconnects
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn, clientIP string) {
	defer func() {
		s.limiter.Release(clientIP)
		conn.Close()
	}()

	// the request context ends once the handler returns
	ctx = context.WithoutCancel(ctx)

	if s.cfg.WebSocket.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	logger.Debug("Preview client connected", "client_ip", clientIP)
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warning("Preview read failed", "client_ip", clientIP, "error", err)
			}
			return
		}

		resp := s.handle(ctx, req)

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			logger.Warning("Preview write failed", "client_ip", clientIP, "error", err)
			return
		}
	}
}

// handle answers a single request
func (s *Server) handle(ctx context.Context, req Request) Response {
	switch strings.ToLower(req.Type) {
	case TypeLevels:
		return s.levelList()
	case TypeGenerate:
		return s.generate(ctx, req)
	default:
		return errorResponse("unknown request type: " + req.Type)
	}
}

func (s *Server) levelList() Response {
	infos := make([]LevelInfo, 0, len(s.levels))
	for _, l := range s.levels {
		infos = append(infos, LevelInfo{Name: l.Name, Width: l.Width, Height: l.Height, Seed: l.Seed})
	}
	return Response{Type: TypeLevelList, Levels: infos}
}

func (s *Server) findLevel(name string) *wfc.Descriptor {
	for _, l := range s.levels {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	return nil
}

func (s *Server) generate(ctx context.Context, req Request) Response {
	desc := s.findLevel(req.Level)
	if desc == nil {
		return errorResponse("unknown level: " + req.Level)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	spawns := spawn.NewRegistry()
	gen := wfc.NewLevelGenerator(s.opts, spawns, content.DefaultRegistry())
	for _, r := range s.reporters {
		gen.AddReporter(r)
	}
	defer gen.Clear()

	_, err := gen.Generate(ctx, desc, scene.Vec3{}, req.Seed)
	resp := Response{Type: TypeLayout, Report: summarize(gen.LastReport())}
	// fast-fail keeps the last failed grid, which is still worth showing
	if grid := gen.Grid(); grid != nil {
		resp.Layout = layoutOf(desc.Name, grid, spawns.Points())
	}
	if err != nil {
		resp.Type = TypeError
		resp.Error = err.Error()
		return resp
	}
	if p, ok := spawns.Claim(); ok {
		resp.Layout.Start = &Position{X: p.X, Y: p.Y}
	}
	return resp
}

func layoutOf(level string, grid *wfc.Grid, points []wfc.SpawnPoint) *Layout {
	rows := strings.Split(strings.TrimSuffix(render.ASCII(grid, nil), "\n"), "\n")
	spawns := make([]Position, 0, len(points))
	for _, p := range points {
		spawns = append(spawns, Position{X: p.X, Y: p.Y})
	}
	return &Layout{
		Level:       level,
		Width:       grid.Width,
		Height:      grid.Height,
		Rows:        rows,
		Spawns:      spawns,
		Fingerprint: grid.Fingerprint(),
	}
}
