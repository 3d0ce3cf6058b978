package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactivity/pkg/reactive"
)

const (
	// DefaultEventBuffer is the number of recent events kept for replay.
	DefaultEventBuffer = 256

	// clientQueue is the per-client backlog beyond the replay buffer. A
	// client that falls further behind is disconnected.
	clientQueue = 64

	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithEventBuffer sets how many recent events are kept and replayed to new
// clients. Zero disables replay.
func WithEventBuffer(n int) Option {
	return func(s *Server) {
		s.bufSize = n
	}
}

// WithLogger sets the logger. Default: the runtime's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server is the devtools HTTP server for one runtime.
type Server struct {
	rt       *reactive.Runtime
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	bufSize  int
	router   chi.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	recent  *ring
	clients map[*client]bool
	closed  bool
}

// client is one websocket connection. All writes happen on its own
// goroutine, fed through send.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// New creates a devtools server and registers it as an observer of rt.
func New(rt *reactive.Runtime, opts ...Option) *Server {
	s := &Server{
		rt:       rt,
		gatherer: prometheus.DefaultGatherer,
		bufSize:  DefaultEventBuffer,
		clients:  make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tooling
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bufSize < 0 {
		s.bufSize = 0
	}
	if s.logger == nil {
		s.logger = rt.Logger()
	}
	s.logger = s.logger.With("component", "devtools")
	s.recent = newRing(s.bufSize)
	s.router = s.routes()

	rt.Use(observer{s: s})
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/graph", s.handleGraph)
	r.Get("/events/recent", s.handleRecent)
	r.Get("/events", s.handleEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler, for mounting under another router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and disconnects all websocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devtools listening", "addr", addr)
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

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.rt.Stats())
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Recent())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleEvents upgrades to a websocket, replays recent events and then
// streams new ones until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.bufSize+clientQueue)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	for _, ev := range s.recent.snapshot() {
		if data, err := json.Marshal(ev); err == nil {
			c.send <- data
		}
	}
	s.clients[c] = true
	s.mu.Unlock()

	go c.writeLoop()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.remove(c)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	c.close()
}

// record buffers ev and fans it out. It never blocks on a slow client.
func (s *Server) record(ev Event) {
	ev.At = time.Now()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent.push(ev)
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warn("devtools client too slow, disconnecting")
			delete(s.clients, c)
			c.close()
		}
	}
}

// Recent returns the buffered events, oldest first.
func (s *Server) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.snapshot()
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients and refuses new ones. Events are still
// buffered for Recent.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}
