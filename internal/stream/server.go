// Package stream pushes decoded tracker frames to websocket clients, for an
// external plotting front-end, and serves the prometheus metrics next to
// them.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/logging"
	"github.com/san-kum/ndisim/internal/metrics"
	"github.com/san-kum/ndisim/internal/reader"
)

const (
	writeTimeout    = time.Second
	shutdownTimeout = 2 * time.Second
	// sendBuffer is how many messages a client may fall behind before it is
	// dropped.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Message is one websocket payload.
type Message struct {
	Type    string         `json:"type"`
	Seq     int            `json:"seq,omitempty"`
	Tick    int            `json:"tick"`
	Status  string         `json:"status,omitempty"`
	Spheres [][3]string    `json:"spheres,omitempty"`
	Points  []codec.Point3 `json:"points,omitempty"`
	Text    string         `json:"text,omitempty"`
}

const (
	TypeFrame = "frame"
	TypeInfo  = "info"
)

// Server fans frames out to every connected client. It satisfies the
// harness observer interface through OnFrame.
type Server struct {
	Addr    string
	log     logging.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	server  *http.Server
}

// client owns one connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewServer(addr string, log logging.Logger, m *metrics.Collector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{Addr: addr, log: log, metrics: m, clients: map[*websocket.Conn]*client{}}
}

// Handler routes /ws, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{Addr: s.Addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "stream listening", logging.String("addr", s.Addr))
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(shutdown)
	s.closeClients()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[conn] = c
	s.mu.Unlock()
	s.log.Debug(r.Context(), "client connected", logging.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeLoop drains the client's queue until drop closes it.
func (s *Server) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(c.conn)
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	c, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		close(c.send)
		conn.Close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := s.clients
	s.clients = map[*websocket.Conn]*client{}
	s.mu.Unlock()
	for _, c := range clients {
		close(c.send)
		c.conn.Close()
	}
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast queues msg for every client and never waits on the network.
// A client whose queue is full is dropped.
func (s *Server) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error(context.Background(), "encode message", logging.Any("error", err))
		return
	}

	s.mu.Lock()
	var slow []*websocket.Conn
	for conn, c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	s.mu.Unlock()

	for _, conn := range slow {
		s.log.Warn(context.Background(), "dropping slow client", logging.String("remote", conn.RemoteAddr().String()))
		s.drop(conn)
	}
}

func (s *Server) OnFrame(f reader.Frame) {
	s.Broadcast(Message{
		Type:    TypeFrame,
		Seq:     f.Seq,
		Tick:    f.Tick,
		Status:  f.Status,
		Spheres: f.Spheres,
		Points:  f.Points,
	})
}
