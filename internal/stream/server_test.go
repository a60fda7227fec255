package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/metrics"
	"github.com/san-kum/ndisim/internal/reader"
)

func dial(t *testing.T, srv *httptest.Server, s *Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestFrameBroadcast(t *testing.T) {
	s := NewServer("", nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, s)

	s.OnFrame(reader.Frame{
		Seq:     3,
		Tick:    7,
		Status:  codec.StatusOK,
		Spheres: [][3]string{{"+1000.00", "-2000.00", "+0500.00"}},
		Points:  []codec.Point3{{X: 100000, Y: -200000, Z: 50000}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeFrame || msg.Tick != 7 || msg.Seq != 3 {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Points) != 1 || msg.Points[0].Y != -200000 {
		t.Errorf("points lost: %+v", msg.Points)
	}
	if msg.Spheres[0][2] != "+0500.00" {
		t.Errorf("tokens lost: %+v", msg.Spheres)
	}
}

func TestClientDisconnect(t *testing.T) {
	s := NewServer("", nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, s)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client was never dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Broadcast(Message{Type: TypeInfo, Text: "nobody listening"})
}

func TestStalledClientDoesNotBlockBroadcast(t *testing.T) {
	s := NewServer("", nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// never reads, so the socket buffers fill and its queue backs up
	dial(t, srv, s)

	big := Message{Type: TypeInfo, Text: strings.Repeat("x", 256<<10)}
	start := time.Now()
	for i := 0; i < 200 && s.Clients() > 0; i++ {
		s.Broadcast(big)
	}
	if elapsed := time.Since(start); elapsed >= writeTimeout {
		t.Errorf("broadcast waited on a stalled client for %v", elapsed)
	}
	if s.Clients() != 0 {
		t.Error("stalled client should have been dropped")
	}
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	m.Frame(3, false)

	srv := httptest.NewServer(NewServer("", nil, m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ndisim_frames_polled_total 1") {
		t.Errorf("metrics missing frame counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
