package sync

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stagehub/pkg/models"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		CycleID:      "cycle-1",
		Mode:         "scheduled",
		Performances: []models.UnifiedPerformance{{Name: "아이유 콘서트"}, {Name: "뮤지컬 시카고"}},
		ComputedAt:   time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		SourceCounts: map[string]int{"KOPIS": 1, "인터파크": 1},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTCPFeed(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := NewServer("127.0.0.1:0", hub)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var addr net.Addr
	select {
	case addr = <-srv.Ready():
	case err := <-done:
		t.Fatalf("Serve: %v", err)
	}

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)

	line, err := r.ReadString('\n')
	if err != nil || !strings.Contains(line, `"welcome"`) {
		t.Fatalf("welcome = %q, %v", line, err)
	}
	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	hub.SnapshotPublished(testSnapshot())
	line, err = r.ReadString('\n')
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev SnapshotEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if ev.Type != EventSnapshotPublished || ev.CycleID != "cycle-1" || ev.Total != 2 || ev.Stats["total"] != 2 {
		t.Errorf("event = %+v", ev)
	}
	if ev.ComputedAt != "2026-10-17 12:00:00" {
		t.Errorf("computed_at = %q", ev.ComputedAt)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestWebSocketFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := ws.ReadMessage()
	if err != nil || !strings.Contains(string(msg), `"websocket"`) {
		t.Fatalf("welcome = %q, %v", msg, err)
	}
	waitFor(t, func() bool { return hub.Stats().WSClients == 1 })

	hub.SnapshotPublished(testSnapshot())
	_, msg, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev SnapshotEvent
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != EventSnapshotPublished {
		t.Fatalf("event = %s, %v", msg, err)
	}

	_ = ws.Close()
	waitFor(t, func() bool { return hub.Stats().WSClients == 0 })
}
