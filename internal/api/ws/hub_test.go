package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/pkg/dto"
)

func newServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/ws", h.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_FiltersByEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)
	srv := newServer(t, h)

	e1, e2 := uuid.New(), uuid.New()
	conn := dial(t, srv, "?event_id="+e1.String())

	// Registration completes after the handshake; repeat until it lands.
	guest := uuid.New()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			h.BroadcastMatch(models.MatchNotice{EventID: e2, GuestID: uuid.New(), CreatedAt: time.Now()})
			h.BroadcastMatch(models.MatchNotice{EventID: e1, GuestID: guest, PhotoIDs: []uuid.UUID{uuid.New()}, CreatedAt: time.Now()})
			select {
			case <-stop:
				return
			case <-tick.C:
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev dto.WSEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != "match_found" || ev.EventID != e1 || ev.GuestID != guest || len(ev.PhotoIDs) != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHub_RejectsInvalidEventID(t *testing.T) {
	h := NewHub()
	srv := newServer(t, h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?event_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Errorf("expected 400, got %v", resp)
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	cancel()
	<-h.done

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			h.BroadcastMatch(models.MatchNotice{EventID: uuid.New(), CreatedAt: time.Now()})
		}
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastMatch blocked after the hub stopped")
	}

	conn := dial(t, newServer(t, h), "")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close from a stopped hub, got %v", err)
	}
}
