package websocket

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/notify"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHubDeliversPublishedEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	conn := dialTestHub(t, hub)

	hub.Publish(notify.GearInstalled(3))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), string(notify.EventGearInstalled)) {
		t.Fatalf("payload %q missing event type", data)
	}
}

func TestHubCountDuringBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	conn := dialTestHub(t, hub)

	// Hammer broadcasts while reading the count; the race detector
	// covers the eviction path mutating the client map.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Publish(notify.ControlChanged(i%4, 0))
		}
	}()
	for i := 0; i < 500; i++ {
		hub.GetClientCount()
	}
	<-done

	// The storm may have evicted the deliberately slow reader. Either an
	// event arrives or the hub closed the connection; only a stall fails.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			t.Fatal("no event and no close after broadcast storm")
		}
	}
}
