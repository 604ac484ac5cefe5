package trade

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSHub_NilHubBroadcastIsNoop(t *testing.T) {
	var h *WSHub
	h.Broadcast(WSMessage{Type: "offers_posted", Day: 1})
}

func TestWSHub_BroadcastNeverBlocks(t *testing.T) {
	// Run is deliberately not started: the buffer fills and further
	// events drop instead of wedging game actions.
	h := NewWSHub()
	for i := 0; i < 500; i++ {
		h.Broadcast(WSMessage{Type: "offers_posted", Day: i})
	}
}

func TestWSHub_DeliversAndEvicts(t *testing.T) {
	h := NewWSHub()
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Registration completes on the hub goroutine after the handshake.
	time.Sleep(100 * time.Millisecond)

	h.Broadcast(WSMessage{Type: "trade_executed", Day: 3, TransactionID: "tx-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "trade_executed" || msg.Day != 3 {
		t.Errorf("unexpected message: %+v", msg)
	}

	// A closed client gets evicted on a subsequent write; broadcasting
	// must keep working for the remaining clients.
	conn.Close()
	for i := 0; i < 5; i++ {
		h.Broadcast(WSMessage{Type: "offers_posted", Day: i})
		time.Sleep(10 * time.Millisecond)
	}
}
