package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	c := &Client{sub: Subscription{AllEvents: true}}

	ev := &Event{Type: EventAction, Data: map[string]interface{}{"accountId": "acc_1"}}
	if !h.shouldSend(c, ev) {
		t.Error("AllEvents subscription should match everything")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()
	c := &Client{sub: Subscription{EventTypes: []EventType{EventPhasePromotion}}}

	if h.shouldSend(c, &Event{Type: EventAction}) {
		t.Error("action event should not match promotion-only subscription")
	}
	if !h.shouldSend(c, &Event{Type: EventPhasePromotion}) {
		t.Error("promotion event should match")
	}
}

func TestShouldSend_AccountFilter(t *testing.T) {
	h := testHub()
	c := &Client{sub: Subscription{AccountIDs: []string{"acc_7"}}}

	match := &Event{Type: EventAction, Data: map[string]interface{}{"accountId": "acc_7"}}
	other := &Event{Type: EventAction, Data: map[string]interface{}{"accountId": "acc_9"}}

	if !h.shouldSend(c, match) {
		t.Error("watched account should match")
	}
	if h.shouldSend(c, other) {
		t.Error("unwatched account should not match")
	}
}

func TestShouldSend_PlatformFilter(t *testing.T) {
	h := testHub()
	c := &Client{sub: Subscription{Platforms: []string{"tiktok"}}}

	match := &Event{Type: EventAction, Data: map[string]interface{}{"platform": "tiktok"}}
	other := &Event{Type: EventAction, Data: map[string]interface{}{"platform": "twitter"}}

	if !h.shouldSend(c, match) {
		t.Error("watched platform should match")
	}
	if h.shouldSend(c, other) {
		t.Error("unwatched platform should not match")
	}
}

func TestBroadcast_DeliversToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	ts := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for registration before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Stats()["connectedClients"].(int) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.BroadcastAction(map[string]interface{}{"accountId": "acc_1", "platform": "tiktok"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != EventAction {
		t.Errorf("event type = %s, want %s", ev.Type, EventAction)
	}
	data, _ := ev.Data.(map[string]interface{})
	if data["accountId"] != "acc_1" {
		t.Errorf("accountId = %v, want acc_1", data["accountId"])
	}

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("totalEvents = %v, want 1", stats["totalEvents"])
	}
}

func TestHandleWebSocket_AfterShutdown(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	<-h.done

	ts := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err == nil {
		t.Fatal("expected upgrade rejection after hub stopped")
	}
	if resp != nil && resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestBroadcast_FullChannelDropsEvent(t *testing.T) {
	// Run loop not started, so the channel fills up without a consumer.
	h := testHub()
	for i := 0; i < 300; i++ {
		h.Broadcast(&Event{Type: EventAction, Timestamp: time.Now()})
	}
	// Overflow events are dropped rather than blocking the caller.
}
