package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func payloadAs(t *testing.T, msg WSMessage, dst any) {
	t.Helper()
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}

func TestWebSocket_InitialState(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Update(func(s device.State) device.State {
		s.Humidity = "55"
		return s
	})

	conn := dialWS(t, f)
	msg := readWS(t, conn)
	if msg.Type != WSTypeEvent || msg.EventType != EventStateChanged {
		t.Fatalf("first message = %+v, want state.changed event", msg)
	}
	var snap device.Snapshot
	payloadAs(t, msg, &snap)
	if snap.Humidity != "55" {
		t.Errorf("humidity = %q, want 55", snap.Humidity)
	}
}

func TestWebSocket_Broadcasts(t *testing.T) {
	f := newFixture(t, nil)
	conn := dialWS(t, f)
	readWS(t, conn)
	hub := f.server.Hub()
	waitForClients(t, hub, 1)

	hub.BroadcastActivity(activity.Event{Message: "Fan turned ON", Category: activity.CategoryFan})
	msg := readWS(t, conn)
	if msg.EventType != EventActivityAppended {
		t.Fatalf("event = %q, want %q", msg.EventType, EventActivityAppended)
	}
	var e activity.Event
	payloadAs(t, msg, &e)
	if e.Message != "Fan turned ON" {
		t.Errorf("message = %q", e.Message)
	}

	hub.DeliverNotification(notify.Item{ID: "n1", Title: "Fan ON", Category: notify.CategoryDevice})
	if msg := readWS(t, conn); msg.EventType != EventNotificationCreated {
		t.Errorf("event = %q, want %q", msg.EventType, EventNotificationCreated)
	}

	hub.BroadcastConnection(false, "reconnecting")
	msg = readWS(t, conn)
	if msg.EventType != EventConnectionChanged {
		t.Fatalf("event = %q, want %q", msg.EventType, EventConnectionChanged)
	}
	var ce ConnectionEvent
	payloadAs(t, msg, &ce)
	if ce.Connected || ce.State != "reconnecting" {
		t.Errorf("connection event = %+v", ce)
	}
}

func TestWebSocket_SubscriptionsAndPing(t *testing.T) {
	f := newFixture(t, nil)
	conn := dialWS(t, f)
	readWS(t, conn)
	hub := f.server.Hub()
	waitForClients(t, hub, 1)

	unsub := WSMessage{Type: WSTypeUnsubscribe, ID: "1", Payload: WSSubscribePayload{Channels: []string{EventActivityAppended}}}
	if err := conn.WriteJSON(unsub); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeResponse || msg.ID != "1" {
		t.Fatalf("unsubscribe reply = %+v", msg)
	}

	hub.BroadcastActivity(activity.Event{Message: "ignored"})
	hub.BroadcastState(f.store.Snapshot())
	if msg := readWS(t, conn); msg.EventType != EventStateChanged {
		t.Errorf("event = %q, want only state.changed after unsubscribe", msg.EventType)
	}

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "2"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypePong || msg.ID != "2" {
		t.Errorf("ping reply = %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError {
		t.Errorf("reply = %+v, want error", msg)
	}

	if err := conn.WriteJSON(WSMessage{Type: "dance", ID: "3"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError || msg.ID != "3" {
		t.Errorf("reply = %+v, want error", msg)
	}
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	f := newFixture(t, nil)
	conn := dialWS(t, f)
	readWS(t, conn)
	waitForClients(t, f.server.Hub(), 1)

	conn.Close()
	waitForClients(t, f.server.Hub(), 0)
}

func TestHub_RunClosesClients(t *testing.T) {
	f := newFixture(t, nil)
	conn := dialWS(t, f)
	readWS(t, conn)
	hub := f.server.Hub()
	waitForClients(t, hub, 1)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Run returned, want 0", hub.ClientCount())
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, nil)
	hub.BroadcastState(device.Snapshot{})
	hub.Unregister(newClient(hub, nil))
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}
