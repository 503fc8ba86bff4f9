package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/warehouse"
)

func wsDial(t *testing.T, ts *httptest.Server) (*websocket.Conn, InitMessage) {
	t.Helper()
	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/events"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read init: %v", err)
	}
	var msg InitMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal init: %v", err)
	}
	if msg.Type != TypeInit {
		t.Fatalf("expected init message, got %v", msg.Type)
	}
	return conn, msg
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev realtime.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

// waitForListeners blocks until the hub has n registered listeners, since
// registration happens in the handler goroutine.
func waitForListeners(t *testing.T, hub *realtime.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Size() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d listeners, have %d", n, hub.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsInitDescribesCurrentDataset(t *testing.T) {
	synced := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	data := staticData{ds: &warehouse.Dataset{
		Records:      testProviders,
		Source:       "http",
		SyncedAt:     synced,
		SnapshotID:   "snap-1",
		FromSnapshot: true,
	}}
	server := NewServer(data, nil, Options{})
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn, init := wsDial(t, ts)
	defer func() { _ = conn.Close() }()

	if init.Dataset == nil {
		t.Fatal("init without dataset")
	}
	d := init.Dataset
	if d.Count != 3 || d.Source != "http" || d.SnapshotID != "snap-1" || !d.FromSnapshot || !d.SyncedAt.Equal(synced) {
		t.Errorf("unexpected init dataset %+v", d)
	}
}

func TestEventsForwardsHubEvents(t *testing.T) {
	hub := realtime.NewHub(4)
	server := NewServer(staticData{ds: &warehouse.Dataset{}}, hub, Options{})
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn, init := wsDial(t, ts)
	defer func() { _ = conn.Close() }()
	if init.Dataset.Count != 0 {
		t.Errorf("empty dataset reported %d providers", init.Dataset.Count)
	}
	waitForListeners(t, hub, 1)

	hub.Broadcast(realtime.NewDatasetEvent(realtime.DatasetEvent{Source: "file", Count: 42, SyncedAt: time.Now()}))
	ev := readEvent(t, conn)
	if ev.Type != realtime.TypeDataset || ev.Dataset == nil || ev.Dataset.Count != 42 {
		t.Errorf("unexpected event %+v", ev)
	}

	hub.Broadcast(realtime.NewErrorEvent(errors.New("sheet unreachable")))
	ev = readEvent(t, conn)
	if ev.Type != realtime.TypeError || ev.Error != "sheet unreachable" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestEventsUnregistersOnClose(t *testing.T) {
	hub := realtime.NewHub(4)
	server := NewServer(staticData{ds: &warehouse.Dataset{}}, hub, Options{})
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn, _ := wsDial(t, ts)
	waitForListeners(t, hub, 1)
	_ = conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("listener not released, hub size %d", hub.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsRejectsPlainHTTP(t *testing.T) {
	mux := setupTestAPIServer(t)
	w := get(t, mux, "/api/events")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-websocket request, got %d", w.Code)
	}
}
