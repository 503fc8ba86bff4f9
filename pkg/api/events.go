package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// TypeInit is the first message on every events connection.
const TypeInit = "init"

// InitMessage describes the dataset being served when the client connects.
type InitMessage struct {
	Type    string                 `json:"type"`
	Dataset *realtime.DatasetEvent `json:"dataset"`
	At      time.Time              `json:"at"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleEvents upgrades to a WebSocket, sends an init message with the
// current dataset and then forwards every hub event until the client goes
// away.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	l := log.ForService("api")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	var events <-chan realtime.Event
	if s.hub != nil {
		id, ch := s.hub.Register()
		defer s.hub.Unregister(id)
		events = ch
	}

	ds := s.dataset()
	init := InitMessage{
		Type: TypeInit,
		Dataset: &realtime.DatasetEvent{
			SnapshotID:   ds.SnapshotID,
			Source:       ds.Source,
			Count:        len(ds.Records),
			SyncedAt:     ds.SyncedAt,
			FromSnapshot: ds.FromSnapshot,
		},
		At: time.Now().UTC(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(init); err != nil {
		l.Debugf("writing init message: %v", err)
		return
	}

	// Reader: handles pongs and notices when the client closes.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				l.Debugf("writing event: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
