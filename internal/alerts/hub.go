// Package alerts implements the optional /emergency/ws channel: a
// narrow, alerting-only websocket broadcast of Dispatch Worker
// terminal-failure events, never incident state (spec.md's no-goal on
// streaming updates carves out exactly this one alert channel).
// Grounded on the upgrader/read-loop/keepalive pattern of
// graphql_ws.go, trimmed to a fan-out broadcast with no subscriptions.
package alerts

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// DispatchFailureAlert is the only message this channel ever sends.
type DispatchFailureAlert struct {
	Type           string    `json:"type"`
	JobID          uuid.UUID `json:"job_id"`
	TicketClientID string    `json:"ticket_client_id"`
	Attempts       int       `json:"attempts"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

const pongWait = 60 * time.Second
const pingInterval = 20 * time.Second

// Hub fans out dispatch-failure alerts to every connected websocket
// client. It implements dispatch.Alerter.
type Hub struct {
	log *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan DispatchFailureAlert
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*websocket.Conn]chan DispatchFailureAlert)}
}

// AlertDispatchFailure satisfies dispatch.Alerter. It never blocks the
// dispatch worker: when a client's buffered channel is full, the alert
// is dropped for that client rather than awaited, and the client stays
// connected.
func (h *Hub) AlertDispatchFailure(jobID uuid.UUID, ticketClientID string, attempts int, reason string) {
	alert := DispatchFailureAlert{
		Type:           "dispatch_failure",
		JobID:          jobID,
		TicketClientID: ticketClientID,
		Attempts:       attempts,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- alert:
		default:
			h.log.WithField("component", "alerts").Warn("dropping alert for slow websocket client")
			_ = conn
		}
	}
}

// ServeWS upgrades the request and streams alerts until the client
// disconnects. It never reads incident data from the client; the only
// inbound traffic it expects is pong keepalives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan DispatchFailureAlert, 16)
	h.register(conn, ch)
	defer h.unregister(conn)

	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Drain and discard any client frames; this channel never accepts commands.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unregister(conn)
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case alert, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(alert); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(conn *websocket.Conn, ch chan DispatchFailureAlert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
}
