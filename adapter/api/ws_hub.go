package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
)

// uiMessage is the envelope pushed to connected UI pages.
type uiMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// uiRequest is an inbound message from a UI page.
type uiRequest struct {
	Action string `json:"action"`
}

// UI actions, mirrored by the pages' message handlers.
const (
	actionRemindersChanged     = "remindersChanged"
	actionReminderFired        = "reminderFired"
	actionPeriodicAnnouncement = "periodicAnnouncement"
	requestResync              = "requestResync"
)

// routingKeyActions maps bus routing keys to UI actions.
var routingKeyActions = map[string]string{
	domain.RoutingKeyRemindersChanged:      actionRemindersChanged,
	domain.RoutingKeyReminderFired:         actionReminderFired,
	domain.RoutingKeyAnnouncementPerformed: actionPeriodicAnnouncement,
}

// Hub fans bus events out to connected WebSocket clients. It is an
// eventbus consumer on one side and an HTTP handler on the other.
type Hub struct {
	resyncer services.Resyncer
	logger   *slog.Logger
	upgrader websocket.Upgrader

	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a hub. writeTimeout bounds each client write; a stalled
// page must not block the fan-out.
func NewHub(resyncer services.Resyncer, writeTimeout time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Hub{
		resyncer: resyncer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Loopback-only server; the UI pages are local files.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		clients:      make(map[*websocket.Conn]struct{}),
	}
}

// EventTypes implements eventbus.Consumer.
func (h *Hub) EventTypes() []string {
	keys := make([]string, 0, len(routingKeyActions))
	for key := range routingKeyActions {
		keys = append(keys, key)
	}
	return keys
}

// Handle implements eventbus.Consumer: translate the event into a UI
// message and broadcast it.
func (h *Hub) Handle(_ context.Context, event *eventbus.Event) error {
	action, ok := routingKeyActions[event.RoutingKey]
	if !ok {
		return nil
	}
	h.broadcast(uiMessage{Action: action, Payload: event.Payload})
	return nil
}

// HandleConnection handles GET /ws.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ui page connected", "clients", count)

	go h.readLoop(conn)
}

// readLoop serves inbound requests until the client goes away. The
// request context is not usable here: it is canceled once the upgrade
// handler returns, while the connection outlives it.
func (h *Hub) readLoop(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer h.drop(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req uiRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.Warn("malformed ui request", "error", err)
			continue
		}

		switch req.Action {
		case requestResync:
			if err := h.resyncer.Resync(ctx); err != nil {
				h.logger.Warn("ui-requested resync failed", "error", err)
			}
		default:
			h.logger.Warn("unknown ui request", "action", req.Action)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()
	conn.Close()
	h.logger.Info("ui page disconnected", "clients", count)
}

func (h *Hub) broadcast(msg uiMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode ui message", "error", err)
		return
	}

	// The mutex also serializes writes: the connection type does not
	// allow concurrent writers.
	h.mu.Lock()
	var failed []*websocket.Conn
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("websocket write failed, dropping client", "error", err)
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range failed {
		conn.Close()
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
