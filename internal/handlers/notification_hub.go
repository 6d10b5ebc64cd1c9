package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/notify"
	appSignals "github.com/belphemur/canteen-menu/internal/signals"
)

const (
	hubListenerKey  = "notification-hub"
	hubWriteTimeout = 10 * time.Second
	hubSendBuffer   = 8
)

// Hub message types
const (
	MessageRefresh      = "refresh"
	MessageNotification = "notification"
	MessagePermission   = "permission"
)

// HubMessage is the JSON frame exchanged with open pages
type HubMessage struct {
	Type         string               `json:"type"`
	Date         string               `json:"date,omitempty"`
	Permission   string               `json:"permission,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

type hubClient struct {
	id         string
	conn       *websocket.Conn
	permission notify.Permission
	send       chan HubMessage
}

// NotificationHub keeps a websocket to every open page. It tells pages to
// refresh when the menu or theme changes and is the notification sink.
type NotificationHub struct {
	mu       sync.RWMutex
	clients  map[string]*hubClient
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

var _ notify.Sink = (*NotificationHub)(nil)

// NewNotificationHub creates a hub. With no allowed origins only same-origin pages may connect.
func NewNotificationHub(allowedOrigins []string) *NotificationHub {
	h := &NotificationHub{
		clients: make(map[string]*hubClient),
		logger:  logging.GetLogger("notification-hub"),
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		}
	}
	return h
}

// RegisterRoutes registers the websocket endpoint
func (h *NotificationHub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.ServeHTTP)
}

// Listen subscribes the hub to menu and theme changes
func (h *NotificationHub) Listen() {
	appSignals.OnMenuRendered(func(ctx context.Context, data appSignals.MenuRenderedData) {
		h.Broadcast(HubMessage{Type: MessageRefresh, Date: data.Date})
	}, hubListenerKey)
	appSignals.OnThemeChanged(func(ctx context.Context, data appSignals.ThemeChangedData) {
		h.Broadcast(HubMessage{Type: MessageRefresh})
	}, hubListenerKey)
}

// ServeHTTP upgrades the request and serves one page until it disconnects
func (h *NotificationHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := &hubClient{
		id:         uuid.NewString(),
		conn:       conn,
		permission: notify.ParsePermission(r.URL.Query().Get("permission")),
		send:       make(chan HubMessage, hubSendBuffer),
	}
	h.register(client)
	defer h.unregister(client)

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *NotificationHub) register(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	h.logger.Debug().Str("client_id", c.id).Str("permission", string(c.permission)).Int("clients", len(h.clients)).Msg("Page connected")
}

func (h *NotificationHub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.logger.Debug().Str("client_id", c.id).Int("clients", len(h.clients)).Msg("Page disconnected")
}

// readLoop handles permission updates until the connection fails
func (h *NotificationHub) readLoop(c *hubClient) {
	for {
		var msg HubMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("client_id", c.id).Msg("Websocket read failed")
			}
			return
		}
		if msg.Type == MessagePermission {
			h.mu.Lock()
			c.permission = notify.ParsePermission(msg.Permission)
			h.mu.Unlock()
			h.logger.Debug().Str("client_id", c.id).Str("permission", msg.Permission).Msg("Permission updated")
		}
	}
}

// writeLoop is the only writer on the connection
func (h *NotificationHub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug().Err(err).Str("client_id", c.id).Msg("Websocket write failed")
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// Broadcast queues msg for every connected page. Slow pages miss messages rather than block.
func (h *NotificationHub) Broadcast(msg HubMessage) int {
	return h.sendWhere(msg, func(*hubClient) bool { return true })
}

func (h *NotificationHub) sendWhere(msg HubMessage, match func(*hubClient) bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
			sent++
		default:
			h.logger.Warn().Str("client_id", c.id).Str("type", msg.Type).Msg("Client send buffer full, dropping message")
		}
	}
	return sent
}

// Permission implements notify.Sink: granted as soon as one open page granted it
func (h *NotificationHub) Permission() notify.Permission {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := notify.PermissionDefault
	for _, c := range h.clients {
		switch c.permission {
		case notify.PermissionGranted:
			return notify.PermissionGranted
		case notify.PermissionDenied:
			result = notify.PermissionDenied
		}
	}
	return result
}

// Notify implements notify.Sink by sending n to every page that granted permission
func (h *NotificationHub) Notify(ctx context.Context, n notify.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent := h.sendWhere(HubMessage{Type: MessageNotification, Date: n.Date, Notification: &n}, func(c *hubClient) bool {
		return c.permission == notify.PermissionGranted
	})
	if sent == 0 {
		return errors.New("no page accepted the notification")
	}
	h.logger.Info().Int("pages", sent).Str("date", n.Date).Msg("Notification delivered")
	return nil
}

// ClientCount returns the number of connected pages
func (h *NotificationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every page and stops listening to signals
func (h *NotificationHub) Close() {
	appSignals.RemoveListeners(hubListenerKey)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}
