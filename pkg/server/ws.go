package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/frostbyte73/core"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/events"
	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/session"
	"github.com/qieqieplus/meeting-view/pkg/store"
)

// WebSocketServer pushes session state to WebSocket clients
type WebSocketServer struct {
	upgrader     websocket.Upgrader
	manager      *session.Manager
	config       *config.Config
	clients      map[string]*Client
	clientsMutex sync.RWMutex
}

// NewWebSocketServer creates a new WebSocket server
func NewWebSocketServer(manager *session.Manager, cfg *config.Config) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		manager: manager,
		config:  cfg,
		clients: make(map[string]*Client),
	}
}

// HandleConnection handles incoming WebSocket connections on /ws/state/{meeting_id}
func (s *WebSocketServer) HandleConnection(w http.ResponseWriter, r *http.Request) {
	meetingID := GetPathParam(r, "meeting_id")
	sess, ok := s.manager.Get(meetingID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	cc := ParseConnectionConfig(r.URL.Query(), s.config.WebSocket.QueueSize)
	cc.MeetingID = meetingID

	client := NewClient(conn, sess, s.config)
	s.addClient(client)

	log.Infof("WebSocket client connected: %s for session: %s", client.ID, meetingID)

	client.Process(cc)

	s.removeClient(client.ID)
	log.Infof("WebSocket client disconnected: %s", client.ID)
}

// ClientCount returns the number of connected clients
func (s *WebSocketServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// addClient adds a client to the server's list
func (s *WebSocketServer) addClient(client *Client) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	s.clients[client.ID] = client
}

// removeClient removes a client from the server's list
func (s *WebSocketServer) removeClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	delete(s.clients, clientID)
}

// Client represents a single WebSocket client
type Client struct {
	ID       string
	conn     *websocket.Conn
	session  *session.Session
	config   *config.Config
	sendChan chan []byte
	done     core.Fuse
	logger   log.Entry
}

// NewClient creates a new client
func NewClient(conn *websocket.Conn, sess *session.Session, cfg *config.Config) *Client {
	id := uuid.NewString()
	return &Client{
		ID:      id,
		conn:    conn,
		session: sess,
		config:  cfg,
		logger:  log.WithFields(log.Fields{"client_id": id, "meeting_id": sess.MeetingID()}),
	}
}

// Process subscribes to the session bus, sends the snapshot and blocks until
// the connection or the session closes.
func (c *Client) Process(cc *ConnectionConfig) {
	queueSize := cc.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	c.sendChan = make(chan []byte, queueSize)

	bus := c.session.Bus()
	unsubs := []events.Unsubscribe{
		bus.Subscribe(events.MeetingStateChanged, func(p interface{}) { c.onStateChanged(cc, p) }),
		bus.Subscribe(events.ToggleFullScreen, func(interface{}) {
			if msg, err := CreateFullScreenMessage(); err == nil {
				c.enqueue(msg)
			}
		}),
	}
	if cc.Visibility {
		unsubs = append(unsubs,
			bus.Subscribe(events.ParticipantVisible, func(p interface{}) { c.onVisibility(p, true) }),
			bus.Subscribe(events.ParticipantInvisible, func(p interface{}) { c.onVisibility(p, false) }),
		)
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	// Subscribed first so no change between the snapshot and the subscription is lost
	if msg, err := CreateSnapshotMessage(c.session.Snapshot()); err == nil {
		c.enqueue(msg)
	}

	go c.writePump(cc)
	c.readPump()
}

func (c *Client) onStateChanged(cc *ConnectionConfig, payload interface{}) {
	change, ok := payload.(store.Change)
	if !ok || !cc.wants(change.Field) {
		return
	}
	var snap *store.Snapshot
	if cc.FullState {
		s := c.session.Snapshot()
		snap = &s
	}
	if msg, err := CreateStateChangedMessage(change, snap); err == nil {
		c.enqueue(msg)
	}
}

func (c *Client) onVisibility(payload interface{}, visible bool) {
	p, ok := payload.(events.VisibilityPayload)
	if !ok {
		return
	}
	if msg, err := CreateVisibilityMessage(p.ParticipantID, visible); err == nil {
		c.enqueue(msg)
	}
}

// enqueue never blocks the publisher. Messages for a slow client are dropped.
func (c *Client) enqueue(msg []byte) {
	if c.done.IsBroken() {
		return
	}
	select {
	case c.sendChan <- msg:
	default:
		c.logger.Warnf("Dropping message (send channel full)")
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump(cc *ConnectionConfig) {
	defer c.conn.Close()

	// Ping ticker to keep connection alive
	pingTicker := time.NewTicker(c.config.WebSocket.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case msg := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WebSocket.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Errorf("Error writing message to WebSocket: %v", err)
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WebSocket.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Errorf("Error sending ping to WebSocket: %v", err)
				return
			}
			if cc.EnableHeartbeat {
				if msg, err := CreateHeartbeatMessage(time.Now().UnixMilli()); err == nil {
					c.conn.WriteMessage(websocket.TextMessage, msg)
				}
			}
			c.logger.Debugf("Sent ping")

		case <-c.session.Done():
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WebSocket.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return

		case <-c.done.Watch():
			return
		}
	}
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.done.Break()
		c.conn.Close()
	}()

	// Set initial read deadline
	c.conn.SetReadDeadline(time.Now().Add(c.config.WebSocket.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		// Reset read deadline when pong is received
		c.conn.SetReadDeadline(time.Now().Add(c.config.WebSocket.ReadTimeout))
		c.logger.Debugf("Received pong")
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Errorf("WebSocket read error: %v", err)
			}
			break
		}
		// If we receive any message (not just pong), reset the deadline
		c.conn.SetReadDeadline(time.Now().Add(c.config.WebSocket.ReadTimeout))
	}
}
