package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedbacksurvey/internal/service"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Outbound message types
const (
	MsgState          MessageType = service.MsgState
	MsgNotification   MessageType = service.MsgNotification
	MsgSessionClosed  MessageType = service.MsgSessionClosed
	MsgConfirmRequest MessageType = "confirm_request"
	MsgError          MessageType = "error"
)

// Inbound message types
const (
	MsgConfirmResponse MessageType = "confirm_response"
)

// ErrHubClosed is returned by Prompt after Close
var ErrHubClosed = errors.New("websocket hub closed")

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ConfirmRequest asks the client to confirm the submission
type ConfirmRequest struct {
	RequestID string `json:"requestId"`
	Prompt    string `json:"prompt"`
}

// ConfirmResponse is the client's answer to a ConfirmRequest
type ConfirmResponse struct {
	RequestID string `json:"requestId"`
	Confirmed bool   `json:"confirmed"`
}

// Hub manages WebSocket connections for survey sessions
type Hub struct {
	// session -> connections (a respondent may have several tabs open)
	conns   map[string]map[*Connection]struct{}
	pending map[string]*pendingConfirm // requestID -> waiter

	mu  sync.RWMutex
	log *zap.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to deliver to every connection of a session.
// Disconnect closes those connections after delivery.
type BroadcastMessage struct {
	SessionID  string
	Message    *Message
	Disconnect bool
}

type pendingConfirm struct {
	sessionID string
	reply     chan bool
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		pending:    make(map[string]*pendingConfirm),
		log:        log,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for sessionID, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, sessionID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("websocket connected", zap.String("session", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.SessionID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					h.log.Debug("websocket disconnected", zap.String("session", conn.SessionID))
				}
				if len(conns) == 0 {
					delete(h.conns, conn.SessionID)
					h.declinePendingLocked(conn.SessionID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			var data []byte
			if msg.Message != nil {
				data, _ = json.Marshal(msg.Message)
			}
			for conn := range h.conns[msg.SessionID] {
				if data != nil {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
				if msg.Disconnect {
					close(conn.Send)
				}
			}
			if msg.Disconnect {
				delete(h.conns, msg.SessionID)
				h.declinePendingLocked(msg.SessionID)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close disconnects everyone and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		<-h.stopped
	})
}

// ConnectionCount returns the number of live connections for a session
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// SendToSession sends a message to every connection of a session (implements service.Broadcaster)
func (h *Hub) SendToSession(sessionID string, msgType string, payload interface{}) {
	h.enqueue(sessionID, MessageType(msgType), payload)
}

// DisconnectSession closes every connection of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.broadcast <- &BroadcastMessage{SessionID: sessionID, Disconnect: true}:
	case <-h.done:
	}
}

// Prompt sends a confirm_request and waits for the matching confirm_response
// (implements service.Prompter)
func (h *Hub) Prompt(ctx context.Context, sessionID, prompt string) (bool, error) {
	reqID := uuid.NewString()
	waiter := &pendingConfirm{sessionID: sessionID, reply: make(chan bool, 1)}

	h.mu.Lock()
	if len(h.conns[sessionID]) == 0 {
		h.mu.Unlock()
		return false, service.ErrNoConfirmChannel
	}
	h.pending[reqID] = waiter
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, reqID)
		h.mu.Unlock()
	}()

	h.enqueue(sessionID, MsgConfirmRequest, ConfirmRequest{RequestID: reqID, Prompt: prompt})

	select {
	case ok := <-waiter.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-h.done:
		return false, ErrHubClosed
	}
}

// Resolve delivers a client's confirm_response. It reports whether a
// matching request from that session was waiting.
func (h *Hub) Resolve(sessionID string, resp ConfirmResponse) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	waiter, ok := h.pending[resp.RequestID]
	if !ok || waiter.sessionID != sessionID {
		return false
	}
	delete(h.pending, resp.RequestID)
	waiter.reply <- resp.Confirmed
	return true
}

func (h *Hub) enqueue(sessionID string, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode websocket payload", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	msg := &BroadcastMessage{
		SessionID: sessionID,
		Message:   &Message{Type: msgType, Payload: data},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// declinePendingLocked answers "no" for a session that lost its last connection
func (h *Hub) declinePendingLocked(sessionID string) {
	for reqID, waiter := range h.pending {
		if waiter.sessionID == sessionID {
			delete(h.pending, reqID)
			waiter.reply <- false
		}
	}
}
