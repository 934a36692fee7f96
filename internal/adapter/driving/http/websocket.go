package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mireva/tete/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP bodies fit comfortably.
	maxMessageSize = 64 * 1024

	// Outbound queue per connection. Full queue drops the event.
	sendQueueSize = 256
)

// Inbound event rate per connection: sustained and burst. Signaling traffic
// is a handful of messages per call; anything past this is misbehavior.
const (
	eventRate  = 20
	eventBurst = 40
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the frontend origin before exposing publicly
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope is the wire frame for both directions: a named event, an optional
// correlation id, and an opaque data object.
type envelope struct {
	Event string          `json:"event"`
	ID    int64           `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	ID    int64  `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ack is the structured acknowledgment for a client-originated event.
type ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WSClient is one websocket connection. It satisfies the hub's Client
// interface; all writes go through the buffered send queue so the write
// pump is the only goroutine touching the connection for writes.
type WSClient struct {
	id   string
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	log  zerolog.Logger
}

func (c *WSClient) ID() string {
	return c.id
}

func (c *WSClient) Send(event string, data any) error {
	select {
	case c.send <- outbound{Event: event, Data: data}:
	default:
		c.log.Warn().Str("event", event).Msg("Send queue full, dropping event")
	}
	return nil
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

func (c *WSClient) sendAck(id int64, result ack) {
	select {
	case c.send <- outbound{Event: "ack", ID: id, Data: result}:
	default:
		c.log.Warn().Msg("Send queue full, dropping ack")
	}
}

// ServeWS upgrades the connection and runs the session until it drops.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	clientID := uuid.New().String()
	client := &WSClient{
		id:   clientID,
		conn: conn,
		send: make(chan outbound, sendQueueSize),
		done: make(chan struct{}),
		log:  log.With().Str("client_id", clientID).Logger(),
	}

	client.log.Info().Msg("New client connected")
	h.Hub.Register(client)
	h.Session.Connect(r.Context(), clientID)

	go client.writePump()
	client.readPump(h)
}

func (c *WSClient) readPump(h *Handler) {
	reason := "connection closed"
	defer func() {
		h.Hub.Unregister(c.id)
		h.Session.Disconnect(context.Background(), c.id, reason)
		close(c.done)
		c.conn.Close()
		c.log.Info().Str("reason", reason).Msg("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	lim := rate.NewLimiter(eventRate, eventBurst)
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Error().Err(err).Msg("Unexpected close error")
			}
			reason = err.Error()
			return
		}
		if !lim.Allow() {
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit"),
				time.Now().Add(writeWait))
			reason = "rate limit"
			return
		}

		data, err := h.dispatch(context.Background(), c, env)
		if err != nil {
			c.sendAck(env.ID, ack{Success: false, Error: err.Error()})
			continue
		}
		c.sendAck(env.ID, ack{Success: true, Data: data})
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Error().Err(err).Msg("Error writing json")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type roomPayload struct {
	Room string `json:"room"`
}

type signalPayload struct {
	Room      string          `json:"room"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type leaveMessagePayload struct {
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// dispatch routes one client event to the core and returns the ack data.
// Every error surfaces as a structured failure ack; nothing here may kill
// the connection.
func (h *Handler) dispatch(ctx context.Context, c *WSClient, env envelope) (any, error) {
	switch env.Event {
	case "create":
		p, err := decodeRoom(env.Data)
		if err != nil {
			return nil, err
		}
		room, err := h.Session.Create(ctx, c.id, p.Room)
		if err != nil {
			return nil, err
		}
		return map[string]any{"room": room}, nil

	case "join":
		p, err := decodeRoom(env.Data)
		if err != nil {
			return nil, err
		}
		room, err := h.Session.Join(ctx, c.id, p.Room)
		if err != nil {
			return nil, err
		}
		return map[string]any{"room": room}, nil

	case "leave":
		p, err := decodeRoom(env.Data)
		if err != nil {
			return nil, err
		}
		h.Session.Leave(ctx, c.id, p.Room)
		return nil, nil

	case "call_connected":
		p, err := decodeRoom(env.Data)
		if err != nil {
			return nil, err
		}
		return nil, h.Session.CallConnected(ctx, c.id, p.Room)

	case "leave_message":
		var p leaveMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Room == "" {
			return nil, fieldError("room")
		}
		if len(p.Message) == 0 {
			return nil, fieldError("message")
		}
		h.Session.LeaveMessage(ctx, c.id, p.Room, p.Message)
		return nil, nil

	case "offer", "answer", "ice":
		var p signalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Room == "" {
			return nil, fieldError("room")
		}
		switch {
		case env.Event == "offer" && len(p.Offer) == 0:
			return nil, fieldError("offer")
		case env.Event == "answer" && len(p.Answer) == 0:
			return nil, fieldError("answer")
		case env.Event == "ice" && len(p.Candidate) == 0:
			return nil, fieldError("candidate")
		}
		// relayed verbatim under the same event name
		return nil, h.Relay.Forward(ctx, c.id, p.Room, env.Event, env.Data)

	case "recording_started", "recording_stopped":
		p, err := decodeRoom(env.Data)
		if err != nil {
			return nil, err
		}
		return nil, h.Relay.Recording(ctx, c.id, p.Room, env.Event == "recording_started")

	default:
		return nil, fmt.Errorf("Unknown event: %s", env.Event)
	}
}

func decodeRoom(data json.RawMessage) (roomPayload, error) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		return p, fieldError("room")
	}
	return p, nil
}

func fieldError(field string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidPayload, field)
}
