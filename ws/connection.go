package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"direct-chat/domain"
	"direct-chat/domain/event"
	"direct-chat/services"
	"direct-chat/sink"

	"github.com/gorilla/websocket"
)

// State models the connection lifecycle. Terminated is absorbing: no
// further events are processed once it is reached.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAdmitted
	StateTerminated
)

var errConnectionClosed = fmt.Errorf("connection closed")

// Connection binds one websocket to one identity. It is the connection
// handle stored in the registry: producers address it through Consume and
// the admission path terminates a superseded session through Close.
type Connection struct {
	ws       *websocket.Conn
	sink     *sink.ChannelSink
	server   *Server
	identity domain.Identity
	state    atomic.Int32

	closeOnce sync.Once
	closed    chan struct{}

	log *slog.Logger
}

func newConnection(wsConn *websocket.Conn, server *Server) *Connection {
	return &Connection{
		ws:     wsConn,
		sink:   sink.NewChannelSink(server.log, server.cfg.ConnectionBufferSize),
		server: server,
		closed: make(chan struct{}),
		log:    server.log,
	}
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

// Consume implements the connection handle: events are buffered for the
// write loop, never blocking the producer.
func (c *Connection) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-c.closed:
		return errConnectionClosed
	default:
		return c.sink.Consume(ctx, e)
	}
}

// Close terminates the connection. It is safe to call from any goroutine
// and from the registry replacement path.
func (c *Connection) Close(reason string) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateTerminated))
		if reason != "" {
			deadline := time.Now().Add(c.server.cfg.WriteWait)
			message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
			_ = c.ws.WriteControl(websocket.CloseMessage, message, deadline)
		}
		_ = c.ws.Close()
		close(c.closed)
	})
}

// run drives the lifecycle: Connecting -> Authenticating -> Admitted ->
// Terminated. It blocks until the client disconnects or the connection is
// terminated from elsewhere.
func (c *Connection) run(ctx context.Context) {
	defer c.Close("")

	c.state.Store(int32(StateAuthenticating))
	identity, err := c.authenticate()
	if err != nil {
		// Verification failed: close without registry mutation or broadcast.
		c.log.Warn("Connection rejected", "error", err)
		c.Close(err.Error())
		return
	}
	c.identity = identity
	c.log = c.server.log.With("user_id", identity.UserID)

	previous := c.server.broadcaster.Admit(ctx, identity, c)
	if previous != nil {
		previous.Close("signed in from another connection")
	}
	c.state.Store(int32(StateAdmitted))
	c.log.Info("Connection admitted", "display_name", identity.DisplayName)

	// Eviction uses a fresh context: the announcement must go out even
	// though this connection's own context is ending.
	defer func() {
		c.server.broadcaster.Evict(context.Background(), identity.UserID, c)
		c.log.Info("Connection terminated")
	}()

	go c.writeLoop()
	c.readLoop(ctx)
}

// authenticate reads the first frame, which must be a join carrying a
// verifiable token.
func (c *Connection) authenticate() (domain.Identity, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(c.server.cfg.JoinTimeout)); err != nil {
		return domain.Identity{}, err
	}
	_, frame, err := c.ws.ReadMessage()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("join frame not received: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return domain.Identity{}, fmt.Errorf("malformed frame: %w", err)
	}
	if envelope.Type != "join" {
		return domain.Identity{}, fmt.Errorf("expected join, got %q", envelope.Type)
	}
	var payload joinPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return domain.Identity{}, fmt.Errorf("malformed join payload: %w", err)
	}

	return c.server.verifier.Verify(payload.Token)
}

// readLoop processes inbound events until the transport closes. Events are
// handled inline so two messages sent in sequence by the same user are
// persisted and pushed in send order.
func (c *Connection) readLoop(ctx context.Context) {
	pongWait := c.server.cfg.PongWait
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var envelope Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			c.notify(ctx, "malformed frame")
			continue
		}
		c.dispatch(ctx, envelope)
	}
}

func (c *Connection) dispatch(ctx context.Context, envelope Envelope) {
	switch envelope.Type {
	case "sendMessage":
		var payload sendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.notify(ctx, "malformed sendMessage payload")
			return
		}
		cmd := services.SendCommand{
			Sender:      c.identity,
			RecipientID: payload.RecipientID,
			Content:     payload.Content,
			Type:        domain.MessageType(payload.MessageType),
		}
		if _, err := c.server.messages.Send(ctx, cmd, c); err != nil {
			c.notify(ctx, err.Error())
		}
	case "typing":
		var payload typingPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.notify(ctx, "malformed typing payload")
			return
		}
		c.server.typing.Relay(ctx, c.identity, payload.RecipientID, payload.IsTyping)
	case "join":
		c.log.Debug("Duplicate join ignored")
	default:
		c.log.Debug("Unknown event type", "type", envelope.Type)
	}
}

// notify reports a recoverable failure over the still-usable connection.
func (c *Connection) notify(ctx context.Context, reason string) {
	if err := c.Consume(ctx, event.Notice{Reason: reason}); err != nil {
		c.log.Debug("Error notice not delivered", "reason", reason, "error", err)
	}
}

// writeLoop owns all data writes on the websocket. It drains the sink and
// converts keepalive requests into transport pings.
func (c *Connection) writeLoop() {
	writeWait := c.server.cfg.WriteWait
	for {
		select {
		case <-c.closed:
			return
		case e := <-c.sink.Events:
			if _, isPing := e.(event.Ping); isPing {
				deadline := time.Now().Add(writeWait)
				if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					c.Close("")
					return
				}
				continue
			}

			frame, outbound, err := encodeEvent(e)
			if err != nil {
				c.log.Error("Event encoding failed", "event", e.EventName(), "error", err)
				continue
			}
			if !outbound {
				continue
			}

			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close("")
				return
			}
		}
	}
}
