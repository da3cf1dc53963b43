package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lox/pokerrooms/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	maxChatLength = 500
)

// Connection represents a WebSocket connection to a client. A connection is
// bound to at most one room and player at a time.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	roomCode  string
	playerID  string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
	limiter   *rate.Limiter
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(server.ctx)
	id := uuid.NewString()

	return &Connection{
		id:      id,
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  server.logger.WithPrefix("conn").With("conn", id[:8]),
		ctx:     ctx,
		cancel:  cancel,
		server:  server,
		limiter: rate.NewLimiter(server.messageRate, server.messageBurst),
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		close(c.send)
		c.send = nil
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A client that cannot keep
// up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.send == nil {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

func (c *Connection) bind(roomCode, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = roomCode
	c.playerID = playerID
}

// Binding returns the room and player this connection is bound to.
func (c *Connection) Binding() (roomCode, playerID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode, c.playerID
}

// claim binds an unbound connection to the player it first acted as.
func (c *Connection) claim(roomCode, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerID == "" && playerID != "" {
		c.roomCode = roomCode
		c.playerID = playerID
	}
}

// resolve fills a request's room and player from the binding. A bound
// connection may only act as its own player in its own room.
func (c *Connection) resolve(ref RoomRef) (RoomRef, error) {
	room, player := c.Binding()
	if ref.RoomCode == "" {
		ref.RoomCode = room
	}
	if ref.PlayerID == "" {
		ref.PlayerID = player
	}
	if ref.RoomCode == "" {
		return ref, ErrNotJoined
	}
	if player != "" && (ref.RoomCode != room || ref.PlayerID != player) {
		return ref, ErrForbidden
	}
	return ref, nil
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError("rate_limited", "Too many messages")
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid_message", "Invalid message format")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	c.mu.RLock()
	send := c.send
	c.mu.RUnlock()
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.logger.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// decode unmarshals msg.Data, replying with an error on failure.
func (c *Connection) decode(msg *Message, v interface{}) bool {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError("invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	room, player := c.Binding()
	c.logger.Debug("Received message", "type", msg.Type, "room", room, "player", player)

	switch msg.Type {
	case MessageTypePing:
		c.send1(MessageTypePong, struct{}{})

	case MessageTypeCreateRoom:
		var data CreateRoomData
		if c.decode(msg, &data) {
			c.handleCreateRoom(data)
		}

	case MessageTypeJoinGame:
		var data JoinGameData
		if c.decode(msg, &data) {
			c.handleJoinGame(data)
		}

	case MessageTypeLeaveGame:
		var data RoomRef
		if c.decode(msg, &data) {
			c.handleLeaveGame(data)
		}

	case MessageTypeReconnect:
		var data RoomRef
		if c.decode(msg, &data) {
			c.handleReconnect(data)
		}

	case MessageTypeSendMessage:
		var data SendMessageData
		if c.decode(msg, &data) {
			c.handleSendMessage(data)
		}

	case MessageTypePlayerAction:
		var data PlayerActionData
		if c.decode(msg, &data) {
			c.roomOp(data.RoomRef, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.HandleAction(ctx, ref.RoomCode, ref.PlayerID, data.Action)
				return err
			})
		}

	case MessageTypeStartGame:
		var data RoomRef
		if c.decode(msg, &data) {
			c.roomOp(data, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.StartGame(ctx, ref.RoomCode)
				return err
			})
		}

	case MessageTypeConfirmWinner:
		var data RoomRef
		if c.decode(msg, &data) {
			c.roomOp(data, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.ConfirmWinner(ctx, ref.RoomCode, ref.PlayerID)
				return err
			})
		}

	case MessageTypeUpdateSettings:
		var data UpdateSettingsData
		if c.decode(msg, &data) {
			c.roomOp(data.RoomRef, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.UpdateSettings(ctx, ref.RoomCode, ref.PlayerID, data.Settings)
				return err
			})
		}

	case MessageTypeIncreaseBlind:
		var data IncreaseBlindData
		if c.decode(msg, &data) {
			c.roomOp(data.RoomRef, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.IncreaseBlind(ctx, ref.RoomCode, ref.PlayerID, data.NewBigBlind)
				return err
			})
		}

	case MessageTypeStartNextHand:
		var data RoomRef
		if c.decode(msg, &data) {
			c.roomOp(data, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.StartNextHand(ctx, ref.RoomCode, ref.PlayerID)
				return err
			})
		}

	case MessageTypeResetToSettings:
		var data RoomRef
		if c.decode(msg, &data) {
			c.roomOp(data, func(ctx context.Context, ref RoomRef) error {
				_, err := c.server.manager.ResetToSettings(ctx, ref.RoomCode, ref.PlayerID)
				return err
			})
		}

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// roomOp runs a state-changing request. Success needs no reply: the new
// snapshot reaches every connection in the room through the publisher.
func (c *Connection) roomOp(ref RoomRef, op func(context.Context, RoomRef) error) {
	ref, err := c.resolve(ref)
	if err != nil {
		c.replyError(err)
		return
	}
	err = op(c.ctx, ref)
	if !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, game.ErrPlayerNotFound) {
		c.claim(ref.RoomCode, ref.PlayerID)
	}
	c.replyError(err)
}

// replyError reports a failed request to this connection only. Ignored
// actions get no reply.
func (c *Connection) replyError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, game.ErrIgnored):
		c.logger.Debug("Action ignored", "error", err)
	default:
		c.logger.Warn("Request rejected", "error", err)
		c.sendError(errorCode(err), err.Error())
	}
}

// send1 builds and queues a single message.
func (c *Connection) send1(typ MessageType, data interface{}) {
	msg, err := NewMessage(typ, data, c.server.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", typ, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.send1(MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	state, err := c.server.manager.CreateRoom(c.ctx, data.RoomCode, data.RoomOptions)
	if err != nil {
		c.replyError(err)
		return
	}
	c.send1(MessageTypeRoomCreated, RoomCreatedData{RoomCode: state.RoomCode, State: state})
}

func (c *Connection) handleJoinGame(data JoinGameData) {
	if data.RoomCode == "" || data.PlayerName == "" {
		c.sendError("invalid_message", "roomCode and playerName are required")
		return
	}
	if _, player := c.Binding(); player != "" {
		c.replyError(ErrForbidden)
		return
	}
	if data.PlayerID == "" {
		data.PlayerID = uuid.NewString()
	}
	c.logger.Info("Join request", "room", data.RoomCode, "player", data.PlayerID, "name", data.PlayerName)

	state, err := c.server.manager.AddPlayer(c.ctx, data.RoomCode, data.PlayerID, data.PlayerName)
	if err != nil {
		c.replyError(err)
		return
	}
	c.bind(data.RoomCode, data.PlayerID)
	c.send1(MessageTypeGameState, state)
	c.server.broadcast(data.RoomCode, MessageTypePlayerJoined, PlayerJoinedData{
		PlayerID:   data.PlayerID,
		PlayerName: data.PlayerName,
	})
}

func (c *Connection) handleLeaveGame(data RoomRef) {
	ref, err := c.resolve(data)
	if err != nil {
		c.replyError(err)
		return
	}
	c.logger.Info("Leave request", "room", ref.RoomCode, "player", ref.PlayerID)

	if _, err := c.server.manager.RemovePlayer(c.ctx, ref.RoomCode, ref.PlayerID); err != nil {
		c.replyError(err)
		return
	}
	c.server.broadcast(ref.RoomCode, MessageTypePlayerLeft, PlayerLeftData{PlayerID: ref.PlayerID})
	c.bind("", "")
}

// handleReconnect rebinds the connection and replies with the current
// snapshot. It never changes the room.
func (c *Connection) handleReconnect(data RoomRef) {
	if data.RoomCode == "" || data.PlayerID == "" {
		c.sendError("invalid_message", "roomCode and playerId are required")
		return
	}
	if room, player := c.Binding(); player != "" && (room != data.RoomCode || player != data.PlayerID) {
		c.replyError(ErrForbidden)
		return
	}
	state, err := c.server.manager.Snapshot(c.ctx, data.RoomCode)
	if err != nil {
		c.replyError(err)
		return
	}
	if state.Player(data.PlayerID) == nil {
		c.replyError(game.ErrPlayerNotFound)
		return
	}
	c.bind(data.RoomCode, data.PlayerID)
	c.logger.Info("Player reconnected", "room", data.RoomCode, "player", data.PlayerID)
	c.send1(MessageTypeGameState, state)
}

func (c *Connection) handleSendMessage(data SendMessageData) {
	ref, err := c.resolve(data.RoomRef)
	if err != nil {
		c.replyError(err)
		return
	}
	if data.Message == "" || len(data.Message) > maxChatLength {
		c.sendError("invalid_message", "Chat messages must be 1 to 500 bytes")
		return
	}
	name := data.PlayerName
	if state, err := c.server.manager.Snapshot(c.ctx, ref.RoomCode); err == nil {
		if p := state.Player(ref.PlayerID); p != nil {
			name = p.Name
		}
	}

	c.server.broadcast(ref.RoomCode, MessageTypeChatMessage, ChatMessageData{
		ID:         uuid.NewString(),
		PlayerID:   ref.PlayerID,
		PlayerName: name,
		Message:    data.Message,
		Timestamp:  c.server.clock.Now().UnixMilli(),
	})
}
