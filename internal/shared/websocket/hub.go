package websocket

import (
	"context"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Hub keeps the client registry and handles message broadcasting.
// Clients are grouped by the room code they joined; a freshly connected
// client belongs to no room until JoinRoom is called for it.
type Hub struct {
	// Registered clients grouped by room code. The empty string group
	// holds clients that have not joined a room yet.
	rooms map[string]map[*Client]bool
	// Outbound messages addressed to one room.
	broadcast chan *Message
	// Register requests from new connections.
	register chan *Client
	// Unregister requests from closing connections.
	unregister chan *Client
	// Room membership changes.
	join chan *joinRequest
	// InboundMessages is listened to by module-specific handlers
	// (the auction handler).
	InboundMessages chan *ClientMessage
	// Disconnects delivers clients whose connection closed so handlers
	// can clean up their room state.
	Disconnects chan *Client
}

// Client represents one websocket connection.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send chan []byte
	// Unique identifier for the connection.
	ID string

	// room is the code of the room this client joined, managed
	// exclusively by the hub goroutine.
	room string
}

// Message is an outbound payload addressed to every client in a room.
type Message struct {
	Room string
	Data []byte
}

// ClientMessage wraps an inbound payload with the client that sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

type joinRequest struct {
	client *Client
	room   string
}

func NewHub() *Hub {
	return &Hub{
		rooms:           make(map[string]map[*Client]bool),
		broadcast:       make(chan *Message, 64),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		join:            make(chan *joinRequest),
		InboundMessages: make(chan *ClientMessage, 64),
		Disconnects:     make(chan *Client, 16),
	}
}

// Run starts the hub loop. All membership state is owned by this
// goroutine, so no locking is needed around the rooms map.
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Websocket hub shutting down")
			return

		case client := <-h.register:
			h.addToRoom(client, "")
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("remote_addr", client.Conn.RemoteAddr().String()),
			)

		case client := <-h.unregister:
			if clients, ok := h.rooms[client.room]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if client.room != "" && len(clients) == 0 {
						delete(h.rooms, client.room)
						log.Info("Room group removed as empty", zap.String("room", client.room))
					}
					log.Info("Client unregistered",
						zap.String("clientID", client.ID),
						zap.String("room", client.room),
					)
					// Let the auction handler clean up team state.
					select {
					case h.Disconnects <- client:
					default:
						log.Error("Disconnects channel full, dropping notification",
							zap.String("clientID", client.ID))
					}
				}
			}

		case req := <-h.join:
			h.moveToRoom(req.client, req.room)

		case message := <-h.broadcast:
			clients, ok := h.rooms[message.Room]
			if !ok {
				continue
			}
			log.Debug("Broadcasting message to room",
				zap.String("room", message.Room),
				zap.Int("clients", len(clients)),
			)
			for client := range clients {
				select {
				case client.Send <- message.Data:
				default:
					// Client cannot keep up, probably gone.
					close(client.Send)
					delete(clients, client)
					log.Warn("Failed to send message to client, dropping it",
						zap.String("clientID", client.ID),
						zap.String("room", message.Room),
					)
				}
			}
		}
	}
}

func (h *Hub) addToRoom(client *Client, room string) {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.room = room
}

func (h *Hub) moveToRoom(client *Client, room string) {
	if clients, ok := h.rooms[client.room]; ok {
		delete(clients, client)
		if client.room != "" && len(clients) == 0 {
			delete(h.rooms, client.room)
		}
	}
	h.addToRoom(client, room)
	log.Debug("Client joined room group",
		zap.String("clientID", client.ID),
		zap.String("room", room),
	)
}

// RegisterClient queues a new client for registration.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID))
		_ = client.Conn.Close()
	}
}

// UnregisterClient queues a client for removal.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID))
	}
}

// JoinRoom moves a client into a room's broadcast group.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.join <- &joinRequest{client: client, room: room}
}

// BroadcastToRoom sends data to every client currently in the room.
func (h *Hub) BroadcastToRoom(room string, data []byte) {
	select {
	case h.broadcast <- &Message{Room: room, Data: data}:
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("room", room))
	}
}

// SendToClient delivers data to a single client, dropping it if the
// client's buffer is full. The hub goroutine may close Send while this
// runs on the handler goroutine; the recover turns that race into a
// dropped message instead of a panic.
func (h *Hub) SendToClient(client *Client, data []byte) {
	defer func() {
		if recover() != nil {
			log.Warn("Client send channel closed, message dropped",
				zap.String("clientID", client.ID))
		}
	}()
	select {
	case client.Send <- data:
	default:
		log.Warn("Client send channel full, message dropped",
			zap.String("clientID", client.ID))
	}
}

// ReadPump reads messages from the websocket connection and forwards
// them to the hub's inbound channel. Must run in the connection's own
// goroutine; it returns when the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client", zap.String("clientID", c.ID))
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("Websocket read error",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			} else {
				log.Info("Websocket connection closed by peer",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			break
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub inbound channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.ByteString("message", message),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// One goroutine per connection; it is the connection's only writer.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("WritePump stopped for client", zap.String("clientID", c.ID))
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err != nil {
				log.Error("Failed to send close control message",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
