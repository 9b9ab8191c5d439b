package websocket

import (
	"context"
	"encoding/json"

	"github.com/Amilali09/Auction-Simulator/internal/auction/application"
	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	sharedws "github.com/Amilali09/Auction-Simulator/internal/shared/websocket"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler dispatches inbound auction messages from the hub to
// the application layer and answers the acting client directly.
// Broadcasts to the whole room go through the Publisher.
type AuctionWSHandler struct {
	service application.AuctionService
	hub     *sharedws.Hub
}

func NewAuctionWSHandler(service application.AuctionService, hub *sharedws.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		service: service,
		hub:     hub,
	}
}

// ListenForMessages consumes the hub's inbound and disconnect channels.
// Messages are processed inline, not in per-message goroutines: bids
// must be applied in the order they arrive, and the room mutex then
// sees them in that same order.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("Auction handler started listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("Auction handler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			h.processMessage(ctx, msg.Client, msg.Data)
		case client := <-h.hub.Disconnects:
			h.service.Disconnect(ctx, client.ID)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		h.sendError(client, MessageTypeError, "invalid message format")
		return
	}

	switch base.Type {
	case MessageTypeCreateRoom:
		h.handleCreateRoom(ctx, client)
	case MessageTypeJoinRoom:
		h.handleJoinRoom(ctx, client, data)
	case MessageTypeStartAuction:
		h.handleRoomScoped(ctx, client, data, h.service.StartAuction)
	case MessageTypeSyncPool:
		h.handleRoomScoped(ctx, client, data, h.service.ResyncPool)
	case MessageTypeStartLot:
		h.handleRoomScoped(ctx, client, data, h.service.StartLot)
	case MessageTypeFinalizeLot:
		h.handleRoomScoped(ctx, client, data, h.service.FinalizeLot)
	case MessageTypePlaceBid:
		h.handlePlaceBid(ctx, client, data)
	case MessageTypeLeaveRoom:
		h.handleLeaveRoom(ctx, client)
	default:
		h.sendError(client, MessageTypeError, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleCreateRoom(ctx context.Context, client *sharedws.Client) {
	code, err := h.service.CreateRoom(ctx, client.ID)
	if err != nil {
		h.sendError(client, MessageTypeError, err.Error())
		return
	}
	h.hub.JoinRoom(client, code)

	msg := RoomCreatedMessage{BaseMessage: BaseMessage{Type: MessageTypeRoomCreated}}
	msg.Payload.RoomCode = code
	h.send(client, msg)
}

func (h *AuctionWSHandler) handleJoinRoom(ctx context.Context, client *sharedws.Client, data []byte) {
	var msg JoinRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, MessageTypeJoinError, "invalid join message format")
		return
	}
	if msg.Payload.TeamName == "" {
		h.sendError(client, MessageTypeJoinError, "team name is required")
		return
	}

	// Join the broadcast group first so the roster update that the
	// join itself triggers reaches this client too.
	h.hub.JoinRoom(client, msg.Payload.RoomCode)
	res, err := h.service.JoinRoom(ctx, client.ID, msg.Payload.RoomCode, msg.Payload.TeamName)
	if err != nil {
		// A rejection must not change membership: put the client back
		// in whatever room it is actually bound to. A member retrying
		// its own room would otherwise drop out of that room's
		// broadcasts.
		prev, _ := h.service.RoomCodeByConn(client.ID)
		h.hub.JoinRoom(client, prev)
		h.sendError(client, MessageTypeJoinError, err.Error())
		return
	}

	reply := JoinedRoomMessage{BaseMessage: BaseMessage{Type: MessageTypeJoinedRoom}}
	reply.Payload.RoomCode = res.RoomCode
	reply.Payload.TeamID = res.Team.ID.String()
	reply.Payload.IsCoordinator = res.IsCoordinator
	h.send(client, reply)
}

func (h *AuctionWSHandler) handleRoomScoped(ctx context.Context, client *sharedws.Client, data []byte, op func(context.Context, string, string) error) {
	var msg RoomScopedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, MessageTypeError, "invalid message format")
		return
	}
	if err := op(ctx, client.ID, msg.Payload.RoomCode); err != nil {
		h.sendError(client, MessageTypeError, err.Error())
	}
}

func (h *AuctionWSHandler) handlePlaceBid(ctx context.Context, client *sharedws.Client, data []byte) {
	var msg PlaceBidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, MessageTypeBidError, "invalid bid message format")
		return
	}
	if err := h.service.PlaceBid(ctx, client.ID, msg.Payload.RoomCode, msg.Payload.BidAmount); err != nil {
		h.sendError(client, MessageTypeBidError, err.Error())
	}
}

func (h *AuctionWSHandler) handleLeaveRoom(ctx context.Context, client *sharedws.Client) {
	h.service.Disconnect(ctx, client.ID)
	h.hub.JoinRoom(client, "")
}

func (h *AuctionWSHandler) send(client *sharedws.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to marshal reply", zap.Error(err))
		return
	}
	h.hub.SendToClient(client, data)
}

// sendError reports a failure to the acting client only; errors never
// reach the rest of the room.
func (h *AuctionWSHandler) sendError(client *sharedws.Client, t MessageType, message string) {
	msg := ErrorMessage{BaseMessage: BaseMessage{Type: t}}
	msg.Payload.Message = message
	h.send(client, msg)
}
