package websocket

import (
	"encoding/json"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
	sharedws "github.com/Amilali09/Auction-Simulator/internal/shared/websocket"
	"go.uber.org/zap"
)

// Publisher implements application.Notifier by serializing room events
// and broadcasting them through the shared hub.
type Publisher struct {
	hub *sharedws.Hub
}

func NewPublisher(hub *sharedws.Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) RoomUpdated(code string, teams []domain.Team) {
	msg := RoomUpdatedMessage{BaseMessage: BaseMessage{Type: MessageTypeRoomUpdated}}
	msg.Payload.Teams = teamDTOs(teams)
	p.broadcast(code, msg)
}

func (p *Publisher) AuctionStarted(code string, numTeams int, quota domain.Quota) {
	msg := AuctionStartedMessage{BaseMessage: BaseMessage{Type: MessageTypeAuctionStarted}}
	msg.Payload.NumTeams = numTeams
	msg.Payload.Quota = make(map[string]int, len(quota))
	for role, n := range quota {
		msg.Payload.Quota[string(role)] = n
	}
	p.broadcast(code, msg)
}

func (p *Publisher) PoolSynced(code string, pool []catalog.Player) {
	msg := PoolSyncedMessage{BaseMessage: BaseMessage{Type: MessageTypePoolSynced}}
	msg.Payload.Pool = pool
	p.broadcast(code, msg)
}

func (p *Publisher) LotStarted(code string, opened domain.LotOpened) {
	msg := LotStartedMessage{BaseMessage: BaseMessage{Type: MessageTypeLotStarted}}
	msg.Payload.Lot = opened.Lot
	msg.Payload.CurrentBid = opened.CurrentBid
	msg.Payload.Deadline = opened.Deadline.UnixMilli()
	p.broadcast(code, msg)
}

func (p *Publisher) BidPlaced(code string, bid domain.BidAccepted) {
	msg := BidPlacedMessage{BaseMessage: BaseMessage{Type: MessageTypeBidPlaced}}
	msg.Payload.TeamID = bid.TeamID.String()
	msg.Payload.TeamName = bid.TeamName
	msg.Payload.BidAmount = bid.Amount
	msg.Payload.Deadline = bid.Deadline.UnixMilli()
	p.broadcast(code, msg)
}

func (p *Publisher) LotFinalized(code string, result domain.FinalizeResult) {
	msg := LotFinalizedMessage{BaseMessage: BaseMessage{Type: MessageTypeLotFinalized}}
	msg.Payload.Outcome = outcomeDTO(result.Outcome)
	msg.Payload.Teams = teamDTOs(result.Teams)
	msg.Payload.Cursor = result.Cursor
	msg.Payload.PoolLength = result.PoolLength
	p.broadcast(code, msg)
}

func (p *Publisher) AuctionComplete(code string, teams []domain.Team) {
	msg := AuctionCompleteMessage{BaseMessage: BaseMessage{Type: MessageTypeAuctionComplete}}
	msg.Payload.Teams = teamDTOs(teams)
	p.broadcast(code, msg)
}

func (p *Publisher) CoordinatorChanged(code string, team domain.Team) {
	msg := CoordinatorChangedMessage{BaseMessage: BaseMessage{Type: MessageTypeCoordinatorChanged}}
	msg.Payload.TeamID = team.ID.String()
	msg.Payload.TeamName = team.Name
	p.broadcast(code, msg)
}

func outcomeDTO(o domain.LotOutcome) OutcomeDTO {
	dto := OutcomeDTO{
		Status:   string(o.Status),
		Lot:      o.Lot,
		TeamName: o.TeamName,
		Price:    o.Price,
	}
	if o.TeamID != nil {
		dto.TeamID = o.TeamID.String()
	}
	return dto
}

func (p *Publisher) broadcast(code string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to marshal broadcast message",
			zap.String("room", code),
			zap.Error(err),
		)
		return
	}
	p.hub.BroadcastToRoom(code, data)
}
