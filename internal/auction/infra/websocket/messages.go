package websocket

import (
	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
)

// MessageType identifies a websocket message.
type MessageType string

// Client -> server.
const (
	MessageTypeCreateRoom   MessageType = "create-room"
	MessageTypeJoinRoom     MessageType = "join-room"
	MessageTypeStartAuction MessageType = "start-auction"
	MessageTypeSyncPool     MessageType = "sync-auction-pool"
	MessageTypeStartLot     MessageType = "start-lot"
	MessageTypePlaceBid     MessageType = "place-bid"
	MessageTypeFinalizeLot  MessageType = "finalize-lot"
	MessageTypeLeaveRoom    MessageType = "leave-room"
)

// Server -> client.
const (
	MessageTypeRoomCreated        MessageType = "room-created"
	MessageTypeRoomUpdated        MessageType = "room-updated"
	MessageTypeJoinedRoom         MessageType = "joined-room"
	MessageTypeJoinError          MessageType = "join-error"
	MessageTypeBidError           MessageType = "bid-error"
	MessageTypeError              MessageType = "error"
	MessageTypeAuctionStarted     MessageType = "auction-started"
	MessageTypePoolSynced         MessageType = "auction-pool-synced"
	MessageTypeLotStarted         MessageType = "lot-started"
	MessageTypeBidPlaced          MessageType = "bid-placed"
	MessageTypeLotFinalized       MessageType = "lot-finalized"
	MessageTypeAuctionComplete    MessageType = "auction-complete"
	MessageTypeCoordinatorChanged MessageType = "coordinator-changed"
)

// BaseMessage is the envelope every message shares; Type selects the
// payload shape.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// TeamDTO is the wire shape of a team.
type TeamDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Purse     float64          `json:"purse"`
	Players   []catalog.Player `json:"players"`
	Connected bool             `json:"connected"`
}

func teamDTOs(teams []domain.Team) []TeamDTO {
	out := make([]TeamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamDTO{
			ID:        t.ID.String(),
			Name:      t.Name,
			Purse:     t.Purse,
			Players:   t.Squad,
			Connected: t.Connected,
		})
	}
	return out
}

// OutcomeDTO is the wire shape of a finalized lot.
type OutcomeDTO struct {
	Status   string         `json:"status"`
	Lot      catalog.Player `json:"lot"`
	TeamID   string         `json:"teamId,omitempty"`
	TeamName string         `json:"teamName,omitempty"`
	Price    float64        `json:"price,omitempty"`
}

// Inbound payloads.

type JoinRoomMessage struct {
	BaseMessage
	Payload struct {
		RoomCode string `json:"roomCode"`
		TeamName string `json:"teamName"`
	} `json:"payload"`
}

// RoomScopedMessage covers every client message whose payload is just
// the room code (start-auction, sync-auction-pool, start-lot,
// finalize-lot, leave-room).
type RoomScopedMessage struct {
	BaseMessage
	Payload struct {
		RoomCode string `json:"roomCode"`
	} `json:"payload"`
}

type PlaceBidMessage struct {
	BaseMessage
	Payload struct {
		RoomCode string `json:"roomCode"`
		// BidAmount 0 (or omitted) requests the minimum auto-bid.
		BidAmount float64 `json:"bidAmount"`
	} `json:"payload"`
}

// Outbound payloads. Deadlines travel as unix-millisecond timestamps.

type RoomCreatedMessage struct {
	BaseMessage
	Payload struct {
		RoomCode string `json:"roomCode"`
	} `json:"payload"`
}

type RoomUpdatedMessage struct {
	BaseMessage
	Payload struct {
		Teams []TeamDTO `json:"teams"`
	} `json:"payload"`
}

type JoinedRoomMessage struct {
	BaseMessage
	Payload struct {
		RoomCode      string `json:"roomCode"`
		TeamID        string `json:"teamId"`
		IsCoordinator bool   `json:"isCoordinator"`
	} `json:"payload"`
}

// ErrorMessage backs join-error, bid-error and error alike.
type ErrorMessage struct {
	BaseMessage
	Payload struct {
		Message string `json:"message"`
	} `json:"payload"`
}

type AuctionStartedMessage struct {
	BaseMessage
	Payload struct {
		NumTeams int            `json:"numTeams"`
		Quota    map[string]int `json:"quota"`
	} `json:"payload"`
}

type PoolSyncedMessage struct {
	BaseMessage
	Payload struct {
		Pool []catalog.Player `json:"pool"`
	} `json:"payload"`
}

type LotStartedMessage struct {
	BaseMessage
	Payload struct {
		Lot        catalog.Player `json:"lot"`
		CurrentBid float64        `json:"currentBid"`
		Deadline   int64          `json:"deadline"`
	} `json:"payload"`
}

type BidPlacedMessage struct {
	BaseMessage
	Payload struct {
		TeamID    string  `json:"teamId"`
		TeamName  string  `json:"teamName"`
		BidAmount float64 `json:"bidAmount"`
		Deadline  int64   `json:"deadline"`
	} `json:"payload"`
}

type LotFinalizedMessage struct {
	BaseMessage
	Payload struct {
		Outcome    OutcomeDTO `json:"outcome"`
		Teams      []TeamDTO  `json:"teams"`
		Cursor     int        `json:"cursor"`
		PoolLength int        `json:"poolLength"`
	} `json:"payload"`
}

type AuctionCompleteMessage struct {
	BaseMessage
	Payload struct {
		Teams []TeamDTO `json:"teams"`
	} `json:"payload"`
}

type CoordinatorChangedMessage struct {
	BaseMessage
	Payload struct {
		TeamID   string `json:"teamId"`
		TeamName string `json:"teamName"`
	} `json:"payload"`
}
