package application

import (
	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
)

// Notifier publishes room-wide events to every participant. The
// websocket infra implements it; broadcasts are the only way
// non-coordinator participants learn the auction advanced.
type Notifier interface {
	RoomUpdated(code string, teams []domain.Team)
	AuctionStarted(code string, numTeams int, quota domain.Quota)
	PoolSynced(code string, pool []catalog.Player)
	LotStarted(code string, opened domain.LotOpened)
	BidPlaced(code string, bid domain.BidAccepted)
	LotFinalized(code string, result domain.FinalizeResult)
	AuctionComplete(code string, teams []domain.Team)
	CoordinatorChanged(code string, team domain.Team)
}
