package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// tickInterval is the cadence of the per-room authoritative timer that
// enforces round deadlines and opens queued lots. It runs on the wall
// clock, so a burst of bid messages cannot starve it.
const tickInterval = 250 * time.Millisecond

// JoinResult is what the joining participant gets back.
type JoinResult struct {
	RoomCode      string
	Team          domain.Team
	IsCoordinator bool
}

// AuctionService exposes the room/auction use cases to the transport
// layer. connID identifies the acting connection; authorization
// (coordinator-only operations) is enforced against it.
type AuctionService interface {
	CreateRoom(ctx context.Context, connID string) (string, error)
	JoinRoom(ctx context.Context, connID, code, teamName string) (JoinResult, error)
	StartAuction(ctx context.Context, connID, code string) error
	ResyncPool(ctx context.Context, connID, code string) error
	StartLot(ctx context.Context, connID, code string) error
	PlaceBid(ctx context.Context, connID, code string, amount float64) error
	FinalizeLot(ctx context.Context, connID, code string) error
	Disconnect(ctx context.Context, connID string)
	// RoomCodeByConn reports which room a connection is currently
	// bound to, if any.
	RoomCodeByConn(connID string) (string, bool)
}

type auctionService struct {
	registry *RoomRegistry
	notifier Notifier
	catalog  *catalog.Catalog
	clock    clockwork.Clock

	// rng feeds pool construction; guarded because rand.Rand is not
	// safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand

	// scheduleRoom launches the room's timer loop; tests replace it to
	// drive ticks deterministically.
	scheduleRoom func(ctx context.Context, room *domain.Room)
}

func NewAuctionService(registry *RoomRegistry, notifier Notifier, cat *catalog.Catalog, clock clockwork.Clock, rng *rand.Rand) AuctionService {
	s := &auctionService{
		registry: registry,
		notifier: notifier,
		catalog:  cat,
		clock:    clock,
		rng:      rng,
	}
	s.scheduleRoom = func(ctx context.Context, room *domain.Room) {
		go s.runRoom(ctx, room)
	}
	return s
}

// CreateRoom allocates a room and makes the caller its coordinator.
func (s *auctionService) CreateRoom(ctx context.Context, connID string) (string, error) {
	room := s.registry.Create(connID)
	return room.Code, nil
}

// JoinRoom adds a team to the room and publishes the updated roster.
func (s *auctionService) JoinRoom(ctx context.Context, connID, code, teamName string) (JoinResult, error) {
	room, err := s.registry.Get(code)
	if err != nil {
		return JoinResult{}, err
	}
	team, teams, err := room.Join(connID, teamName, s.clock.Now())
	if err != nil {
		return JoinResult{}, err
	}
	s.registry.Bind(connID, code)
	s.notifier.RoomUpdated(code, teams)
	return JoinResult{
		RoomCode:      code,
		Team:          team,
		IsCoordinator: room.IsCoordinator(connID),
	}, nil
}

// StartAuction builds the quota and pool authoritatively inside this
// process and publishes both, so every client's view of the pool is
// identical, then starts the room's scheduler loop.
func (s *auctionService) StartAuction(ctx context.Context, connID, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	quota, pool, numTeams, err := room.Start(connID, s.clock.Now(), func(n int) (domain.Quota, []catalog.Player) {
		q := domain.QuotaFor(n)
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		return q, domain.BuildPool(s.catalog, q, s.rng)
	})
	if err != nil {
		return err
	}

	s.notifier.AuctionStarted(code, numTeams, quota)
	s.notifier.PoolSynced(code, pool)

	s.scheduleRoom(ctx, room)
	return nil
}

// ResyncPool re-broadcasts the authoritative pool. The server owns pool
// construction, so a coordinator can only ask for a re-send, never push
// its own sequence.
func (s *auctionService) ResyncPool(ctx context.Context, connID, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	if !room.IsCoordinator(connID) {
		return domain.ErrNotCoordinator
	}
	if room.State() == domain.StateOpen {
		return domain.ErrAuctionNotStarted
	}
	s.notifier.PoolSynced(code, room.Pool())
	return nil
}

// StartLot is the coordinator's manual trigger to open the next lot.
func (s *auctionService) StartLot(ctx context.Context, connID, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return s.openLot(room, connID)
}

// PlaceBid validates and applies a bid, then publishes the new round state.
func (s *auctionService) PlaceBid(ctx context.Context, connID, code string, amount float64) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	bid, err := room.PlaceBid(connID, amount, s.clock.Now())
	if err != nil {
		return err
	}
	s.notifier.BidPlaced(code, bid)
	return nil
}

// FinalizeLot is the coordinator's manual trigger to close the active round.
func (s *auctionService) FinalizeLot(ctx context.Context, connID, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return s.finalizeLot(room, connID)
}

// Disconnect routes a dropped connection to its room: roster update,
// coordinator reassignment, and room removal when nobody is left.
func (s *auctionService) Disconnect(ctx context.Context, connID string) {
	room, ok := s.registry.RoomByConn(connID)
	if !ok {
		return
	}
	res := room.Disconnect(connID, s.clock.Now())
	if s.registry.Unbind(connID) {
		// Room is gone with its last connection.
		return
	}
	if res.RosterChanged {
		s.notifier.RoomUpdated(room.Code, res.Teams)
	}
	if res.Promoted != nil {
		s.notifier.CoordinatorChanged(room.Code, *res.Promoted)
	}
}

// RoomCodeByConn reports which room a connection is currently bound to.
func (s *auctionService) RoomCodeByConn(connID string) (string, bool) {
	return s.registry.CodeByConn(connID)
}

// runRoom is the single authoritative timer loop for one room. It
// finalizes rounds whose deadline passed and opens the next lot once
// the inter-lot delay elapsed, until the auction completes or the room
// is evicted. Client-side timers are never authoritative.
func (s *auctionService) runRoom(ctx context.Context, room *domain.Room) {
	ticker := s.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	log.Info("Room scheduler started", zap.String("room", room.Code))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if s.tickRoom(room) {
				log.Info("Room scheduler stopped", zap.String("room", room.Code))
				return
			}
		}
	}
}

// tickRoom performs one scheduler pass; it returns true once the room
// no longer needs the loop.
func (s *auctionService) tickRoom(room *domain.Room) (done bool) {
	if _, err := s.registry.Get(room.Code); err != nil {
		return true
	}
	if room.State() == domain.StateComplete {
		return true
	}

	now := s.clock.Now()
	switch {
	case room.DeadlineExpired(now):
		// Empty connID marks the authoritative in-process caller.
		// Finalize is idempotent: a round already cleared by the
		// coordinator's manual trigger yields ErrNoActiveRound.
		if err := s.finalizeLot(room, ""); err != nil && !errors.Is(err, domain.ErrNoActiveRound) {
			log.Error("Scheduler finalize failed",
				zap.String("room", room.Code),
				zap.Error(err),
			)
		}
	case room.NextLotDue(now):
		if err := s.openLot(room, ""); err != nil && !errors.Is(err, domain.ErrRoundActive) {
			log.Error("Scheduler lot open failed",
				zap.String("room", room.Code),
				zap.Error(err),
			)
		}
	}
	return false
}

func (s *auctionService) openLot(room *domain.Room, connID string) error {
	opened, err := room.OpenNextLot(connID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("open lot in room %s: %w", room.Code, err)
	}
	s.notifier.LotStarted(room.Code, opened)
	return nil
}

func (s *auctionService) finalizeLot(room *domain.Room, connID string) error {
	result, err := room.Finalize(connID, s.clock.Now())
	if err != nil {
		return err
	}
	s.notifier.LotFinalized(room.Code, result)
	if result.Complete {
		s.notifier.AuctionComplete(room.Code, result.Teams)
	}
	return nil
}
