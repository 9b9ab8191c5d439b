package application

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type startedEvent struct {
	numTeams int
	quota    domain.Quota
}

// fakeNotifier records every broadcast so tests can assert on them.
type fakeNotifier struct {
	mu                 sync.Mutex
	roomUpdated        [][]domain.Team
	auctionStarted     []startedEvent
	poolSynced         [][]catalog.Player
	lotStarted         []domain.LotOpened
	bidPlaced          []domain.BidAccepted
	lotFinalized       []domain.FinalizeResult
	auctionComplete    [][]domain.Team
	coordinatorChanged []domain.Team
}

func (f *fakeNotifier) RoomUpdated(code string, teams []domain.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomUpdated = append(f.roomUpdated, teams)
}

func (f *fakeNotifier) AuctionStarted(code string, numTeams int, quota domain.Quota) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auctionStarted = append(f.auctionStarted, startedEvent{numTeams: numTeams, quota: quota})
}

func (f *fakeNotifier) PoolSynced(code string, pool []catalog.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poolSynced = append(f.poolSynced, pool)
}

func (f *fakeNotifier) LotStarted(code string, opened domain.LotOpened) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lotStarted = append(f.lotStarted, opened)
}

func (f *fakeNotifier) BidPlaced(code string, bid domain.BidAccepted) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bidPlaced = append(f.bidPlaced, bid)
}

func (f *fakeNotifier) LotFinalized(code string, result domain.FinalizeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lotFinalized = append(f.lotFinalized, result)
}

func (f *fakeNotifier) AuctionComplete(code string, teams []domain.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auctionComplete = append(f.auctionComplete, teams)
}

func (f *fakeNotifier) CoordinatorChanged(code string, team domain.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coordinatorChanged = append(f.coordinatorChanged, team)
}

type testEnv struct {
	svc      *auctionService
	notifier *fakeNotifier
	registry *RoomRegistry
	clock    *clockwork.FakeClock
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	registry := NewRoomRegistry(clock, time.Hour)
	notifier := &fakeNotifier{}
	svc := NewAuctionService(registry, notifier, cat, clock, rand.New(rand.NewSource(42))).(*auctionService)
	// Drive scheduler ticks from the tests instead of a goroutine.
	svc.scheduleRoom = func(context.Context, *domain.Room) {}

	return &testEnv{
		svc:      svc,
		notifier: notifier,
		registry: registry,
		clock:    clock,
		ctx:      context.Background(),
	}
}

// setupRunningRoom creates a room with two teams and a started auction.
func setupRunningRoom(t *testing.T, env *testEnv) (code string, room *domain.Room) {
	t.Helper()
	code, err := env.svc.CreateRoom(env.ctx, "host")
	require.NoError(t, err)

	_, err = env.svc.JoinRoom(env.ctx, "host", code, "Alpha")
	require.NoError(t, err)
	_, err = env.svc.JoinRoom(env.ctx, "c2", code, "Bravo")
	require.NoError(t, err)

	require.NoError(t, env.svc.StartAuction(env.ctx, "host", code))
	room, err = env.registry.Get(code)
	require.NoError(t, err)
	return code, room
}

func TestJoinRoomNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.JoinRoom(env.ctx, "c1", "NOSUCH", "Alpha")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinRoomPublishesRoster(t *testing.T) {
	env := newTestEnv(t)
	code, err := env.svc.CreateRoom(env.ctx, "host")
	require.NoError(t, err)

	res, err := env.svc.JoinRoom(env.ctx, "host", code, "Alpha")
	require.NoError(t, err)
	require.True(t, res.IsCoordinator)

	res, err = env.svc.JoinRoom(env.ctx, "c2", code, "Bravo")
	require.NoError(t, err)
	require.False(t, res.IsCoordinator)

	require.Len(t, env.notifier.roomUpdated, 2)
	require.Len(t, env.notifier.roomUpdated[1], 2)
}

func TestStartAuctionBuildsAuthoritativePool(t *testing.T) {
	env := newTestEnv(t)
	setupRunningRoom(t, env)

	require.Len(t, env.notifier.auctionStarted, 1)
	started := env.notifier.auctionStarted[0]
	require.Equal(t, 2, started.numTeams)
	require.Equal(t, domain.QuotaFor(2), started.quota)

	require.Len(t, env.notifier.poolSynced, 1)
	require.Len(t, env.notifier.poolSynced[0], 25)
}

func TestStartAuctionRejectsNonCoordinator(t *testing.T) {
	env := newTestEnv(t)
	code, err := env.svc.CreateRoom(env.ctx, "host")
	require.NoError(t, err)
	_, err = env.svc.JoinRoom(env.ctx, "host", code, "Alpha")
	require.NoError(t, err)
	_, err = env.svc.JoinRoom(env.ctx, "c2", code, "Bravo")
	require.NoError(t, err)

	err = env.svc.StartAuction(env.ctx, "c2", code)
	require.ErrorIs(t, err, domain.ErrNotCoordinator)
}

func TestResyncPoolCoordinatorOnly(t *testing.T) {
	env := newTestEnv(t)
	code, _ := setupRunningRoom(t, env)

	require.ErrorIs(t, env.svc.ResyncPool(env.ctx, "c2", code), domain.ErrNotCoordinator)

	require.NoError(t, env.svc.ResyncPool(env.ctx, "host", code))
	require.Len(t, env.notifier.poolSynced, 2)
	require.Equal(t, env.notifier.poolSynced[0], env.notifier.poolSynced[1])
}

func TestSchedulerOpensLotAfterDelay(t *testing.T) {
	env := newTestEnv(t)
	_, room := setupRunningRoom(t, env)

	require.False(t, env.svc.tickRoom(room))
	require.Empty(t, env.notifier.lotStarted, "inter-lot delay not elapsed yet")

	env.clock.Advance(domain.NextLotDelay)
	require.False(t, env.svc.tickRoom(room))
	require.Len(t, env.notifier.lotStarted, 1)
	require.Equal(t, env.notifier.poolSynced[0][0], env.notifier.lotStarted[0].Lot)
}

func TestSchedulerFinalizesExpiredRoundOnce(t *testing.T) {
	env := newTestEnv(t)
	_, room := setupRunningRoom(t, env)

	env.clock.Advance(domain.NextLotDelay)
	env.svc.tickRoom(room)
	require.Len(t, env.notifier.lotStarted, 1)

	env.clock.Advance(domain.InitialWindow)
	env.svc.tickRoom(room)
	require.Len(t, env.notifier.lotFinalized, 1)
	require.Equal(t, domain.OutcomeUnsold, env.notifier.lotFinalized[0].Outcome.Status)

	// Deadline already consumed; the next tick must not finalize again.
	env.svc.tickRoom(room)
	require.Len(t, env.notifier.lotFinalized, 1)
	require.Equal(t, 1, room.Cursor())
}

func TestPlaceBidBroadcastsAndExtendsDeadline(t *testing.T) {
	env := newTestEnv(t)
	code, room := setupRunningRoom(t, env)

	env.clock.Advance(domain.NextLotDelay)
	env.svc.tickRoom(room)

	require.NoError(t, env.svc.PlaceBid(env.ctx, "c2", code, 0))
	require.Len(t, env.notifier.bidPlaced, 1)
	bid := env.notifier.bidPlaced[0]
	require.Equal(t, "Bravo", bid.TeamName)
	require.Equal(t, env.clock.Now().Add(domain.PostBidWindow), bid.Deadline)
}

func TestDisconnectPromotesCoordinatorAndEvictsEmptyRoom(t *testing.T) {
	env := newTestEnv(t)
	code, _ := setupRunningRoom(t, env)

	env.svc.Disconnect(env.ctx, "host")
	require.Len(t, env.notifier.coordinatorChanged, 1)
	require.Equal(t, "Bravo", env.notifier.coordinatorChanged[0].Name)
	require.Equal(t, 1, env.registry.Len())

	env.svc.Disconnect(env.ctx, "c2")
	require.Equal(t, 0, env.registry.Len())
	_, err := env.registry.Get(code)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

// TestEndToEndAuction drives a full two-team auction: 25 lots, each
// sold or unsold, moving the cursor from 0 to 25 and the room to
// Complete.
func TestEndToEndAuction(t *testing.T) {
	env := newTestEnv(t)
	code, room := setupRunningRoom(t, env)

	require.Len(t, env.notifier.poolSynced[0], 25)
	require.Equal(t, 0, room.Cursor())

	for i := 0; i < 25; i++ {
		env.clock.Advance(domain.NextLotDelay)
		require.False(t, env.svc.tickRoom(room), "lot %d should open", i)

		if i%2 == 0 {
			// Contested lot: minimum auto-bid, then the coordinator
			// closes the round early.
			require.NoError(t, env.svc.PlaceBid(env.ctx, "c2", code, 0))
			require.NoError(t, env.svc.FinalizeLot(env.ctx, "host", code))
		} else {
			// Nobody bids; the deadline expires and the scheduler
			// finalizes the lot unsold.
			env.clock.Advance(domain.InitialWindow)
			env.svc.tickRoom(room)
		}
		require.Equal(t, i+1, room.Cursor())
	}

	require.Equal(t, domain.StateComplete, room.State())
	require.Len(t, env.notifier.lotFinalized, 25)
	require.Len(t, env.notifier.auctionComplete, 1)
	require.True(t, env.svc.tickRoom(room), "scheduler loop ends once complete")

	sold := 0
	for _, fin := range env.notifier.lotFinalized {
		if fin.Outcome.Status == domain.OutcomeSold {
			sold++
		}
	}
	require.Equal(t, 13, sold)

	// Bravo won every contested lot; its purse shrank and its squad grew.
	var bravo domain.Team
	for _, team := range env.notifier.auctionComplete[0] {
		if team.Name == "Bravo" {
			bravo = team
		}
	}
	require.Len(t, bravo.Squad, 13)
	require.Less(t, bravo.Purse, domain.InitialPurse)
}
