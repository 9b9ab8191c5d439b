package domain

import (
	"sync"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// RoomState is the lifecycle of one auction session.
type RoomState string

const (
	// StateOpen accepts joins; no auction yet.
	StateOpen RoomState = "open"
	// StateRunning has a fixed pool and lots being auctioned.
	StateRunning RoomState = "running"
	// StateComplete is terminal; the cursor reached the pool length.
	StateComplete RoomState = "complete"
)

// OutcomeStatus says how a finalized lot ended.
type OutcomeStatus string

const (
	OutcomeSold   OutcomeStatus = "sold"
	OutcomeUnsold OutcomeStatus = "unsold"
)

// LotOutcome is the result of one finalized round. An unsold lot is
// dropped permanently; it does not return to the pool.
type LotOutcome struct {
	Status   OutcomeStatus
	Lot      catalog.Player
	TeamID   *uuid.UUID
	TeamName string
	Price    float64
}

// LotOpened describes a freshly opened round.
type LotOpened struct {
	Lot        catalog.Player
	CurrentBid float64
	Deadline   time.Time
}

// BidAccepted describes an accepted bid.
type BidAccepted struct {
	TeamID   uuid.UUID
	TeamName string
	Amount   float64
	Deadline time.Time
}

// FinalizeResult is everything a finalize broadcast needs, captured
// atomically under the room mutex.
type FinalizeResult struct {
	Outcome    LotOutcome
	Teams      []Team
	Cursor     int
	PoolLength int
	Complete   bool
}

// DisconnectResult describes what changed when a connection left.
type DisconnectResult struct {
	RosterChanged bool
	Teams         []Team
	// Promoted is set when the coordinator role moved to another team.
	Promoted *Team
}

// Room is one auction session: roster, pool, cursor and the current
// bidding round. Every state-changing operation takes the room mutex,
// so operations on one room are applied as atomic, serialized steps;
// independent rooms never share state.
type Room struct {
	mu sync.Mutex

	Code            string
	coordinatorConn string
	state           RoomState
	teams           []*Team
	quota           Quota
	pool            []catalog.Player
	cursor          int
	round           *Round
	results         []LotOutcome
	lastActivity    time.Time
	// nextLotAt schedules the next lot opening after the inter-lot delay.
	nextLotAt time.Time
}

// NewRoom creates an empty room coordinated by the creating connection.
// The coordinator must still join as a team to bid.
func NewRoom(code, coordinatorConn string, now time.Time) *Room {
	return &Room{
		Code:            code,
		coordinatorConn: coordinatorConn,
		state:           StateOpen,
		teams:           []*Team{},
		lastActivity:    now,
	}
}

// Join adds a team for connID. Rejected once the auction started, when
// the display name collides, or when the connection already holds a
// team (duplicate joins from retries are idempotently refused).
func (r *Room) Join(connID, name string, now time.Time) (Team, []Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	if r.state != StateOpen {
		return Team{}, nil, ErrAuctionStarted
	}
	for _, t := range r.teams {
		if t.Name == name {
			return Team{}, nil, ErrNameTaken
		}
		if t.ConnID == connID {
			return Team{}, nil, ErrAlreadyJoined
		}
	}

	team := newTeam(name, connID)
	r.teams = append(r.teams, team)
	log.Info("Team joined room",
		zap.String("room", r.Code),
		zap.String("teamID", team.ID.String()),
		zap.String("team", name),
		zap.Int("teams", len(r.teams)),
	)
	return team.snapshot(), r.teamsSnapshotLocked(), nil
}

// Start moves the room Open -> Running. Coordinator-only, 2-6 teams.
// build runs under the room mutex with the final team count so the
// roster cannot change between quota computation and pool construction.
func (r *Room) Start(connID string, now time.Time, build func(numTeams int) (Quota, []catalog.Player)) (Quota, []catalog.Player, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	if connID != r.coordinatorConn {
		return nil, nil, 0, ErrNotCoordinator
	}
	if r.state != StateOpen {
		return nil, nil, 0, ErrAuctionStarted
	}
	numTeams := len(r.teams)
	if numTeams < MinTeams || numTeams > MaxTeams {
		return nil, nil, 0, ErrTeamCount
	}

	r.quota, r.pool = build(numTeams)
	r.state = StateRunning
	r.cursor = 0
	r.nextLotAt = now.Add(NextLotDelay)

	log.Info("Auction started",
		zap.String("room", r.Code),
		zap.Int("teams", numTeams),
		zap.Int("poolLength", len(r.pool)),
	)
	return r.quota, append([]catalog.Player(nil), r.pool...), numTeams, nil
}

// OpenNextLot consumes the pool entry at the cursor into a new round.
// connID "" is the room's own scheduler; anyone else must be the
// coordinator. A request while a round is active is rejected, which
// prevents double-draws.
func (r *Room) OpenNextLot(connID string, now time.Time) (LotOpened, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	if connID != "" && connID != r.coordinatorConn {
		return LotOpened{}, ErrNotCoordinator
	}
	if r.state != StateRunning {
		return LotOpened{}, ErrAuctionNotStarted
	}
	if r.round != nil {
		return LotOpened{}, ErrRoundActive
	}
	if r.cursor >= len(r.pool) {
		return LotOpened{}, ErrPoolExhausted
	}

	r.round = newRound(r.pool[r.cursor], now)
	r.nextLotAt = time.Time{}

	log.Info("Lot opened",
		zap.String("room", r.Code),
		zap.String("lot", r.round.Lot.ID),
		zap.Float64("baseValue", r.round.Lot.BaseValue),
		zap.Time("deadline", r.round.Deadline),
	)
	return LotOpened{
		Lot:        r.round.Lot,
		CurrentBid: r.round.CurrentBid,
		Deadline:   r.round.Deadline,
	}, nil
}

// PlaceBid validates and applies a bid from connID's team. amount 0
// requests the minimum auto-bid. Bids are applied in the order this
// method is entered; a "simultaneous" second bid is validated against
// the already-updated highest bid.
func (r *Room) PlaceBid(connID string, amount float64, now time.Time) (BidAccepted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	if r.round == nil {
		return BidAccepted{}, ErrNoActiveRound
	}
	team := r.teamByConnLocked(connID)
	if team == nil {
		return BidAccepted{}, ErrTeamNotFound
	}

	minNext := r.round.minNextBid()
	if amount == 0 {
		amount = minNext
	}
	amount = RoundCR(amount)
	if amount < minNext {
		log.Warn("Bid rejected: amount too low",
			zap.String("room", r.Code),
			zap.String("team", team.Name),
			zap.Float64("amount", amount),
			zap.Float64("minNext", minNext),
		)
		return BidAccepted{}, ErrBidTooLow
	}
	if amount > team.Purse {
		log.Warn("Bid rejected: exceeds purse",
			zap.String("room", r.Code),
			zap.String("team", team.Name),
			zap.Float64("amount", amount),
			zap.Float64("purse", team.Purse),
		)
		return BidAccepted{}, ErrBidExceedsPurse
	}

	r.round.accept(team.ID, amount, now)
	log.Info("Bid accepted",
		zap.String("room", r.Code),
		zap.String("team", team.Name),
		zap.Float64("amount", amount),
		zap.Time("deadline", r.round.Deadline),
	)
	return BidAccepted{
		TeamID:   team.ID,
		TeamName: team.Name,
		Amount:   amount,
		Deadline: r.round.Deadline,
	}, nil
}

// Finalize closes the active round: unsold with no leader, otherwise
// sold to the leader, whose purse is decremented (floored at zero as a
// defensive clamp; the purse ceiling at bid time keeps it unreachable).
// The outcome, updated teams and new cursor are captured in one result
// so callers broadcast them atomically. Finalizing with no active round
// returns ErrNoActiveRound, which makes expiry-driven finalization
// idempotent.
func (r *Room) Finalize(connID string, now time.Time) (FinalizeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	if connID != "" && connID != r.coordinatorConn {
		return FinalizeResult{}, ErrNotCoordinator
	}
	if r.round == nil {
		return FinalizeResult{}, ErrNoActiveRound
	}

	outcome := LotOutcome{Status: OutcomeUnsold, Lot: r.round.Lot}
	if r.round.LeaderID != nil {
		if team := r.teamByIDLocked(*r.round.LeaderID); team != nil {
			team.Squad = append(team.Squad, r.round.Lot)
			team.Purse = RoundCR(team.Purse - r.round.CurrentBid)
			if team.Purse < 0 {
				team.Purse = 0
			}
			id := team.ID
			outcome = LotOutcome{
				Status:   OutcomeSold,
				Lot:      r.round.Lot,
				TeamID:   &id,
				TeamName: team.Name,
				Price:    r.round.CurrentBid,
			}
			r.results = append(r.results, outcome)
		}
	}

	r.round = nil
	r.cursor++
	complete := r.cursor >= len(r.pool)
	if complete {
		r.state = StateComplete
	} else {
		r.nextLotAt = now.Add(NextLotDelay)
	}

	log.Info("Lot finalized",
		zap.String("room", r.Code),
		zap.String("lot", outcome.Lot.ID),
		zap.String("status", string(outcome.Status)),
		zap.Int("cursor", r.cursor),
		zap.Bool("complete", complete),
	)
	return FinalizeResult{
		Outcome:    outcome,
		Teams:      r.teamsSnapshotLocked(),
		Cursor:     r.cursor,
		PoolLength: len(r.pool),
		Complete:   complete,
	}, nil
}

// Disconnect handles a connection dropping. While the room is Open the
// team leaves the roster; during a running auction it stays (its
// leading bid, if any, still wins at finalize). A departing coordinator
// hands the role to the longest-joined team that is still connected.
func (r *Room) Disconnect(connID string, now time.Time) DisconnectResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now

	var res DisconnectResult
	for i, t := range r.teams {
		if t.ConnID != connID {
			continue
		}
		if r.state == StateOpen {
			r.teams = append(r.teams[:i], r.teams[i+1:]...)
		} else {
			t.Connected = false
		}
		res.RosterChanged = true
		break
	}

	if connID == r.coordinatorConn {
		r.coordinatorConn = ""
		for _, t := range r.teams {
			if t.Connected {
				r.coordinatorConn = t.ConnID
				promoted := t.snapshot()
				res.Promoted = &promoted
				log.Info("Coordinator reassigned",
					zap.String("room", r.Code),
					zap.String("team", t.Name),
				)
				break
			}
		}
	}

	if res.RosterChanged {
		res.Teams = r.teamsSnapshotLocked()
	}
	return res
}

// DeadlineExpired reports whether an open round has passed its deadline.
func (r *Room) DeadlineExpired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round != nil && !now.Before(r.round.Deadline)
}

// NextLotDue reports whether the inter-lot delay elapsed and a lot is
// waiting at the cursor.
func (r *Room) NextLotDue(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateRunning &&
		r.round == nil &&
		!r.nextLotAt.IsZero() &&
		!now.Before(r.nextLotAt) &&
		r.cursor < len(r.pool)
}

// State returns the room's lifecycle state.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsCoordinator reports whether connID currently holds the coordinator role.
func (r *Room) IsCoordinator(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return connID == r.coordinatorConn
}

// Teams returns a snapshot of the roster in join order.
func (r *Room) Teams() []Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamsSnapshotLocked()
}

// Pool returns a copy of the lot sequence.
func (r *Room) Pool() []catalog.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]catalog.Player(nil), r.pool...)
}

// Cursor returns the index of the next lot to open.
func (r *Room) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Results returns the sold outcomes recorded so far.
func (r *Room) Results() []LotOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LotOutcome(nil), r.results...)
}

// LastActivity is when the room last processed any operation; the
// registry reaper uses it to evict idle rooms.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

func (r *Room) teamsSnapshotLocked() []Team {
	teams := make([]Team, 0, len(r.teams))
	for _, t := range r.teams {
		teams = append(teams, t.snapshot())
	}
	return teams
}

func (r *Room) teamByConnLocked(connID string) *Team {
	for _, t := range r.teams {
		if t.ConnID == connID {
			return t
		}
	}
	return nil
}

func (r *Room) teamByIDLocked(id uuid.UUID) *Team {
	for _, t := range r.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}
