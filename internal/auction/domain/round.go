package domain

import (
	"math"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/google/uuid"
)

// Timer rules for one bidding round.
const (
	// InitialWindow is the countdown before the first bid.
	InitialWindow = 30 * time.Second
	// PostBidWindow replaces the countdown after each accepted bid.
	PostBidWindow = 45 * time.Second
	// HighBidWindow replaces it instead once a bid reaches HighBidThreshold.
	HighBidWindow = 60 * time.Second
	// HighBidThreshold is the bid amount, in CR, that earns the longer window.
	HighBidThreshold = 10.0
	// NextLotDelay is the pause between a finalized lot and the next one
	// opening, so clients can transition.
	NextLotDelay = time.Second
)

// IncrementFor returns the minimum bid increment for the current
// highest bid.
func IncrementFor(currentBid float64) float64 {
	switch {
	case currentBid < 2.0:
		return 0.10
	case currentBid < 5.0:
		return 0.20
	default:
		return 0.25
	}
}

// RoundCR rounds a CR amount to two decimal places. All bid amounts go
// through this before comparison or storage.
func RoundCR(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round is the live bidding state for exactly one lot. Within a round
// CurrentBid is monotonically non-decreasing and the deadline is in the
// future while the round is open. Access is serialized by the owning
// Room's mutex.
type Round struct {
	Lot        catalog.Player
	CurrentBid float64
	// LeaderID is nil until the first bid is accepted.
	LeaderID *uuid.UUID
	Deadline time.Time
}

func newRound(lot catalog.Player, now time.Time) *Round {
	return &Round{
		Lot:        lot,
		CurrentBid: lot.BaseValue,
		Deadline:   now.Add(InitialWindow),
	}
}

// minNextBid is the lowest acceptable next amount for this round.
func (r *Round) minNextBid() float64 {
	return RoundCR(r.CurrentBid + IncrementFor(r.CurrentBid))
}

// accept records an already-validated bid and resets the deadline.
func (r *Round) accept(teamID uuid.UUID, amount float64, now time.Time) {
	r.CurrentBid = amount
	r.LeaderID = &teamID
	if amount >= HighBidThreshold {
		r.Deadline = now.Add(HighBidWindow)
	} else {
		r.Deadline = now.Add(PostBidWindow)
	}
}
