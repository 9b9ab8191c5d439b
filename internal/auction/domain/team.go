package domain

import (
	"github.com/Amilali09/Auction-Simulator/internal/auction/catalog"
	"github.com/google/uuid"
)

// InitialPurse is every team's starting budget, in CR.
const InitialPurse = 100.0

// Team is one participant's in-session identity: a stable ID, a
// room-unique display name, a purse that never goes negative and the
// players it has won so far.
type Team struct {
	ID     uuid.UUID
	Name   string
	ConnID string
	Purse  float64
	Squad  []catalog.Player
	// Connected is false once the team's connection dropped. The team
	// stays on the roster while an auction runs; a leading bid is not
	// retracted on disconnect.
	Connected bool
}

func newTeam(name, connID string) *Team {
	return &Team{
		ID:        uuid.New(),
		Name:      name,
		ConnID:    connID,
		Purse:     InitialPurse,
		Squad:     []catalog.Player{},
		Connected: true,
	}
}

// snapshot returns a copy safe to hand outside the room mutex.
func (t *Team) snapshot() Team {
	snap := *t
	snap.Squad = append([]catalog.Player(nil), t.Squad...)
	return snap
}
