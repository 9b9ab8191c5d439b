package application

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Amilali09/Auction-Simulator/internal/auction/domain"
	"github.com/Amilali09/Auction-Simulator/internal/shared/logger"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	reaperInterval = time.Minute
)

// RoomRegistry is the process-wide table of live rooms, keyed by room
// code, with a connection index so a disconnect can be routed to its
// room. Rooms are removed when their last connection leaves or when the
// reaper finds them idle past the TTL; the table never grows unbounded.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	// conns maps a connection ID to the room code it belongs to.
	conns map[string]string

	clock clockwork.Clock
	ttl   time.Duration
	rng   *rand.Rand
}

func NewRoomRegistry(clock clockwork.Clock, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*domain.Room),
		conns: make(map[string]string),
		clock: clock,
		ttl:   ttl,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a room with a collision-checked code. The creating
// connection becomes its coordinator and is bound to it; a binding to a
// previous room is dropped first, so a room abandoned this way does not
// linger until the reaper.
func (reg *RoomRegistry) Create(connID string) *domain.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.unbindLocked(connID)

	code := reg.generateCodeLocked()
	room := domain.NewRoom(code, connID, reg.clock.Now())
	reg.rooms[code] = room
	reg.conns[connID] = code

	log.Info("Room created",
		zap.String("room", code),
		zap.String("coordinatorConn", connID),
		zap.Int("rooms", len(reg.rooms)),
	)
	return room
}

// Get looks a room up by code.
func (reg *RoomRegistry) Get(code string) (*domain.Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Bind records that connID belongs to the room with the given code.
func (reg *RoomRegistry) Bind(connID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.conns[connID] = code
}

// CodeByConn resolves the room code a connection is bound to.
func (reg *RoomRegistry) CodeByConn(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	code, ok := reg.conns[connID]
	return code, ok
}

// RoomByConn resolves the room a connection is bound to.
func (reg *RoomRegistry) RoomByConn(connID string) (*domain.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	code, ok := reg.conns[connID]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[code]
	return room, ok
}

// Unbind drops a connection. When it was the room's last connection the
// room itself is removed; the returned flag reports that.
func (reg *RoomRegistry) Unbind(connID string) (lastInRoom bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.unbindLocked(connID)
}

func (reg *RoomRegistry) unbindLocked(connID string) (lastInRoom bool) {
	code, ok := reg.conns[connID]
	if !ok {
		return false
	}
	delete(reg.conns, connID)
	for _, c := range reg.conns {
		if c == code {
			return false
		}
	}
	delete(reg.rooms, code)
	log.Info("Room removed, last connection left",
		zap.String("room", code),
		zap.Int("rooms", len(reg.rooms)),
	)
	return true
}

// Len is the number of live rooms.
func (reg *RoomRegistry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// StartReaper runs a background sweep that evicts rooms idle longer
// than the TTL, with their stale connection bindings.
func (reg *RoomRegistry) StartReaper(ctx context.Context) {
	go func() {
		ticker := reg.clock.NewTicker(reaperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				reg.reap()
			}
		}
	}()
}

func (reg *RoomRegistry) reap() {
	now := reg.clock.Now()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, room := range reg.rooms {
		if now.Sub(room.LastActivity()) < reg.ttl {
			continue
		}
		delete(reg.rooms, code)
		for connID, c := range reg.conns {
			if c == code {
				delete(reg.conns, connID)
			}
		}
		log.Info("Room reaped after inactivity",
			zap.String("room", code),
			zap.Duration("ttl", reg.ttl),
		)
	}
}

func (reg *RoomRegistry) generateCodeLocked() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}
