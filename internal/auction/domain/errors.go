package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNameTaken         = errors.New("team name already taken")
	ErrAlreadyJoined     = errors.New("you are already in this room")
	ErrAuctionStarted    = errors.New("auction already started")
	ErrAuctionNotStarted = errors.New("auction has not started")
	ErrNotCoordinator    = errors.New("only the coordinator can do that")
	ErrTeamCount         = errors.New("need 2-6 teams to start")
	ErrRoundActive       = errors.New("a lot is already active")
	ErrNoActiveRound     = errors.New("no active lot")
	ErrPoolExhausted     = errors.New("auction pool exhausted")
	ErrTeamNotFound      = errors.New("team not found")
	ErrBidTooLow         = errors.New("bid amount is too low")
	ErrBidExceedsPurse   = errors.New("bid exceeds remaining purse")
)
