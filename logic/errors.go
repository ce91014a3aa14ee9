package logic

import "errors"

var (
	ErrNotEnoughPlayers   = errors.New("at least 3 players are required")
	ErrTopicUnresolved    = errors.New("topic does not resolve to a word list")
	ErrNoActiveMatch      = errors.New("no active match")
	ErrPlayerOutOfRange   = errors.New("player index out of range")
	ErrNoSheriff          = errors.New("no sheriff in this match")
	ErrSheriffAbilityUsed = errors.New("sheriff ability already used")
	ErrSheriffEliminated  = errors.New("sheriff has been eliminated")
	ErrHydrationTimeout   = errors.New("hydration timed out")
)
