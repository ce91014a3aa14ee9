package util

import (
	"github.com/aiwolfdial/imposter-server/model"
)

const (
	MinPlayers            = 3
	SpecialRoleMinPlayers = 4
)

func CountAlive(alive []bool) int {
	var count int
	for _, a := range alive {
		if a {
			count++
		}
	}
	return count
}

// CalcOutcome evaluates an elimination of idx. It must be called after
// alive[idx] has been cleared. The checks run in priority order.
func CalcOutcome(session *model.SessionState, idx int) model.Outcome {
	if idx == session.ImposterIdx {
		return model.O_CIVILIANS
	}
	if session.JesterIdx != nil && idx == *session.JesterIdx {
		return model.O_JESTER
	}
	if CountAlive(session.Alive) == 2 && session.ImposterIdx >= 0 && session.Alive[session.ImposterIdx] {
		return model.O_IMPOSTER
	}
	return model.O_CONTINUE
}

// PickRandom returns one element of items using a single draw from rnd.
func PickRandom[T any](rnd Random, items []T) T {
	return items[rnd.IntN(len(items))]
}

// PickRandomIndexExcept draws uniformly from [0, n) minus excluded. It returns
// -1 when every index is excluded.
func PickRandomIndexExcept(rnd Random, n int, excluded ...int) int {
	candidates := make([]int, 0, n)
	for i := range n {
		skip := false
		for _, e := range excluded {
			if i == e {
				skip = true
				break
			}
		}
		if !skip {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	return PickRandom(rnd, candidates)
}

// AssignRoles builds the role slice for playerCount players. Jester and sheriff
// are only handed out when enabled and the roster has SpecialRoleMinPlayers.
func AssignRoles(rnd Random, playerCount int, enableJester, enableSheriff bool) []model.Role {
	roles := make([]model.Role, playerCount)
	for i := range roles {
		roles[i] = model.R_CIVILIAN
	}
	if playerCount == 0 {
		return roles
	}
	imposterIdx := rnd.IntN(playerCount)
	roles[imposterIdx] = model.R_IMPOSTER
	if playerCount < SpecialRoleMinPlayers {
		return roles
	}
	excluded := []int{imposterIdx}
	if enableJester {
		if idx := PickRandomIndexExcept(rnd, playerCount, excluded...); idx >= 0 {
			roles[idx] = model.R_JESTER
			excluded = append(excluded, idx)
		}
	}
	if enableSheriff {
		if idx := PickRandomIndexExcept(rnd, playerCount, excluded...); idx >= 0 {
			roles[idx] = model.R_SHERIFF
		}
	}
	return roles
}

func CountRoles(roles []model.Role) map[model.Role]int {
	counter := make(map[model.Role]int)
	for _, r := range roles {
		counter[r]++
	}
	return counter
}
