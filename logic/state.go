package logic

import (
	"fmt"

	"github.com/aiwolfdial/imposter-server/model"
)

func (e *Engine) Players() []string {
	players := make([]string, len(e.config.Players))
	copy(players, e.config.Players)
	return players
}

func (e *Engine) TopicKey() string {
	return e.config.TopicKey
}

func (e *Engine) EnableJester() bool {
	return e.config.EnableJester
}

func (e *Engine) EnableSheriff() bool {
	return e.config.EnableSheriff
}

func (e *Engine) PersistedConfig() model.PersistedConfig {
	return e.config.PersistedConfig.Clone()
}

func (e *Engine) IsActive() bool {
	return e.session != nil
}

func (e *Engine) MatchID() string {
	if e.session == nil {
		return ""
	}
	return e.session.ID
}

func (e *Engine) SecretWord() string {
	if e.session == nil {
		return ""
	}
	return e.session.SecretWord
}

func (e *Engine) Roles() []model.Role {
	if e.session == nil {
		return []model.Role{}
	}
	roles := make([]model.Role, len(e.session.Roles))
	copy(roles, e.session.Roles)
	return roles
}

func (e *Engine) Alive() []bool {
	if e.session == nil {
		return []bool{}
	}
	alive := make([]bool, len(e.session.Alive))
	copy(alive, e.session.Alive)
	return alive
}

func (e *Engine) Round() int {
	if e.session == nil {
		return 1
	}
	return e.session.Round
}

func (e *Engine) Outcome() model.Outcome {
	if e.session == nil {
		return model.O_CONTINUE
	}
	return e.session.Outcome
}

func (e *Engine) ImposterIndex() (int, bool) {
	if e.session == nil || e.session.ImposterIdx < 0 {
		return 0, false
	}
	return e.session.ImposterIdx, true
}

func (e *Engine) JesterIndex() (int, bool) {
	if e.session == nil || e.session.JesterIdx == nil {
		return 0, false
	}
	return *e.session.JesterIdx, true
}

func (e *Engine) SheriffIndex() (int, bool) {
	if e.session == nil || e.session.SheriffIdx == nil {
		return 0, false
	}
	return *e.session.SheriffIdx, true
}

func (e *Engine) SheriffUsedAbility() bool {
	return e.session != nil && e.session.SheriffUsedAbility
}

// Card returns what player idx sees on the reveal screen. The imposter gets no word.
func (e *Engine) Card(idx int) (model.Card, error) {
	s := e.session
	if s == nil {
		return model.Card{}, ErrNoActiveMatch
	}
	if idx < 0 || idx >= len(s.Roles) {
		return model.Card{}, fmt.Errorf("%w: %d", ErrPlayerOutOfRange, idx)
	}
	card := model.Card{
		Idx:  idx,
		Name: s.Players[idx],
		Role: s.Roles[idx],
	}
	if card.Role.KnowsWord() {
		card.SecretWord = s.SecretWord
		card.TopicName = s.TopicName
	}
	return card, nil
}

// Snapshot copies the current state. Roles are only included once the match
// has ended.
func (e *Engine) Snapshot() model.Snapshot {
	snapshot := model.Snapshot{
		TopicKey:      e.config.TopicKey,
		EnableJester:  e.config.EnableJester,
		EnableSheriff: e.config.EnableSheriff,
		Round:         1,
		Outcome:       model.O_CONTINUE,
		Players:       make([]model.PlayerView, 0),
	}
	s := e.session
	if s == nil {
		for i, name := range e.config.Players {
			snapshot.Players = append(snapshot.Players, model.PlayerView{Idx: i, Name: name, IsAlive: true})
		}
		return snapshot
	}
	snapshot.MatchID = s.ID
	snapshot.Active = true
	snapshot.TopicName = s.TopicName
	snapshot.Round = s.Round
	snapshot.AliveCount = s.AliveCount()
	snapshot.SheriffUsedAbility = s.SheriffUsedAbility
	snapshot.Outcome = s.Outcome
	reveal := s.Outcome.IsTerminal()
	for i, name := range s.Players {
		view := model.PlayerView{Idx: i, Name: name, IsAlive: s.Alive[i]}
		if reveal {
			role := s.Roles[i]
			view.Role = &role
		}
		snapshot.Players = append(snapshot.Players, view)
	}
	return snapshot
}
