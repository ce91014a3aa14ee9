package model

// PersistedConfig is the part of the setup that survives a restart.
type PersistedConfig struct {
	Players  []string `json:"players"`
	TopicKey string   `json:"topicKey"`
}

func (c PersistedConfig) Clone() PersistedConfig {
	players := make([]string, len(c.Players))
	copy(players, c.Players)
	return PersistedConfig{Players: players, TopicKey: c.TopicKey}
}

// MatchConfig is the pre-match setup mutated freely by the caller.
type MatchConfig struct {
	PersistedConfig
	EnableJester  bool
	EnableSheriff bool
}

// SessionState is the volatile state of an active match. It is never serialized
// to the durable store.
type SessionState struct {
	ID                 string
	Players            []string
	TopicName          string
	SecretWord         string
	Roles              []Role
	Alive              []bool
	Round              int
	ImposterIdx        int
	JesterIdx          *int
	SheriffIdx         *int
	SheriffUsedAbility bool
	Outcome            Outcome
}

func NewSessionState(id string, topicName string, secretWord string, players []string, roles []Role) *SessionState {
	roster := make([]string, len(players))
	copy(roster, players)
	session := &SessionState{
		ID:          id,
		Players:     roster,
		TopicName:   topicName,
		SecretWord:  secretWord,
		Roles:       roles,
		Alive:       make([]bool, len(roles)),
		Round:       1,
		ImposterIdx: -1,
		Outcome:     O_CONTINUE,
	}
	for i, role := range roles {
		session.Alive[i] = true
		switch role {
		case R_IMPOSTER:
			session.ImposterIdx = i
		case R_JESTER:
			idx := i
			session.JesterIdx = &idx
		case R_SHERIFF:
			idx := i
			session.SheriffIdx = &idx
		}
	}
	return session
}

func (s *SessionState) AliveCount() int {
	var count int
	for _, alive := range s.Alive {
		if alive {
			count++
		}
	}
	return count
}

// PlayerView is one roster entry as shown on a shared screen.
type PlayerView struct {
	Idx     int    `json:"idx"`
	Name    string `json:"name"`
	IsAlive bool   `json:"isAlive"`
	Role    *Role  `json:"role,omitempty"`
}

// Snapshot is a read-only copy of the engine state. Roles are filled in only
// after the match has a terminal outcome.
type Snapshot struct {
	MatchID            string       `json:"matchId,omitempty"`
	Active             bool         `json:"active"`
	TopicKey           string       `json:"topicKey,omitempty"`
	TopicName          string       `json:"topicName,omitempty"`
	EnableJester       bool         `json:"enableJester"`
	EnableSheriff      bool         `json:"enableSheriff"`
	Round              int          `json:"round"`
	AliveCount         int          `json:"aliveCount"`
	SheriffUsedAbility bool         `json:"sheriffUsedAbility"`
	Outcome            Outcome      `json:"outcome"`
	Players            []PlayerView `json:"players"`
}

// Card is what a single player sees when the device is passed to them.
type Card struct {
	Idx        int    `json:"idx"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	SecretWord string `json:"secretWord,omitempty"`
	TopicName  string `json:"topicName,omitempty"`
}
