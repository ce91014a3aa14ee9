package logic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/service"
	"github.com/aiwolfdial/imposter-server/util"
	"github.com/oklog/ulid/v2"
)

type WordSource interface {
	ResolveTopic(key string) (model.Topic, bool)
	Topics() []model.Topic
	AddCustomTopic(ctx context.Context, name string, words []string) (model.Topic, error)
	RemoveCustomTopic(ctx context.Context, name string) error
}

// Engine owns the roster, the role assignment and the elimination flow of one
// shared device. It is not safe for concurrent use; callers serialize access.
type Engine struct {
	config              model.MatchConfig
	session             *model.SessionState
	words               WordSource
	rand                util.Random
	persister           *Persister
	hydrated            chan struct{}
	hydrateOnce         sync.Once
	jsonLogger          *service.JSONLogger
	gameLogger          *service.GameLogger
	realtimeBroadcaster *service.RealtimeBroadcaster
}

func NewEngine(words WordSource, rnd util.Random) *Engine {
	if rnd == nil {
		rnd = util.NewRandom()
	}
	return &Engine{
		words:    words,
		rand:     rnd,
		hydrated: make(chan struct{}),
	}
}

func (e *Engine) SetPersister(persister *Persister) {
	e.persister = persister
}

func (e *Engine) SetJSONLogger(jsonLogger *service.JSONLogger) {
	e.jsonLogger = jsonLogger
}

func (e *Engine) SetGameLogger(gameLogger *service.GameLogger) {
	e.gameLogger = gameLogger
}

func (e *Engine) SetRealtimeBroadcaster(realtimeBroadcaster *service.RealtimeBroadcaster) {
	e.realtimeBroadcaster = realtimeBroadcaster
}

func (e *Engine) SetPlayers(names []string) {
	players := make([]string, len(names))
	copy(players, names)
	e.config.Players = players
	slog.Info("プレイヤーを設定しました", "count", len(players))
	e.persist()
	e.broadcast(model.E_CONFIG, nil, nil)
}

func (e *Engine) SetTopicKey(key string) {
	e.config.TopicKey = key
	slog.Info("お題を設定しました", "topic", key)
	e.persist()
	e.broadcast(model.E_CONFIG, nil, nil)
}

func (e *Engine) SetEnableJester(enable bool) {
	e.config.EnableJester = enable
}

func (e *Engine) SetEnableSheriff(enable bool) {
	e.config.EnableSheriff = enable
}

func (e *Engine) GetTopicByKey(key string) (model.Topic, bool) {
	return e.words.ResolveTopic(key)
}

func (e *Engine) Topics() []model.Topic {
	return e.words.Topics()
}

// StartMatch assigns roles and draws the secret word. On error nothing changes.
// Calling it again replaces the previous match.
func (e *Engine) StartMatch() error {
	players := e.config.Players
	if len(players) < util.MinPlayers {
		slog.Warn("プレイヤーが不足しているため、試合を開始できません", "players", len(players))
		return ErrNotEnoughPlayers
	}
	topic, ok := e.words.ResolveTopic(e.config.TopicKey)
	if !ok || len(topic.Words) == 0 {
		slog.Warn("お題が解決できないため、試合を開始できません", "topic", e.config.TopicKey)
		return ErrTopicUnresolved
	}

	secretWord := util.PickRandom(e.rand, topic.Words)
	roles := util.AssignRoles(e.rand, len(players), e.config.EnableJester, e.config.EnableSheriff)
	if e.session != nil {
		e.trackEnd(model.O_CONTINUE)
	}
	e.session = model.NewSessionState(ulid.Make().String(), topic.Name, secretWord, players, roles)

	if e.gameLogger != nil {
		e.gameLogger.TrackStartMatch(e.session.ID, topic.Name, e.session.Players, roles)
	}
	if e.jsonLogger != nil {
		e.jsonLogger.TrackStartMatch(e.session.ID, topic.Name, secretWord, e.session.Players, roles)
	}
	slog.Info("試合を開始しました", "id", e.session.ID, "players", len(players), "topic", topic.Name, "jester", e.session.JesterIdx != nil, "sheriff", e.session.SheriffIdx != nil)
	e.broadcast(model.E_START, nil, nil)
	return nil
}

// EliminatePlayer marks idx as eliminated and evaluates the match outcome.
// Eliminating an already eliminated player changes nothing but still reports
// the outcome.
func (e *Engine) EliminatePlayer(idx int) (model.Outcome, error) {
	s := e.session
	if s == nil {
		slog.Warn("試合が開始されていないため、追放できません", "idx", idx)
		return model.O_CONTINUE, ErrNoActiveMatch
	}
	if idx < 0 || idx >= len(s.Alive) {
		slog.Warn("範囲外のプレイヤーは追放できません", "id", s.ID, "idx", idx)
		return model.O_CONTINUE, fmt.Errorf("%w: %d", ErrPlayerOutOfRange, idx)
	}

	wasAlive := s.Alive[idx]
	s.Alive[idx] = false
	outcome := util.CalcOutcome(s, idx)
	wasOpen := !s.Outcome.IsTerminal()
	if outcome.IsTerminal() && wasOpen {
		s.Outcome = outcome
	}

	if wasAlive {
		slog.Info("プレイヤーを追放しました", "id", s.ID, "round", s.Round, "idx", idx, "role", s.Roles[idx], "outcome", outcome)
		if e.gameLogger != nil {
			e.gameLogger.AppendLog(s.ID, fmt.Sprintf("%d,eliminate,%d,%s,%s", s.Round, idx, s.Roles[idx].Name, outcome))
		}
		if e.jsonLogger != nil {
			e.jsonLogger.TrackEvent(s.ID, model.E_ELIMINATE, map[string]any{"round": s.Round, "idx": idx, "role": s.Roles[idx], "outcome": outcome})
		}
	} else {
		slog.Warn("既に追放されたプレイヤーです", "id", s.ID, "idx", idx, "outcome", outcome)
	}
	if outcome.IsTerminal() && wasOpen {
		e.trackEnd(outcome)
	}
	message := outcome.String()
	e.broadcast(model.E_ELIMINATE, &message, &idx)
	return outcome, nil
}

func (e *Engine) AliveCount() int {
	if e.session == nil {
		return 0
	}
	return e.session.AliveCount()
}

// NextRound advances the round counter and returns the new round. Without an
// active match it does nothing and returns 1.
func (e *Engine) NextRound() int {
	if e.session == nil {
		slog.Warn("試合が開始されていないため、ラウンドを進められません")
		return 1
	}
	e.session.Round++
	slog.Info("ラウンドが進みました", "id", e.session.ID, "round", e.session.Round)
	if e.gameLogger != nil {
		e.gameLogger.AppendLog(e.session.ID, fmt.Sprintf("%d,round", e.session.Round))
	}
	e.broadcast(model.E_NEXT_ROUND, nil, nil)
	return e.session.Round
}

// UseSheriffAbility consumes the once-per-match sheriff ability.
func (e *Engine) UseSheriffAbility() error {
	s := e.session
	if s == nil {
		return ErrNoActiveMatch
	}
	if s.SheriffIdx == nil {
		return ErrNoSheriff
	}
	if !s.Alive[*s.SheriffIdx] {
		return ErrSheriffEliminated
	}
	if s.SheriffUsedAbility {
		return ErrSheriffAbilityUsed
	}
	s.SheriffUsedAbility = true
	slog.Info("保安官が能力を使用しました", "id", s.ID, "round", s.Round, "idx", *s.SheriffIdx)
	if e.gameLogger != nil {
		e.gameLogger.AppendLog(s.ID, fmt.Sprintf("%d,sheriff,%d", s.Round, *s.SheriffIdx))
	}
	if e.jsonLogger != nil {
		e.jsonLogger.TrackEvent(s.ID, model.E_SHERIFF, map[string]any{"round": s.Round, "idx": *s.SheriffIdx})
	}
	e.broadcast(model.E_SHERIFF, nil, s.SheriffIdx)
	return nil
}

func (e *Engine) AddCustomTopic(ctx context.Context, name string, words []string) (model.Topic, error) {
	return e.words.AddCustomTopic(ctx, name, words)
}

func (e *Engine) RemoveCustomTopic(ctx context.Context, name string) error {
	return e.words.RemoveCustomTopic(ctx, name)
}

// ResetMatch drops the active match. The roster and topic key are kept.
func (e *Engine) ResetMatch() {
	if e.session == nil {
		return
	}
	id := e.session.ID
	e.trackEnd(model.O_CONTINUE)
	e.session = nil
	slog.Info("試合をリセットしました", "id", id)
	e.broadcast(model.E_RESET, nil, nil)
}

// ClearStorage wipes the persisted setup and returns the engine to its initial
// configuration.
func (e *Engine) ClearStorage(ctx context.Context) error {
	if e.persister != nil {
		if err := e.persister.Clear(ctx); err != nil {
			slog.Error("保存データの削除に失敗しました", "error", err)
			return err
		}
	}
	e.ResetMatch()
	e.config = model.MatchConfig{}
	slog.Info("保存データを削除しました")
	e.broadcast(model.E_CONFIG, nil, nil)
	return nil
}

// trackEnd closes the per-match logs unless they were already closed by a
// terminal elimination.
func (e *Engine) trackEnd(outcome model.Outcome) {
	s := e.session
	if s == nil {
		return
	}
	if outcome == model.O_CONTINUE && s.Outcome.IsTerminal() {
		return
	}
	if e.gameLogger != nil {
		remaining := s.AliveCount()
		e.gameLogger.AppendLog(s.ID, fmt.Sprintf("%d,result,%d,%s", s.Round, remaining, outcome.Winner()))
		e.gameLogger.TrackEndMatch(s.ID)
	}
	if e.jsonLogger != nil {
		e.jsonLogger.TrackEndMatch(s.ID, outcome)
	}
	if outcome.IsTerminal() {
		slog.Info("試合が終了しました", "id", s.ID, "round", s.Round, "outcome", outcome, "winner", outcome.Winner())
	}
}

func (e *Engine) persist() {
	if e.persister != nil {
		e.persister.Save(e.config.PersistedConfig)
	}
}

func (e *Engine) broadcast(event string, message *string, toIdx *int) {
	if e.realtimeBroadcaster == nil {
		return
	}
	packet := model.BroadcastPacket{
		Id:      e.MatchID(),
		Event:   event,
		Message: message,
		ToIdx:   toIdx,
		State:   e.Snapshot(),
	}
	e.realtimeBroadcaster.Broadcast(packet)
}
