package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/store"
	"github.com/aiwolfdial/imposter-server/util"
	"gopkg.in/yaml.v2"
)

//go:embed data/topics.yml
var predefinedTopicsYAML []byte

var (
	ErrTopicExists      = errors.New("topic already exists")
	ErrTopicNameInvalid = errors.New("topic name is required")
)

// TopicSource resolves topic keys to word lists. It serves the predefined
// catalog plus custom topics mirrored from a TopicStore.
type TopicSource struct {
	mu         sync.RWMutex
	predefined []model.Topic
	custom     []model.Topic
	store      store.TopicStore
	rand       util.Random
}

func NewTopicSource(topicStore store.TopicStore, rnd util.Random) (*TopicSource, error) {
	predefined, err := ParseTopics(predefinedTopicsYAML)
	if err != nil {
		return nil, fmt.Errorf("parse predefined topics: %w", err)
	}
	if rnd == nil {
		rnd = util.NewRandom()
	}
	return &TopicSource{
		predefined: predefined,
		custom:     make([]model.Topic, 0),
		store:      topicStore,
		rand:       rnd,
	}, nil
}

func ParseTopics(data []byte) ([]model.Topic, error) {
	var topics []model.Topic
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, err
	}
	for i := range topics {
		if strings.TrimSpace(topics[i].Name) == "" {
			return nil, fmt.Errorf("topic %d has no name", i)
		}
		if topics[i].Key == "" {
			topics[i].Key = util.Slugify(topics[i].Name)
		}
		topics[i].Words = util.NormalizeWords(topics[i].Words)
		topics[i].IsCustom = false
	}
	return topics, nil
}

// LoadExtraTopics appends predefined topics from a YAML file. Topics whose name
// or key is already taken are skipped.
func (ts *TopicSource) LoadExtraTopics(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read topics file: %w", err)
	}
	topics, err := ParseTopics(data)
	if err != nil {
		return fmt.Errorf("parse topics file: %w", err)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, topic := range topics {
		if ts.nameTaken(topic.Name) || ts.keyTaken(topic.Key) {
			slog.Warn("重複したお題をスキップしました", "name", topic.Name, "key", topic.Key)
			continue
		}
		ts.predefined = append(ts.predefined, topic)
	}
	slog.Info("追加のお題を読み込みました", "path", path, "count", len(topics))
	return nil
}

// LoadCustomTopics replaces the in-memory custom topics with the stored ones.
func (ts *TopicSource) LoadCustomTopics(ctx context.Context) error {
	if ts.store == nil {
		return nil
	}
	topics, err := ts.store.ListCustomTopics(ctx)
	if err != nil {
		return fmt.Errorf("load custom topics: %w", err)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.custom = make([]model.Topic, 0, len(topics))
	for _, topic := range topics {
		topic.IsCustom = true
		ts.custom = append(ts.custom, topic)
	}
	slog.Info("カスタムお題を読み込みました", "count", len(ts.custom))
	return nil
}

// Topics returns predefined topics followed by custom topics.
func (ts *TopicSource) Topics() []model.Topic {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.allLocked()
}

func (ts *TopicSource) allLocked() []model.Topic {
	topics := make([]model.Topic, 0, len(ts.predefined)+len(ts.custom))
	for _, t := range ts.predefined {
		topics = append(topics, t.Clone())
	}
	for _, t := range ts.custom {
		topics = append(topics, t.Clone())
	}
	return topics
}

// ResolveTopic looks a topic up by key. RandomTopicKey picks one topic from the
// whole catalog and reports it under RandomTopicName.
func (ts *TopicSource) ResolveTopic(key string) (model.Topic, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if key == "" {
		return model.Topic{}, false
	}
	if key == model.RandomTopicKey {
		all := ts.allLocked()
		if len(all) == 0 {
			return model.Topic{}, false
		}
		picked := util.PickRandom(ts.rand, all)
		return model.Topic{
			Key:      model.RandomTopicKey,
			Name:     model.RandomTopicName,
			Words:    picked.Words,
			IsCustom: picked.IsCustom,
		}, true
	}
	for _, t := range ts.predefined {
		if t.Key == key {
			return t.Clone(), true
		}
	}
	for _, t := range ts.custom {
		if t.Key == key {
			return t.Clone(), true
		}
	}
	return model.Topic{}, false
}

func (ts *TopicSource) AddCustomTopic(ctx context.Context, name string, words []string) (model.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" || util.Slugify(name) == "" {
		return model.Topic{}, ErrTopicNameInvalid
	}
	topic := model.Topic{
		Key:      util.CustomTopicKey(name),
		Name:     name,
		Words:    util.NormalizeWords(words),
		IsCustom: true,
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.nameTaken(name) || ts.keyTaken(topic.Key) {
		slog.Warn("同名のお題が既に存在します", "name", name)
		return model.Topic{}, fmt.Errorf("%w: %s", ErrTopicExists, name)
	}
	if ts.store != nil {
		if err := ts.store.PutCustomTopic(ctx, topic); err != nil {
			slog.Error("カスタムお題の保存に失敗しました", "name", name, "error", err)
			return model.Topic{}, err
		}
	}
	ts.custom = append(ts.custom, topic)
	slog.Info("カスタムお題を追加しました", "name", name, "key", topic.Key, "words", len(topic.Words))
	return topic.Clone(), nil
}

// RemoveCustomTopic removes a custom topic by exact name. Missing names are a no-op.
func (ts *TopicSource) RemoveCustomTopic(ctx context.Context, name string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	idx := -1
	for i, t := range ts.custom {
		if t.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if ts.store != nil {
		if err := ts.store.DeleteCustomTopic(ctx, name); err != nil {
			slog.Error("カスタムお題の削除に失敗しました", "name", name, "error", err)
			return err
		}
	}
	ts.custom = append(ts.custom[:idx], ts.custom[idx+1:]...)
	slog.Info("カスタムお題を削除しました", "name", name)
	return nil
}

func (ts *TopicSource) nameTaken(name string) bool {
	for _, t := range ts.predefined {
		if util.SameTopicName(t.Name, name) {
			return true
		}
	}
	for _, t := range ts.custom {
		if util.SameTopicName(t.Name, name) {
			return true
		}
	}
	return false
}

func (ts *TopicSource) keyTaken(key string) bool {
	if key == model.RandomTopicKey {
		return true
	}
	for _, t := range ts.predefined {
		if t.Key == key {
			return true
		}
	}
	for _, t := range ts.custom {
		if t.Key == key {
			return true
		}
	}
	return false
}
