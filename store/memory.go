package store

import (
	"context"
	"sync"

	"github.com/aiwolfdial/imposter-server/model"
)

// MemoryStore keeps everything in process memory. It backs tests and runs with
// storage disabled.
type MemoryStore struct {
	mu     sync.RWMutex
	config *model.PersistedConfig
	topics []model.Topic
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadConfig(ctx context.Context) (model.PersistedConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return model.PersistedConfig{}, false, nil
	}
	return s.config.Clone(), true, nil
}

func (s *MemoryStore) SaveConfig(ctx context.Context, config model.PersistedConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := config.Clone()
	s.config = &cloned
	return nil
}

func (s *MemoryStore) ClearConfig(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = nil
	return nil
}

func (s *MemoryStore) ListCustomTopics(ctx context.Context) ([]model.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]model.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		topics = append(topics, t.Clone())
	}
	return topics, nil
}

func (s *MemoryStore) PutCustomTopic(ctx context.Context, topic model.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.topics {
		if t.Name == topic.Name {
			s.topics[i] = topic.Clone()
			return nil
		}
	}
	s.topics = append(s.topics, topic.Clone())
	return nil
}

func (s *MemoryStore) DeleteCustomTopic(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.topics {
		if t.Name == name {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
