// Package store defines the durable storage contract for the match setup and
// the custom topic catalog.
//
// Only PersistedConfig and custom topics are written. Match sessions are
// volatile and have no storage representation.
package store

import (
	"context"

	"github.com/aiwolfdial/imposter-server/model"
)

// ConfigKey is the fixed storage identifier of the persisted setup.
const ConfigKey = "imposter-match-config"

type ConfigStore interface {
	LoadConfig(ctx context.Context) (model.PersistedConfig, bool, error)
	SaveConfig(ctx context.Context, config model.PersistedConfig) error
	ClearConfig(ctx context.Context) error
}

type TopicStore interface {
	ListCustomTopics(ctx context.Context) ([]model.Topic, error)
	PutCustomTopic(ctx context.Context, topic model.Topic) error
	DeleteCustomTopic(ctx context.Context, name string) error
}

type Store interface {
	ConfigStore
	TopicStore
	Close() error
}
