// Package sqlite provides the durable store backed by SQLite.
//
// The store holds the roster, the selected topic key and custom topics. It
// never holds an in-progress match.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/store"
	"github.com/aiwolfdial/imposter-server/store/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var errNotConfigured = errors.New("storage is not configured")

type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens and migrates the SQLite database at path, creating its parent
// directory when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) LoadConfig(ctx context.Context) (model.PersistedConfig, bool, error) {
	if s == nil || s.sqlDB == nil {
		return model.PersistedConfig{}, false, errNotConfigured
	}
	var playersJSON string
	var config model.PersistedConfig
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT players_json, topic_key FROM persisted_config WHERE storage_key = ?`,
		store.ConfigKey,
	).Scan(&playersJSON, &config.TopicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PersistedConfig{}, false, nil
		}
		return model.PersistedConfig{}, false, fmt.Errorf("load config: %w", err)
	}
	if err := json.Unmarshal([]byte(playersJSON), &config.Players); err != nil {
		return model.PersistedConfig{}, false, fmt.Errorf("decode players: %w", err)
	}
	return config, true, nil
}

func (s *Store) SaveConfig(ctx context.Context, config model.PersistedConfig) error {
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	players := config.Players
	if players == nil {
		players = []string{}
	}
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO persisted_config (storage_key, players_json, topic_key, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET
		    players_json = excluded.players_json,
		    topic_key = excluded.topic_key,
		    updated_at = excluded.updated_at`,
		store.ConfigKey,
		string(playersJSON),
		config.TopicKey,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func (s *Store) ClearConfig(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM persisted_config WHERE storage_key = ?`, store.ConfigKey); err != nil {
		return fmt.Errorf("clear config: %w", err)
	}
	return nil
}

func (s *Store) ListCustomTopics(ctx context.Context) ([]model.Topic, error) {
	if s == nil || s.sqlDB == nil {
		return nil, errNotConfigured
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, topic_key, words_json FROM custom_topics ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list custom topics: %w", err)
	}
	defer rows.Close()

	topics := make([]model.Topic, 0)
	for rows.Next() {
		var topic model.Topic
		var wordsJSON string
		if err := rows.Scan(&topic.Name, &topic.Key, &wordsJSON); err != nil {
			return nil, fmt.Errorf("scan custom topic: %w", err)
		}
		if err := json.Unmarshal([]byte(wordsJSON), &topic.Words); err != nil {
			return nil, fmt.Errorf("decode words of %s: %w", topic.Name, err)
		}
		topic.IsCustom = true
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom topics: %w", err)
	}
	return topics, nil
}

func (s *Store) PutCustomTopic(ctx context.Context, topic model.Topic) error {
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	if strings.TrimSpace(topic.Name) == "" {
		return fmt.Errorf("topic name is required")
	}
	words := topic.Words
	if words == nil {
		words = []string{}
	}
	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO custom_topics (name, topic_key, words_json, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		    topic_key = excluded.topic_key,
		    words_json = excluded.words_json`,
		topic.Name,
		topic.Key,
		string(wordsJSON),
		time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("put custom topic: %w", err)
	}
	return nil
}

func (s *Store) DeleteCustomTopic(ctx context.Context, name string) error {
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM custom_topics WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete custom topic: %w", err)
	}
	return nil
}
