package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aiwolfdial/imposter-server/model"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imposter.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	_, path := openTestStore(t)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()
	for _, table := range []string{"persisted_config", "custom_topics", migrationTable} {
		var name string
		err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestReopenKeepsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "imposter.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.SaveConfig(ctx, model.PersistedConfig{Players: []string{"Alice", "Bob", "Charlie"}, TopicKey: "food"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	config, found, err := second.LoadConfig(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(config.Players) != 3 || config.Players[2] != "Charlie" || config.TopicKey != "food" {
		t.Fatalf("config = %+v", config)
	}
}

func TestConfigOverwriteAndClear(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.LoadConfig(ctx); err != nil || found {
		t.Fatalf("load empty: found=%v err=%v", found, err)
	}
	if err := store.SaveConfig(ctx, model.PersistedConfig{Players: []string{"A"}, TopicKey: "food"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveConfig(ctx, model.PersistedConfig{Players: nil, TopicKey: ""}); err != nil {
		t.Fatalf("save: %v", err)
	}
	config, found, err := store.LoadConfig(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(config.Players) != 0 || config.TopicKey != "" {
		t.Fatalf("config = %+v", config)
	}
	if err := store.ClearConfig(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.LoadConfig(ctx); found {
		t.Fatal("expected cleared config")
	}
}

func TestCustomTopics(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.PutCustomTopic(ctx, model.Topic{Key: "custom-board-games", Name: "Board Games", Words: []string{"Chess", "Go"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutCustomTopic(ctx, model.Topic{Key: "custom-cars", Name: "Cars", Words: []string{"Mini"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutCustomTopic(ctx, model.Topic{Name: "  "}); err == nil {
		t.Fatal("expected error for blank name")
	}

	topics, err := store.ListCustomTopics(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("topics = %+v", topics)
	}
	if topics[0].Name != "Board Games" || !topics[0].IsCustom || len(topics[0].Words) != 2 {
		t.Fatalf("first topic = %+v", topics[0])
	}

	if err := store.DeleteCustomTopic(ctx, "Board Games"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	topics, err = store.ListCustomTopics(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(topics) != 1 || topics[0].Name != "Cars" {
		t.Fatalf("topics after delete = %+v", topics)
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
	if _, _, err := store.LoadConfig(context.Background()); err == nil {
		t.Fatal("expected error from nil store")
	}
}
