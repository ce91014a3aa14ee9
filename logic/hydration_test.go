package logic

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/store"
)

// slowStore blocks LoadConfig until release is closed or the context ends.
type slowStore struct {
	*store.MemoryStore
	release chan struct{}
}

func (s *slowStore) LoadConfig(ctx context.Context) (model.PersistedConfig, bool, error) {
	select {
	case <-s.release:
		return s.MemoryStore.LoadConfig(ctx)
	case <-ctx.Done():
		return model.PersistedConfig{}, false, ctx.Err()
	}
}

type failingStore struct {
	*store.MemoryStore
}

var errBroken = errors.New("broken store")

func (failingStore) LoadConfig(context.Context) (model.PersistedConfig, bool, error) {
	return model.PersistedConfig{}, false, errBroken
}

func TestPersistAndHydrate(t *testing.T) {
	memory := store.NewMemoryStore()
	persister := NewPersister(memory)

	first := newTestEngine(t, nil)
	first.SetPersister(persister)
	first.SetPlayers([]string{"Alice", "Bob", "Charlie"})
	first.SetTopicKey("animals")
	if err := first.StartMatch(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := persister.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	persister.Close()

	second := newTestEngine(t, nil)
	if second.IsHydrated() {
		t.Fatal("hydrated before Hydrate")
	}
	if err := second.Hydrate(context.Background(), memory, time.Second); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !second.IsHydrated() {
		t.Fatal("not hydrated")
	}
	if !slices.Equal(second.Players(), []string{"Alice", "Bob", "Charlie"}) || second.TopicKey() != "animals" {
		t.Fatalf("restored config = %+v", second.PersistedConfig())
	}
	if second.IsActive() || second.SecretWord() != "" {
		t.Fatal("match state must not survive a restart")
	}
}

func TestHydrateEmptyStore(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Hydrate(context.Background(), store.NewMemoryStore(), time.Second); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if len(e.Players()) != 0 || e.TopicKey() != "" {
		t.Fatalf("config = %+v", e.PersistedConfig())
	}
	select {
	case <-e.Hydrated():
	default:
		t.Fatal("Hydrated channel not closed")
	}
}

func TestHydrateTimeout(t *testing.T) {
	slow := &slowStore{MemoryStore: store.NewMemoryStore(), release: make(chan struct{})}
	if err := slow.SaveConfig(context.Background(), model.PersistedConfig{Players: []string{"Late"}, TopicKey: "food"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := newTestEngine(t, nil)
	e.SetPlayers([]string{"Alice", "Bob", "Charlie"})
	start := time.Now()
	err := e.Hydrate(context.Background(), slow, 20*time.Millisecond)
	if !errors.Is(err, ErrHydrationTimeout) {
		t.Fatalf("err = %v, want ErrHydrationTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("hydrate waited past its timeout")
	}
	close(slow.release)
	if !e.IsHydrated() {
		t.Fatal("engine must be usable after a timeout")
	}
	if !slices.Equal(e.Players(), []string{"Alice", "Bob", "Charlie"}) {
		t.Fatalf("late load overwrote config: %v", e.Players())
	}
	if err := e.StartMatch(); !errors.Is(err, ErrTopicUnresolved) {
		t.Fatalf("err = %v, want ErrTopicUnresolved", err)
	}
}

func TestHydrateLoadError(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.Hydrate(context.Background(), failingStore{store.NewMemoryStore()}, time.Second)
	if !errors.Is(err, errBroken) {
		t.Fatalf("err = %v, want errBroken", err)
	}
	if !e.IsHydrated() {
		t.Fatal("engine must be hydrated after a load error")
	}
}

func TestPersisterCoalescesAndFlushesOnClose(t *testing.T) {
	memory := store.NewMemoryStore()
	persister := NewPersister(memory)
	for i := range 10 {
		persister.Save(model.PersistedConfig{Players: []string{"P"}, TopicKey: string(rune('a' + i))})
	}
	persister.Close()
	persister.Close()

	config, found, err := memory.LoadConfig(context.Background())
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if config.TopicKey != "j" {
		t.Fatalf("topic = %q, want the latest save", config.TopicKey)
	}
}

func TestPersisterClear(t *testing.T) {
	memory := store.NewMemoryStore()
	persister := NewPersister(memory)
	t.Cleanup(persister.Close)

	persister.Save(model.PersistedConfig{Players: []string{"A"}, TopicKey: "food"})
	if err := persister.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	persister.Save(model.PersistedConfig{Players: []string{"B"}, TopicKey: "jobs"})
	if err := persister.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := persister.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, found, _ := memory.LoadConfig(context.Background()); found {
		t.Fatal("cleared config came back")
	}
}

func TestClearStorage(t *testing.T) {
	memory := store.NewMemoryStore()
	persister := NewPersister(memory)
	t.Cleanup(persister.Close)

	e := newTestEngine(t, nil)
	e.SetPersister(persister)
	e.SetPlayers([]string{"Alice", "Bob", "Charlie"})
	e.SetTopicKey("food")
	e.SetEnableJester(true)
	if err := e.StartMatch(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := persister.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if err := e.ClearStorage(context.Background()); err != nil {
		t.Fatalf("clear storage: %v", err)
	}
	if e.IsActive() || len(e.Players()) != 0 || e.TopicKey() != "" || e.EnableJester() {
		t.Fatalf("engine not reset: %+v", e.Snapshot())
	}
	if _, found, _ := memory.LoadConfig(context.Background()); found {
		t.Fatal("store still holds a config")
	}
}
