package logic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/store"
)

const persistTimeout = 5 * time.Second

// Persister writes the durable setup behind the engine's back. Save never
// blocks; only the latest pending config is written.
type Persister struct {
	store   store.ConfigStore
	mu      sync.Mutex
	writeMu sync.Mutex
	pending *model.PersistedConfig
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewPersister(configStore store.ConfigStore) *Persister {
	p := &Persister{
		store: configStore,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Persister) Save(config model.PersistedConfig) {
	cloned := config.Clone()
	p.mu.Lock()
	p.pending = &cloned
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush writes the pending config, if any, before returning.
func (p *Persister) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.mu.Lock()
	config := p.pending
	p.pending = nil
	p.mu.Unlock()
	if config == nil {
		return nil
	}
	if err := p.store.SaveConfig(ctx, *config); err != nil {
		return err
	}
	slog.Debug("設定を保存しました", "players", len(config.Players), "topic", config.TopicKey)
	return nil
}

// Clear drops any pending write and removes the stored config. A write already
// in flight finishes first so it cannot resurrect the cleared config.
func (p *Persister) Clear(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
	return p.store.ClearConfig(ctx)
}

// Close flushes the pending config and stops the background writer.
func (p *Persister) Close() {
	p.once.Do(func() {
		close(p.stop)
		<-p.done
	})
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.flushInBackground()
		case <-p.stop:
			p.flushInBackground()
			return
		}
	}
}

func (p *Persister) flushInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		slog.Error("設定の保存に失敗しました", "error", err)
	}
}
