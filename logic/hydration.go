package logic

import (
	"context"
	"log/slog"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/store"
)

type loadResult struct {
	config model.PersistedConfig
	found  bool
	err    error
}

// Hydrate restores the roster and topic key from configStore. It waits at most
// timeout; a load that finishes later is discarded and the engine keeps its
// current config. Hydrated is closed in every case.
func (e *Engine) Hydrate(ctx context.Context, configStore store.ConfigStore, timeout time.Duration) error {
	defer e.markHydrated()
	if timeout <= 0 {
		timeout = model.DefaultHydrationTimeout
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan loadResult, 1)
	go func() {
		config, found, err := configStore.LoadConfig(loadCtx)
		results <- loadResult{config: config, found: found, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-results:
		if res.err != nil {
			slog.Error("保存データの復元に失敗しました", "error", res.err)
			return res.err
		}
		if res.found {
			e.config.PersistedConfig = res.config.Clone()
			slog.Info("保存データを復元しました", "players", len(res.config.Players), "topic", res.config.TopicKey)
		} else {
			slog.Info("保存データがありません")
		}
		return nil
	case <-timer.C:
		slog.Warn("保存データの復元がタイムアウトしました", "timeout", timeout)
		return ErrHydrationTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) markHydrated() {
	e.hydrateOnce.Do(func() {
		close(e.hydrated)
		e.broadcast(model.E_HYDRATED, nil, nil)
	})
}

// Hydrated is closed once restoration finished or gave up.
func (e *Engine) Hydrated() <-chan struct{} {
	return e.hydrated
}

func (e *Engine) IsHydrated() bool {
	select {
	case <-e.hydrated:
		return true
	default:
		return false
	}
}
