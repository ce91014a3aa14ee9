package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aiwolfdial/imposter-server/core"
	"github.com/aiwolfdial/imposter-server/logic"
	"github.com/aiwolfdial/imposter-server/model"
	"github.com/aiwolfdial/imposter-server/service"
	"github.com/aiwolfdial/imposter-server/store"
	"github.com/aiwolfdial/imposter-server/store/sqlite"
)

var (
	version  string
	revision string
	build    string
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	core.SetVersion(version, revision, build)

	var (
		configPath  = flag.String("c", "./config/default.yml", "設定ファイルのパス")
		showVersion = flag.Bool("v", false, "バージョンを表示")
	)
	flag.Parse()
	if *showVersion {
		slog.Info("バージョン", "version", core.Version.Version, "revision", core.Version.Revision, "build", core.Version.Build)
		return
	}

	config, err := model.LoadFromPath(*configPath)
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, *config); err != nil {
		slog.Error("サーバの実行に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config model.Config) error {
	st, err := openStore(config)
	if err != nil {
		return err
	}
	defer st.Close()

	topics, err := service.NewTopicSource(st, nil)
	if err != nil {
		return err
	}
	if err := topics.LoadCustomTopics(ctx); err != nil {
		slog.Warn("カスタムお題を読み込めませんでした", "error", err)
	}
	if config.Topics.ExtraPath != "" {
		if err := topics.LoadExtraTopics(config.Topics.ExtraPath); err != nil {
			slog.Warn("追加のお題を読み込めませんでした", "error", err)
		}
	}

	engine := logic.NewEngine(topics, nil)
	persister := logic.NewPersister(st)
	defer persister.Close()
	engine.SetPersister(persister)
	if config.JSONLogger.Enable {
		engine.SetJSONLogger(service.NewJSONLogger(config))
	}
	if config.GameLogger.Enable {
		engine.SetGameLogger(service.NewGameLogger(config))
	}
	var realtimeBroadcaster *service.RealtimeBroadcaster
	if config.RealtimeBroadcaster.Enable {
		realtimeBroadcaster = service.NewRealtimeBroadcaster(config)
		engine.SetRealtimeBroadcaster(realtimeBroadcaster)
	}

	server := core.NewServer(config, engine, realtimeBroadcaster)
	if err := server.Hydrate(ctx, st, config.Storage.HydrationTimeout); err != nil {
		if !errors.Is(err, logic.ErrHydrationTimeout) && ctx.Err() != nil {
			return err
		}
		slog.Warn("保存データなしで起動します", "error", err)
	}
	return server.Run(ctx)
}

// openStore falls back to memory when no storage path is configured.
func openStore(config model.Config) (store.Store, error) {
	if config.Storage.Path == "" {
		slog.Info("ストレージが未設定のため、メモリに保存します")
		return store.NewMemoryStore(), nil
	}
	st, err := sqlite.Open(config.Storage.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("ストレージを開きました", "path", config.Storage.Path)
	return st, nil
}
