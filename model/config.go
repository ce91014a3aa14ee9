package model

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		HTTP struct {
			Host string `yaml:"host" env:"IMPOSTER_HTTP_HOST"`
			Port int    `yaml:"port" env:"IMPOSTER_HTTP_PORT"`
		} `yaml:"http"`
		Authentication struct {
			Enable bool   `yaml:"enable" env:"IMPOSTER_AUTH_ENABLE"`
			Secret string `yaml:"secret" env:"SECRET_KEY"`
		} `yaml:"authentication"`
	} `yaml:"server"`
	Storage struct {
		Path             string        `yaml:"path" env:"IMPOSTER_STORAGE_PATH"`
		HydrationTimeout time.Duration `yaml:"hydration_timeout" env:"IMPOSTER_HYDRATION_TIMEOUT"`
	} `yaml:"storage"`
	Topics struct {
		ExtraPath string `yaml:"extra_path" env:"IMPOSTER_TOPICS_PATH"`
	} `yaml:"topics"`
	JSONLogger struct {
		Enable    bool   `yaml:"enable"`
		OutputDir string `yaml:"output_dir"`
		Filename  string `yaml:"filename"`
	} `yaml:"json_logger"`
	GameLogger struct {
		Enable    bool   `yaml:"enable"`
		OutputDir string `yaml:"output_dir"`
		Filename  string `yaml:"filename"`
	} `yaml:"game_logger"`
	RealtimeBroadcaster struct {
		Enable       bool          `yaml:"enable"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"realtime_broadcaster"`
}

const DefaultHydrationTimeout = 3 * time.Second

func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("設定ファイルの読み込みに失敗しました", "error", err)
		return nil, err
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Error("設定ファイルのパースに失敗しました", "error", err)
		return nil, err
	}
	if err := env.Parse(&config); err != nil {
		slog.Error("環境変数のパースに失敗しました", "error", err)
		return nil, fmt.Errorf("parse env: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTP.Host == "" {
		c.Server.HTTP.Host = "127.0.0.1"
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Storage.HydrationTimeout <= 0 {
		c.Storage.HydrationTimeout = DefaultHydrationTimeout
	}
	if c.RealtimeBroadcaster.WriteTimeout <= 0 {
		c.RealtimeBroadcaster.WriteTimeout = time.Second
	}
	if c.GameLogger.Filename == "" {
		c.GameLogger.Filename = "{timestamp}_{match_id}"
	}
	if c.JSONLogger.Filename == "" {
		c.JSONLogger.Filename = "{timestamp}_{match_id}"
	}
}
