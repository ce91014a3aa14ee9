package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
)

// JSONLogger keeps a structured record of each match and rewrites it as a
// JSON document after every event.
type JSONLogger struct {
	mu               sync.Mutex
	data             map[string]*JSONLog
	outputDir        string
	templateFilename string
}

type JSONLog struct {
	id        string
	filename  string
	topic     string
	word      string
	players   []any
	outcome   model.Outcome
	entries   []any
	startedAt time.Time
	endedAt   *time.Time
}

func NewJSONLogger(config model.Config) *JSONLogger {
	return &JSONLogger{
		data:             make(map[string]*JSONLog),
		outputDir:        config.JSONLogger.OutputDir,
		templateFilename: config.JSONLogger.Filename,
	}
}

func (j *JSONLogger) TrackStartMatch(id string, topicName string, secretWord string, players []string, roles []model.Role) {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := &JSONLog{
		id:        id,
		filename:  expandFilename(j.templateFilename, id),
		topic:     topicName,
		word:      secretWord,
		players:   make([]any, 0, len(players)),
		outcome:   model.O_CONTINUE,
		entries:   make([]any, 0),
		startedAt: time.Now(),
	}
	for i, name := range players {
		data.players = append(data.players, map[string]any{
			"idx":  i,
			"name": name,
			"role": roles[i],
		})
	}
	j.data[id] = data
	j.save(id)
}

func (j *JSONLogger) TrackEvent(id string, event string, fields map[string]any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		entry := map[string]any{
			"event":     event,
			"timestamp": time.Now().UnixMilli(),
		}
		for k, v := range fields {
			entry[k] = v
		}
		data.entries = append(data.entries, entry)
		j.save(id)
	}
}

func (j *JSONLogger) TrackEndMatch(id string, outcome model.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		now := time.Now()
		data.outcome = outcome
		data.endedAt = &now
		j.save(id)
		delete(j.data, id)
	}
}

func (j *JSONLogger) save(id string) {
	data, exists := j.data[id]
	if !exists {
		return
	}
	record := map[string]any{
		"match_id":   id,
		"topic":      data.topic,
		"word":       data.word,
		"outcome":    data.outcome,
		"winner":     data.outcome.Winner(),
		"players":    data.players,
		"entries":    data.entries,
		"started_at": data.startedAt.UnixMilli(),
	}
	if data.endedAt != nil {
		record["ended_at"] = data.endedAt.UnixMilli()
	}
	jsonData, err := json.Marshal(record)
	if err != nil {
		slog.Error("JSONログの生成に失敗しました", "error", err)
		return
	}
	if err := os.MkdirAll(j.outputDir, 0755); err != nil {
		slog.Error("ログディレクトリの作成に失敗しました", "error", err)
		return
	}
	filePath := filepath.Join(j.outputDir, fmt.Sprintf("%s.json", data.filename))
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		slog.Error("JSONログの書き込みに失敗しました", "path", filePath, "error", err)
	}
}
