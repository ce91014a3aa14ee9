package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
)

// GameLogger writes one plain-text log per match, one comma-separated line per event.
type GameLogger struct {
	mu               sync.Mutex
	logsData         map[string]*GameLog
	outputDir        string
	templateFilename string
}

type GameLog struct {
	id       string
	filename string
	logs     []string
}

func NewGameLogger(config model.Config) *GameLogger {
	return &GameLogger{
		logsData:         make(map[string]*GameLog),
		outputDir:        config.GameLogger.OutputDir,
		templateFilename: config.GameLogger.Filename,
	}
}

func (g *GameLogger) TrackStartMatch(id string, topicName string, players []string, roles []model.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	logData := &GameLog{
		id:       id,
		filename: expandFilename(g.templateFilename, id),
		logs:     make([]string, 0, len(players)+1),
	}
	logData.logs = append(logData.logs, fmt.Sprintf("0,start,%s,%d", topicName, len(players)))
	for i, name := range players {
		logData.logs = append(logData.logs, fmt.Sprintf("0,status,%d,%s,ALIVE,%s", i, roles[i].Name, name))
	}
	g.logsData[id] = logData
	g.save(id)
}

func (g *GameLogger) AppendLog(id string, log string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if logData, exists := g.logsData[id]; exists {
		logData.logs = append(logData.logs, log)
		g.save(id)
	}
}

func (g *GameLogger) TrackEndMatch(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.logsData[id]; exists {
		g.save(id)
		delete(g.logsData, id)
	}
}

func (g *GameLogger) save(id string) {
	logData, exists := g.logsData[id]
	if !exists {
		return
	}
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		slog.Error("ログディレクトリの作成に失敗しました", "error", err)
		return
	}
	filePath := filepath.Join(g.outputDir, fmt.Sprintf("%s.log", logData.filename))
	if err := os.WriteFile(filePath, []byte(strings.Join(logData.logs, "\n")), 0644); err != nil {
		slog.Error("ゲームログの書き込みに失敗しました", "path", filePath, "error", err)
	}
}

func expandFilename(template string, id string) string {
	filename := strings.ReplaceAll(template, "{match_id}", id)
	return strings.ReplaceAll(filename, "{timestamp}", fmt.Sprintf("%d", time.Now().Unix()))
}
