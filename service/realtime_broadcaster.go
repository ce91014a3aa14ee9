package service

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aiwolfdial/imposter-server/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RealtimeBroadcaster fans engine snapshots out to connected websocket viewers
// such as a second screen showing the roster.
type RealtimeBroadcaster struct {
	mu           sync.RWMutex
	writeMu      sync.Mutex
	clients      map[string]*websocket.Conn
	writeTimeout time.Duration
	last         *model.BroadcastPacket
	packetIdx    int
}

func NewRealtimeBroadcaster(config model.Config) *RealtimeBroadcaster {
	rb := &RealtimeBroadcaster{
		clients:      make(map[string]*websocket.Conn),
		writeTimeout: config.RealtimeBroadcaster.WriteTimeout,
	}
	if rb.writeTimeout <= 0 {
		rb.writeTimeout = time.Second
	}
	slog.Info("リアルタイムブロードキャスターを初期化しました")
	return rb
}

// Register adds a viewer and sends it the latest packet. The returned id is
// passed to Unregister.
func (rb *RealtimeBroadcaster) Register(conn *websocket.Conn) string {
	id := uuid.NewString()
	rb.mu.Lock()
	rb.clients[id] = conn
	last := rb.last
	rb.mu.Unlock()
	slog.Info("視聴者が接続しました", "viewer", id, "remote_addr", conn.RemoteAddr().String())
	if last != nil {
		if err := rb.write(conn, *last); err != nil {
			rb.Unregister(id)
		}
	}
	return id
}

func (rb *RealtimeBroadcaster) Unregister(id string) {
	rb.mu.Lock()
	conn, exists := rb.clients[id]
	delete(rb.clients, id)
	rb.mu.Unlock()
	if exists {
		conn.Close()
		slog.Info("視聴者が切断しました", "viewer", id)
	}
}

func (rb *RealtimeBroadcaster) ClientCount() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.clients)
}

// Broadcast stamps the packet with the next sequence number and writes it to
// every viewer. Viewers that fail a write are dropped.
func (rb *RealtimeBroadcaster) Broadcast(packet model.BroadcastPacket) {
	rb.mu.Lock()
	rb.packetIdx++
	packet.Idx = rb.packetIdx
	rb.last = &packet
	clients := make(map[string]*websocket.Conn, len(rb.clients))
	for id, conn := range rb.clients {
		clients[id] = conn
	}
	rb.mu.Unlock()

	for id, conn := range clients {
		if err := rb.write(conn, packet); err != nil {
			slog.Warn("視聴者への送信に失敗しました", "viewer", id, "error", err)
			rb.Unregister(id)
		}
	}
}

func (rb *RealtimeBroadcaster) write(conn *websocket.Conn, packet model.BroadcastPacket) error {
	data, err := json.Marshal(packet)
	if err != nil {
		slog.Error("パケットのJSON化に失敗しました", "error", err)
		return err
	}
	rb.writeMu.Lock()
	defer rb.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(rb.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (rb *RealtimeBroadcaster) Close() {
	rb.mu.Lock()
	clients := rb.clients
	rb.clients = make(map[string]*websocket.Conn)
	rb.mu.Unlock()
	for _, conn := range clients {
		conn.Close()
	}
}
