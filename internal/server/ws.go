package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Aman-CERP/livedoc/internal/cache"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	wsReadLimit = 512
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GenerationMessage is pushed to websocket clients on every publish, and
// once right after connecting.
type GenerationMessage struct {
	Type       string  `json:"type"`
	Generation uint64  `json:"generation"`
	Timestamp  float64 `json:"timestamp"`
	Modules    int     `json:"modules"`
}

func generationMessage(ev cache.Event) GenerationMessage {
	return GenerationMessage{
		Type:       "generation",
		Generation: ev.Generation,
		Timestamp:  unixSeconds(ev.Timestamp),
		Modules:    ev.Modules,
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		readPump(conn)
	}()

	gen := s.store.Current()
	first := cache.Event{Generation: gen.Seq, Timestamp: gen.Timestamp, Modules: len(gen.Documents)}
	if err := writeWS(conn, generationMessage(first)); err == nil {
		s.writePump(ctx, conn, events)
	}

	// Closing the connection unblocks the reader.
	_ = conn.Close()
	<-readerDone
}

// readPump discards client messages and keeps the read deadline alive on
// pongs. It returns when the connection fails or the client goes away.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, events <-chan cache.Event) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeWS(conn, generationMessage(ev)); err != nil {
				s.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, msg GenerationMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
