package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/viewport"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	viewerOutBuffer   = 256
	viewerFrameBuffer = 2
	writeTimeout      = 5 * time.Second
	readTimeout       = 60 * time.Second
	maxClientMessage  = 4 * 1024
)

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

// handleWS поток сцены для одного зрителя.
// Сначала SNAPSHOT, затем NODE_ADDED/ASSET_FAILED из шины и FRAME из цикла отрисовки.
// Сообщения ORBIT/ZOOM/RESIZE управляют общей камерой.
func (rs *RestServer) handleWS(c *gin.Context) {
	conn, err := rs.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("⚠️ /ws: upgrade: %v", err)
		return
	}
	defer conn.Close()

	vid := fmt.Sprintf("V%d", rs.nextViewer.Add(1))
	rs.viewers.Add(1)
	defer rs.viewers.Add(-1)

	ctx, cancel := context.WithCancel(rs.ctx)
	defer cancel()

	dataOut := make(chan []byte, viewerOutBuffer)

	// Подписка до снимка: узел, добавленный между ними, придет дважды,
	// клиент различает узлы по ID.
	if rs.bus != nil {
		sub, err := rs.bus.Subscribe(ctx, eventbus.Filter{
			Types:   []string{eventbus.EventNodeAdded, eventbus.EventAssetFailed},
			Sources: []string{scene.EventSource},
		}, func(ctx context.Context, ev *eventbus.Envelope) {
			msg, err := eventMessage(ev)
			if err != nil {
				logging.Warn("⚠️ %s: событие %s: %v", vid, ev.EventType, err)
				return
			}
			rs.enqueue(dataOut, msg)
		})
		if err != nil {
			logging.Warn("⚠️ %s: подписка на шину: %v", vid, err)
		} else {
			defer sub.Unsubscribe()
		}
	}

	var frames <-chan viewport.Frame
	if rs.loop != nil {
		ch, unsubscribe := rs.loop.Subscribe(viewerFrameBuffer)
		defer unsubscribe()
		frames = ch
	}

	snapshot, err := json.Marshal(rs.snapshot())
	if err != nil {
		logging.Error("❌ %s: снимок сцены: %v", vid, err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
		return
	}
	logging.Info("👁️ Зритель %s подключен (%s)", vid, c.ClientIP())

	// Writer goroutine.
	writeErr := make(chan error, 1)
	go func() {
		for {
			var b []byte
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case b = <-dataOut:
			case f, ok := <-frames:
				if !ok {
					frames = nil
					continue
				}
				var err error
				if b, err = json.Marshal(FrameMsg{Type: MsgFrame, Frame: f}); err != nil {
					continue
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				writeErr <- err
				return
			}
		}
	}()

	// Reader loop: ввод пользователя.
	conn.SetReadLimit(maxClientMessage)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg ClientMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			logging.Debug("%s: некорректное сообщение: %v", vid, err)
			continue
		}
		if err := applyClientMsg(rs.rc.Controls, msg); err != nil {
			logging.Debug("%s: %v", vid, err)
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	// Ждем writer, чтобы он не пережил соединение.
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	logging.Info("👋 Зритель %s отключен", vid)
}

// enqueue не блокирует шину: медленный зритель теряет сообщения
func (rs *RestServer) enqueue(out chan<- []byte, msg []byte) {
	select {
	case out <- msg:
	default:
		rs.dropped.Inc()
	}
}

func eventMessage(ev *eventbus.Envelope) ([]byte, error) {
	switch ev.EventType {
	case eventbus.EventNodeAdded:
		return json.Marshal(NodeAddedMsg{Type: MsgNodeAdded, Node: ev.Payload})
	case eventbus.EventAssetFailed:
		return json.Marshal(AssetFailedMsg{Type: MsgAssetFailed, Failure: ev.Payload})
	default:
		return nil, fmt.Errorf("unexpected event type %s", ev.EventType)
	}
}
