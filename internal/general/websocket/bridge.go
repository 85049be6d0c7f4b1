// Package websocket serves the bridge front-end: every browser connection
// drives its own portal and receives render frames as JSON.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/ports"
)

// replaceWait bounds how long a reconnect waits for the replaced portal to stop.
const replaceWait = 5 * time.Second

// Session is one connection's portal.
type Session interface {
	Dispatch(name string, args []string) error
	Close()
}

// Opener builds the portal for a device. surface receives its renders.
type Opener func(ctx context.Context, deviceID string, surface ports.RenderSurface) (Session, error)

// Bridge upgrades HTTP requests and runs the hello/action protocol.
type Bridge struct {
	logger       *logger.Logger
	open         Opener
	upgrader     websocket.Upgrader
	hub          *hub
	HelloTimeout time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

func NewBridge(logger *logger.Logger, open Opener) *Bridge {
	return &Bridge{
		logger: logger,
		open:   open,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		HelloTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Connected lists the devices with a live connection.
func (b *Bridge) Connected() []string {
	return b.hub.connected()
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer ws.Close()
	conn := newConn(ws)

	ws.SetReadLimit(1 << 20) // 1 MiB
	if err := ws.SetReadDeadline(time.Now().Add(b.HelloTimeout)); err != nil {
		b.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		return
	}

	deviceID, ok := b.readHello(r.Context(), conn)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(b.logger.WithDeviceID(context.WithoutCancel(r.Context()), deviceID))
	defer cancel()

	entry, prev := b.hub.add(deviceID, conn)
	defer b.hub.remove(deviceID, entry)
	if prev != nil {
		b.logger.Info(ctx, "ws_replaced", "Newer connection took over the device", map[string]any{"device_id": deviceID})
		select {
		case <-prev.done:
		case <-time.After(replaceWait):
		}
	}
	surface := NewSurface(ctx, conn, deviceID, b.logger)

	if err := conn.WriteJSON(contracts.HelloFrame{Type: contracts.FrameHello, DeviceID: deviceID}); err != nil {
		b.logger.Error(ctx, "ws_hello_ack_failed", "Failed to acknowledge hello", err, nil)
		return
	}

	session, err := b.open(ctx, deviceID, surface)
	if err != nil {
		b.logger.Error(ctx, "bridge_open_failed", "Failed to open portal for device", err, map[string]any{"device_id": deviceID})
		_ = conn.WriteJSON(contracts.ErrorFrame{Type: contracts.FrameError, Message: "portal unavailable"})
		conn.WriteClose(websocket.CloseInternalServerErr, "internal error")
		return
	}
	defer session.Close()

	b.logger.Info(ctx, "ws_connected", "Bridge client connected", map[string]any{"device_id": deviceID})

	_ = ws.SetReadDeadline(time.Now().Add(b.ReadTimeout))
	ws.SetPongHandler(func(_ string) error {
		return ws.SetReadDeadline(time.Now().Add(b.ReadTimeout))
	})

	go b.pingLoop(ctx, conn, deviceID)

	for {
		_ = ws.SetReadDeadline(time.Now().Add(b.ReadTimeout))
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Error(ctx, "ws_unexpected_close", "Bridge connection closed unexpectedly", err, map[string]any{"device_id": deviceID})
			} else {
				b.logger.Info(ctx, "ws_connection_closed", "Bridge connection closed", map[string]any{"device_id": deviceID})
			}
			conn.WriteClose(websocket.CloseNormalClosure, "bye")
			return
		}

		var frame contracts.ActionFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Type != contracts.FrameAction {
			_ = conn.WriteJSON(contracts.ErrorFrame{Type: contracts.FrameError, Message: "expected an action frame"})
			continue
		}

		if err := session.Dispatch(frame.Name, frame.Args); err != nil {
			b.logger.Debug(ctx, "bridge_action_rejected", "Action rejected", map[string]any{
				"device_id": deviceID,
				"action":    frame.Name,
				"error":     err.Error(),
			})
			_ = conn.WriteJSON(contracts.ErrorFrame{Type: contracts.FrameError, Message: err.Error()})
		}
	}
}

// readHello waits for the first frame and returns the device id, generating one when empty.
func (b *Bridge) readHello(ctx context.Context, conn *Conn) (string, bool) {
	mt, first, err := conn.ws.ReadMessage()
	if err != nil {
		b.logger.Error(ctx, "ws_hello_read_failed", "Client sent no hello", err, nil)
		return "", false
	}

	var hello contracts.HelloFrame
	if mt != websocket.TextMessage || json.Unmarshal(first, &hello) != nil || hello.Type != contracts.FrameHello {
		b.logger.Error(ctx, "ws_hello_invalid", "First frame must be a hello", nil, nil)
		_ = conn.WriteJSON(contracts.ErrorFrame{Type: contracts.FrameError, Message: "first frame must be a hello"})
		conn.WriteClose(websocket.ClosePolicyViolation, "hello required")
		return "", false
	}

	deviceID := strings.TrimSpace(hello.DeviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	return deviceID, true
}

func (b *Bridge) pingLoop(ctx context.Context, conn *Conn, deviceID string) {
	ticker := time.NewTicker(b.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				// closing unblocks the reader
				_ = conn.ws.Close()
				b.logger.Debug(ctx, "ws_ping_failed", "Failed to send ping", map[string]any{"device_id": deviceID, "error": err.Error()})
				return
			}
		}
	}
}
