package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/ports"
)

type fakeSession struct {
	mu      sync.Mutex
	surface ports.RenderSurface
	actions []string
	closed  chan struct{}
}

func (f *fakeSession) Dispatch(name string, args []string) error {
	f.mu.Lock()
	f.actions = append(f.actions, name)
	f.mu.Unlock()

	if name != "city" {
		return fmt.Errorf("unknown action: %s", name)
	}
	f.surface.RenderAuth(ports.AuthView{Step: "PHONE_ENTRY", City: strings.Join(args, " ")})
	return nil
}

func (f *fakeSession) Close() { close(f.closed) }

func newBridgeServer(t *testing.T) (*httptest.Server, chan *fakeSession, chan string) {
	t.Helper()
	log := logger.New("bridge-test")
	log.SetOutput(io.Discard)

	sessions := make(chan *fakeSession, 1)
	devices := make(chan string, 1)
	bridge := NewBridge(log, func(_ context.Context, deviceID string, surface ports.RenderSurface) (Session, error) {
		s := &fakeSession{surface: surface, closed: make(chan struct{})}
		surface.RenderAuth(ports.AuthView{Step: "CITY_SELECTION"})
		sessions <- s
		devices <- deviceID
		return s, nil
	})
	bridge.HelloTimeout = time.Second

	srv := httptest.NewServer(bridge)
	t.Cleanup(srv.Close)
	return srv, sessions, devices
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, into any) string {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var head contracts.BridgeFrame
	require.NoError(t, json.Unmarshal(raw, &head))
	if into != nil {
		require.NoError(t, json.Unmarshal(raw, into))
	}
	return head.Type
}

func TestBridge_HelloThenActions(t *testing.T) {
	srv, sessions, devices := newBridgeServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(contracts.HelloFrame{Type: contracts.FrameHello, DeviceID: "tablet-7"}))

	var hello contracts.HelloFrame
	assert.Equal(t, contracts.FrameHello, readFrame(t, conn, &hello))
	assert.Equal(t, "tablet-7", hello.DeviceID)
	assert.Equal(t, "tablet-7", <-devices)

	var render contracts.RenderFrame
	require.Equal(t, contracts.FrameRender, readFrame(t, conn, &render))
	assert.Equal(t, SurfaceAuth, render.Surface)
	assert.Equal(t, "tablet-7", render.DeviceID)

	require.NoError(t, conn.WriteJSON(contracts.ActionFrame{Type: contracts.FrameAction, Name: "city", Args: []string{"İstanbul"}}))
	require.Equal(t, contracts.FrameRender, readFrame(t, conn, &render))
	var view ports.AuthView
	require.NoError(t, json.Unmarshal(render.View, &view))
	assert.Equal(t, "PHONE_ENTRY", view.Step)
	assert.Equal(t, "İstanbul", view.City)

	require.NoError(t, conn.WriteJSON(contracts.ActionFrame{Type: contracts.FrameAction, Name: "fly"}))
	var errFrame contracts.ErrorFrame
	require.Equal(t, contracts.FrameError, readFrame(t, conn, &errFrame))
	assert.Contains(t, errFrame.Message, "fly")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.Equal(t, contracts.FrameError, readFrame(t, conn, nil))

	session := <-sessions
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	select {
	case <-session.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("session was not closed")
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, []string{"city", "fly"}, session.actions)
}

func TestBridge_AssignsDeviceID(t *testing.T) {
	srv, _, devices := newBridgeServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(contracts.HelloFrame{Type: contracts.FrameHello}))

	var hello contracts.HelloFrame
	require.Equal(t, contracts.FrameHello, readFrame(t, conn, &hello))
	assert.Len(t, hello.DeviceID, 36)
	assert.Equal(t, hello.DeviceID, <-devices)
}

func TestBridge_RejectsMissingHello(t *testing.T) {
	srv, _, devices := newBridgeServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(contracts.ActionFrame{Type: contracts.FrameAction, Name: "city"}))

	assert.Equal(t, contracts.FrameError, readFrame(t, conn, nil))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	assert.Empty(t, devices)
}

func TestBridge_ReplacesOlderConnectionForDevice(t *testing.T) {
	log := logger.New("bridge-test")
	log.SetOutput(io.Discard)

	sessions := make(chan *fakeSession, 2)
	bridge := NewBridge(log, func(_ context.Context, _ string, surface ports.RenderSurface) (Session, error) {
		s := &fakeSession{surface: surface, closed: make(chan struct{})}
		sessions <- s
		return s, nil
	})
	srv := httptest.NewServer(bridge)
	t.Cleanup(srv.Close)

	first := dial(t, srv)
	require.NoError(t, first.WriteJSON(contracts.HelloFrame{Type: contracts.FrameHello, DeviceID: "tablet-7"}))
	require.Equal(t, contracts.FrameHello, readFrame(t, first, nil))
	older := <-sessions

	second := dial(t, srv)
	require.NoError(t, second.WriteJSON(contracts.HelloFrame{Type: contracts.FrameHello, DeviceID: "tablet-7"}))

	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, CloseReplaced), "older connection is told it was replaced")

	require.Equal(t, contracts.FrameHello, readFrame(t, second, nil))
	newer := <-sessions
	select {
	case <-older.closed:
	default:
		t.Fatal("older portal must stop before the newer one opens")
	}
	assert.Equal(t, []string{"tablet-7"}, bridge.Connected())

	require.NoError(t, second.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	select {
	case <-newer.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("newer session was not closed")
	}
	assert.Eventually(t, func() bool { return len(bridge.Connected()) == 0 }, 5*time.Second, 10*time.Millisecond)
}
