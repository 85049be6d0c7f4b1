package contracts

import "encoding/json"

// Bridge frame types.
const (
	FrameHello  = "hello"
	FrameAction = "action"
	FrameRender = "render"
	FrameError  = "error"
)

// BridgeFrame is the envelope of every frame exchanged with a bridge client.
type BridgeFrame struct {
	Type string `json:"type"`
}

// HelloFrame opens a bridge conversation. An empty device id gets one assigned.
type HelloFrame struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id,omitempty"`
}

// ActionFrame carries one user action.
type ActionFrame struct {
	Type string   `json:"type"`
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// RenderFrame pushes one rendered view to the client.
type RenderFrame struct {
	Type     string          `json:"type"`
	Surface  string          `json:"surface"` // auth | profile | leaderboard | plate
	DeviceID string          `json:"device_id,omitempty"`
	View     json.RawMessage `json:"view"`
}

// ErrorFrame reports a malformed frame or unknown action.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
