package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// ErrorObject is emitted only for error logs.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// LogEntry is the single-line JSON format written to the logger output.
type LogEntry struct {
	Timestamp string       `json:"timestamp"`            // RFC 3339, UTC
	Level     string       `json:"level"`                // DEBUG | INFO | ERROR
	Service   string       `json:"service"`              // front-end name, e.g. portal-bridge
	Action    string       `json:"action"`               // event name, e.g. otp_verified
	Message   string       `json:"message"`              // human-readable description
	Hostname  string       `json:"hostname"`             // host running the front-end
	RequestID string       `json:"request_id,omitempty"` // correlation id of the triggering action
	DeviceID  string       `json:"device_id,omitempty"`  // bridge device
	DriverID  string       `json:"driver_id,omitempty"`  // signed-in driver
	Details   any          `json:"details,omitempty"`    // extra fields, map or struct
	Error     *ErrorObject `json:"error,omitempty"`
}

// Logger writes LogEntry lines. It is safe for concurrent use.
type Logger struct {
	service  string
	hostname string

	mu    sync.Mutex
	debug bool
	out   io.Writer
}

// New creates a structured logger for the given front-end.
func New(service string) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}
	return &Logger{service: service, hostname: hn, out: os.Stdout}
}

// SetOutput redirects log lines. Terminal mode writes to a file so stdout stays the UI.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// SetLevel enables DEBUG lines for "debug"; anything else logs INFO and above.
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	l.debug = strings.EqualFold(strings.TrimSpace(level), "debug")
	l.mu.Unlock()
}

// Debug writes a DEBUG line when the level allows it.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.mu.Lock()
	enabled := l.debug
	l.mu.Unlock()
	if enabled {
		l.emit(l.entry(ctx, LevelDebug, action, msg, details))
	}
}

// Info writes an INFO line.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.emit(l.entry(ctx, LevelInfo, action, msg, details))
}

// Error writes an ERROR line with the error text and the current stack.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	e := l.entry(ctx, LevelError, action, msg, details)
	e.Error = &ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	}
	l.emit(e)
}

func (l *Logger) entry(ctx context.Context, level, action, msg string, details any) LogEntry {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "unspecified"
	}
	return LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Message:   strings.TrimSpace(msg),
		Hostname:  l.hostname,
		RequestID: fromCtx(ctx, ctxKeyRequestID),
		DeviceID:  fromCtx(ctx, ctxKeyDeviceID),
		DriverID:  fromCtx(ctx, ctxKeyDriverID),
		Details:   details,
	}
}

// emit writes e as one JSON line. Unencodable details are dropped before
// giving up on the line.
func (l *Logger) emit(e LogEntry) {
	b, err := json.Marshal(e)
	if err != nil {
		e.Details = map[string]any{"marshal_error": err.Error()}
		b, err = json.Marshal(e)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
		return
	}
	fmt.Fprintln(l.out, string(b))
}

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "portal_request_id"
	ctxKeyDeviceID  ctxKey = "portal_device_id"
	ctxKeyDriverID  ctxKey = "portal_driver_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	return withValue(ctx, ctxKeyRequestID, reqID)
}

// WithDeviceID returns a new context carrying device_id.
func (l *Logger) WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return withValue(ctx, ctxKeyDeviceID, deviceID)
}

// WithDriverID returns a new context carrying driver_id.
func (l *Logger) WithDriverID(ctx context.Context, driverID string) context.Context {
	return withValue(ctx, ctxKeyDriverID, driverID)
}

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if strings.TrimSpace(v) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func fromCtx(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
