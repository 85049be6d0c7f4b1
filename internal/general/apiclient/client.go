// Package apiclient talks to the RiseGo driver portal backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"driver-portal/internal/domain/failure"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/metrics"
	"driver-portal/internal/ports"
)

const (
	// GenericFailure is shown when the backend says success=false without a message.
	GenericFailure = "Bir hata oluştu."

	maxBodyBytes = 1 << 20
)

// Request describes one backend call.
type Request struct {
	Method        string
	Path          string
	Body          any
	Authenticated bool          // send the stored token; 401 resets the session
	Token         string        // explicit token, no 401 handling
	Timeout       time.Duration // overrides the client default when > 0
}

// Options configures a Client.
type Options struct {
	BaseURL            string
	HTTPClient         *http.Client
	Timeout            time.Duration
	LeaderboardTimeout time.Duration
	RatePerSecond      float64
	Burst              int
	Metrics            metrics.Recorder
	Logger             *logger.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL            string
	http               *http.Client
	store              ports.SessionStore
	limiter            *rate.Limiter
	timeout            time.Duration
	leaderboardTimeout time.Duration
	metrics            metrics.Recorder
	log                *logger.Logger

	mu        sync.RWMutex
	onExpired func()
}

// New creates a Client reading tokens from store.
func New(store ports.SessionStore, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("portal-apiclient")
		opts.Logger.SetOutput(io.Discard)
	}
	if opts.LeaderboardTimeout <= 0 {
		opts.LeaderboardTimeout = 120 * time.Second
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:            strings.TrimRight(opts.BaseURL, "/"),
		http:               opts.HTTPClient,
		store:              store,
		limiter:            rate.NewLimiter(limit, burst),
		timeout:            opts.Timeout,
		leaderboardTimeout: opts.LeaderboardTimeout,
		metrics:            opts.Metrics,
		log:                opts.Logger,
	}
}

// OnSessionExpired registers the hook called after a 401 cleared the store.
// It runs on the calling goroutine, before Do returns.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// Do performs req and returns the raw JSON body of a success=true response.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.do(ctx, req)
	c.metrics.RecordRequest(req.Path, outcome(err), time.Since(start))
	return raw, err
}

func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportFailure(ctx, err)
	}

	token := req.Token
	if req.Authenticated {
		s, err := c.store.Get(ctx)
		if err != nil {
			return nil, failure.Unreachable(fmt.Errorf("read session: %w", err))
		}
		if !s.Authenticated() {
			return nil, c.expire(ctx, req, 0, "")
		}
		token = s.Token
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, failure.Unreachable(fmt.Errorf("encode %s body: %w", req.Path, err))
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, failure.Unreachable(err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(contracts.HeaderRequestID, requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set(contracts.HeaderSessionToken, token)
	}

	logCtx := c.log.WithRequestID(ctx, requestID)
	c.log.Debug(logCtx, "api_request", method+" "+req.Path, nil)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && req.Authenticated {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, c.expire(logCtx, req, resp.StatusCode, token)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportFailure(ctx, err)
	}

	var head contracts.Result
	if err := json.Unmarshal(raw, &head); err != nil {
		c.log.Debug(logCtx, "api_bad_body", "response is not JSON", map[string]any{
			"path":   req.Path,
			"status": resp.StatusCode,
		})
		return nil, &failure.Error{Kind: failure.KindUnreachable, Status: resp.StatusCode, Err: fmt.Errorf("decode %s: %w", req.Path, err)}
	}
	if !head.Success {
		msg := strings.TrimSpace(head.Message)
		if msg == "" {
			msg = GenericFailure
		}
		return nil, failure.Application(resp.StatusCode, msg)
	}

	return raw, nil
}

// expire clears the store and fires the hook. A rejected token that is no
// longer the stored one belongs to an ended session: a newer login must survive it.
func (c *Client) expire(ctx context.Context, req Request, status int, token string) error {
	storeCtx := context.WithoutCancel(ctx)
	if token != "" {
		if current, err := c.store.Get(storeCtx); err == nil && current.Token != token {
			c.log.Debug(ctx, "stale_token_rejected", "backend rejected a token that is no longer stored", map[string]any{"path": req.Path})
			return failure.SessionExpired(status)
		}
	}

	if err := c.store.Clear(storeCtx); err != nil {
		c.log.Error(ctx, "session_clear_failed", "could not clear session after 401", err, map[string]any{"path": req.Path})
	}
	c.metrics.RecordSessionExpired()
	c.log.Info(ctx, "session_expired", "backend rejected the session token", map[string]any{"path": req.Path, "status": status})

	c.mu.RLock()
	hook := c.onExpired
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}
	return failure.SessionExpired(status)
}

func transportFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Timeout(err)
	}
	return failure.Unreachable(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := failure.KindOf(err); k != "" {
		return strings.ToLower(k.String())
	}
	return "error"
}

// call runs req and decodes the success body into out.
func (c *Client) call(ctx context.Context, req Request, out any) error {
	raw, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return failure.Unreachable(fmt.Errorf("decode %s: %w", req.Path, err))
	}
	return nil
}
