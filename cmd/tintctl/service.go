package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================================
// Tint service wire protocol
// ============================================================================
// One JSON text frame per request, one per response:
//
//	-> {"id": "<uuid>", "method": "GetProfile", "params": {"id": 0}}
//	<- {"id": "<uuid>", "result": 0, "value": {...}}
//
// A non-zero result is a Result code; value is then absent.
// ============================================================================

const (
	methodInitialize         = "Initialize"
	methodIsServiceActive    = "IsServiceActive"
	methodGetIsActive        = "GetIsActive"
	methodSetIsActive        = "SetIsActive"
	methodGetPerformanceMode = "GetPerformanceMode"
	methodGetProfile         = "GetProfile"
	methodSetProfile         = "SetProfile"
	methodGetActiveProfileID = "GetActiveProfileId"
	methodSetActiveProfileID = "SetActiveProfileId"
)

type rpcRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result uint32          `json:"result"`
	Value  json.RawMessage `json:"value,omitempty"`
}

type profileParams struct {
	ID      ProfileID `json:"id"`
	Profile *Profile  `json:"profile,omitempty"`
}

type activeParams struct {
	Active bool `json:"active"`
}

type activeProfileParams struct {
	External bool      `json:"external"`
	ID       ProfileID `json:"id"`
}

// TintClientInterface is the tint service as the session sees it.
// It allows for mocking in tests.
type TintClientInterface interface {
	Initialize() error
	IsServiceActive() (bool, error)
	GetIsActive() (bool, error)
	SetIsActive(active bool) error
	GetPerformanceMode() (PerformanceMode, error)
	OpenProfile(id ProfileID) (Profile, error)
	Apply(id ProfileID, p Profile) error
	Exit() error
}

// TintClient talks to the tint service over a websocket.
type TintClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
	attempts    int
	retryDelay  time.Duration
}

// NewTintClient validates the URL. The connection is established lazily by
// the first call.
func NewTintClient(cfg ServiceConfig, logger *slog.Logger) (*TintClient, error) {
	if _, err := url.Parse(cfg.WsURL); err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &TintClient{
		url:         cfg.WsURL,
		logger:      logger,
		readTimeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		attempts:    attempts,
		retryDelay:  time.Duration(cfg.RetryDelayMS) * time.Millisecond,
	}, nil
}

// connect establishes a websocket connection to the service.
func (c *TintClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	return nil
}

// connectWithRetry makes up to c.attempts connection attempts.
func (c *TintClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.retryDelay)
		}
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to tint service", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("connection failed", "error", err, "attempt", attempt+1)
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", c.attempts, lastErr)
}

// ensureConnected reconnects if the connection was never made or broke.
func (c *TintClient) ensureConnected() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.connectWithRetry()
}

// sendAndRead sends one request and waits for its response.
func (c *TintClient) sendAndRead(req rpcRequest) (rpcResponse, error) {
	if err := c.ensureConnected(); err != nil {
		return rpcResponse{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return rpcResponse{}, errors.New("no websocket connection")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn.Close()
		c.conn = nil // Mark connection as broken
		return rpcResponse{}, err
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetReadDeadline(time.Time{})
		}
	}()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn.Close()
		c.conn = nil // Mark connection as broken
		return rpcResponse{}, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return rpcResponse{}, fmt.Errorf("%w: %v", ResultMalformedResponse, err)
	}
	if resp.ID != req.ID {
		return rpcResponse{}, fmt.Errorf("%w: response id %q does not match request id %q", ResultMalformedResponse, resp.ID, req.ID)
	}
	return resp, nil
}

// call performs one method call. params and out may be nil.
func (c *TintClient) call(method string, params, out any) error {
	req := rpcRequest{ID: uuid.NewString(), Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: marshal params: %w", method, err)
		}
		req.Params = b
	}

	resp, err := c.sendAndRead(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if r := Result(resp.Result); !r.Succeeded() {
		c.logger.Debug("tint service call failed", "method", method, "result", r.Error())
		return fmt.Errorf("%s: %w", method, r)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Value, out); err != nil {
			return fmt.Errorf("%s: %w: %v", method, ResultMalformedResponse, err)
		}
	}

	c.logger.Debug("tint service call", "method", method)
	return nil
}

// Initialize connects and opens a session with the service.
func (c *TintClient) Initialize() error {
	return c.call(methodInitialize, nil, nil)
}

// IsServiceActive reports whether the background service is running.
func (c *TintClient) IsServiceActive() (bool, error) {
	var active bool
	err := c.call(methodIsServiceActive, nil, &active)
	return active, err
}

// GetIsActive reports whether color correction is switched on.
func (c *TintClient) GetIsActive() (bool, error) {
	var active bool
	err := c.call(methodGetIsActive, nil, &active)
	return active, err
}

// SetIsActive switches color correction on or off.
func (c *TintClient) SetIsActive(active bool) error {
	return c.call(methodSetIsActive, activeParams{Active: active}, nil)
}

// GetPerformanceMode reports which profile binding is in effect.
func (c *TintClient) GetPerformanceMode() (PerformanceMode, error) {
	var mode PerformanceMode
	err := c.call(methodGetPerformanceMode, nil, &mode)
	return mode, err
}

// OpenProfile fetches a stored profile.
func (c *TintClient) OpenProfile(id ProfileID) (Profile, error) {
	if !id.Valid() {
		return Profile{}, fmt.Errorf("%s: %w", methodGetProfile, ResultInvalidProfileID)
	}
	var p Profile
	err := c.call(methodGetProfile, profileParams{ID: id}, &p)
	return p, err
}

// Apply stores p as profile id. The service makes it live if id is bound to
// a performance mode.
func (c *TintClient) Apply(id ProfileID, p Profile) error {
	if !id.Valid() {
		return fmt.Errorf("%s: %w", methodSetProfile, ResultInvalidProfileID)
	}
	return c.call(methodSetProfile, profileParams{ID: id, Profile: &p}, nil)
}

// Exit ends the session and closes the connection.
func (c *TintClient) Exit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	return nil
}
