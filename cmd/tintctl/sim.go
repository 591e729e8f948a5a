package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// Tint service simulator
// ============================================================================
// An in-process stand-in for the tint service that speaks the same
// websocket protocol. It backs the service-sim subcommand and the client
// tests. Profiles live in memory, seeded from the config store.
// ============================================================================

const simPath = "/tint"

// simService is the simulated service state shared by all connections.
type simService struct {
	mu sync.Mutex

	serviceActive bool
	active        bool
	mode          PerformanceMode
	set           ProfileSet
	live          *Profile

	// failSetProfile, when non-zero, is returned by every SetProfile.
	failSetProfile Result

	logger *slog.Logger
}

// simSession is per-connection state.
type simSession struct {
	initialized bool
}

func newSimService(set ProfileSet, mode PerformanceMode, serviceActive bool, logger *slog.Logger) *simService {
	return &simService{
		serviceActive: serviceActive,
		active:        set.Active,
		mode:          mode,
		set:           set,
		logger:        logger,
	}
}

// handleRequest executes one request against the simulated state.
func (s *simService) handleRequest(sess *simSession, req rpcRequest) rpcResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := rpcResponse{ID: req.ID}
	fail := func(r Result) rpcResponse {
		resp.Result = uint32(r)
		return resp
	}
	reply := func(v any) rpcResponse {
		b, err := json.Marshal(v)
		if err != nil {
			return fail(ResultMalformedResponse)
		}
		resp.Value = b
		return resp
	}

	if req.Method == methodIsServiceActive {
		return reply(s.serviceActive)
	}
	if !s.serviceActive {
		return fail(ResultServiceInactive)
	}
	if req.Method == methodInitialize {
		sess.initialized = true
		return resp
	}

	switch req.Method {
	case methodGetIsActive, methodSetIsActive, methodGetPerformanceMode,
		methodGetProfile, methodSetProfile, methodGetActiveProfileID, methodSetActiveProfileID:
		if !sess.initialized {
			return fail(ResultNotInitialized)
		}
	default:
		s.logger.Warn("sim: unknown method", "method", req.Method)
		return fail(ResultUnknownCommand)
	}

	switch req.Method {
	case methodGetIsActive:
		return reply(s.active)

	case methodSetIsActive:
		var p activeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(ResultMalformedResponse)
		}
		s.active = p.Active
		s.logger.Info("sim: correction toggled", "active", p.Active)
		return resp

	case methodGetPerformanceMode:
		return reply(s.mode)

	case methodGetProfile:
		var p profileParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(ResultMalformedResponse)
		}
		if !p.ID.Valid() {
			return fail(ResultInvalidProfileID)
		}
		return reply(s.set.Profiles[p.ID])

	case methodSetProfile:
		var p profileParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Profile == nil {
			return fail(ResultMalformedResponse)
		}
		if !p.ID.Valid() {
			return fail(ResultInvalidProfileID)
		}
		if s.failSetProfile != ResultSuccess {
			return fail(s.failSetProfile)
		}
		s.set.Profiles[p.ID] = *p.Profile
		if s.set.ProfileFor(s.mode) == p.ID {
			live := *p.Profile
			s.live = &live
			s.logger.Info("sim: profile live", "profile_id", p.ID.String())
		}
		return resp

	case methodGetActiveProfileID:
		var p activeProfileParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(ResultMalformedResponse)
		}
		if p.External {
			return reply(s.set.External)
		}
		return reply(s.set.Internal)

	case methodSetActiveProfileID:
		var p activeProfileParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(ResultMalformedResponse)
		}
		if !p.ID.Valid() {
			return fail(ResultInvalidProfileID)
		}
		if p.External {
			s.set.External = p.ID
		} else {
			s.set.Internal = p.ID
		}
		return resp
	}

	return fail(ResultUnknownCommand)
}

// liveProfile returns the profile most recently made live, if any.
func (s *simService) liveProfile() (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return Profile{}, false
	}
	return *s.live, true
}

var simUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and serves requests until the peer
// disconnects.
func (s *simService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := simUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("sim: ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("sim: client connected", "remote_addr", r.RemoteAddr)
	sess := &simSession{}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				s.logger.Info("sim: client disconnected", "remote_addr", r.RemoteAddr, "code", ce.Code)
			} else {
				s.logger.Info("sim: read error", "remote_addr", r.RemoteAddr, "error", err)
			}
			return
		}

		var req rpcRequest
		var resp rpcResponse
		if err := json.Unmarshal(msg, &req); err != nil {
			resp = rpcResponse{Result: uint32(ResultMalformedResponse)}
		} else {
			resp = s.handleRequest(sess, req)
		}
		s.logger.Debug("sim: request", "method", req.Method, "result", Result(resp.Result).Error())

		out, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("sim: marshal response", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			s.logger.Info("sim: write error", "remote_addr", r.RemoteAddr, "error", err)
			return
		}
	}
}

// runServiceSim serves the simulator on cfg.Listen and shuts it down
// gracefully when ctx is canceled.
func runServiceSim(ctx context.Context, cfg SimConfig, set ProfileSet, logger *slog.Logger) error {
	mode, err := ParsePerformanceMode(cfg.PerformanceMode)
	if err != nil {
		return err
	}

	svc := newSimService(set, mode, cfg.ServiceActive, logger)
	mux := http.NewServeMux()
	mux.Handle(simPath, svc)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	logger.Info("service simulator listening", "addr", cfg.Listen, "path", simPath,
		"mode", mode.String(), "service_active", cfg.ServiceActive)

	errCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
