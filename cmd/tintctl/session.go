package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// Session - reducer-driven editing session
// ============================================================================
//
// One goroutine owns the session: it receives actions from every input
// source, emits ticks on a fixed cadence, reduces both into state and
// commands, and executes the commands synchronously before taking the next
// event. Input producers only send on the events channel.
//
// ============================================================================

// Session is one editing session against the tint service.
type Session struct {
	state  *SessionState
	cfg    *EditorConfig
	client TintClientInterface
	store  ConfigStore
	set    ProfileSet
	logger *slog.Logger

	eventQueue []Event
	cmdQueue   []Command

	initialized bool
	closed      bool
}

// OpenSession runs the start-up sequence and returns a session in one of the
// three presentations:
//
//   - service not running: ServiceInactive;
//   - any start-up step failed before a profile was opened: Error (on the
//     first tick);
//   - otherwise: Editor on the profile bound to the current performance mode.
//
// Steps after the first failure are skipped.
func OpenSession(client TintClientInterface, store ConfigStore, cfg *EditorConfig, logger *slog.Logger, now time.Time) *Session {
	s := &Session{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger,
		set:    DefaultProfileSet(cfg.Limits),
	}

	res := InitResult{ProfileID: ProfileIDInvalid}

	serviceActive, err := client.IsServiceActive()
	switch {
	case err != nil:
		logger.Warn("could not query tint service", "result", ResultOf(err).Error(), "error", err)
	case !serviceActive:
		logger.Warn("tint service is not active")
	default:
		res.ServiceActive = true
	}

	if res.ServiceActive {
		res = s.initialize(res)
	}

	s.state = NewSessionState(res, cfg, now)
	logger.Info("session opened",
		"presentation", s.state.Presentation.String(),
		"profile_id", s.state.ProfileID.String(),
		"active", s.state.Active,
		"is_day", s.state.IsDay)
	return s
}

func (s *Session) initialize(res InitResult) InitResult {
	fail := func(step string, err error) InitResult {
		s.logger.Error("session initialization failed", "step", step,
			"result", ResultOf(err).Error(), "error", err)
		res.Err = fmt.Errorf("%s: %w", step, err)
		return res
	}

	if err := s.client.Initialize(); err != nil {
		return fail("initialize", err)
	}
	s.initialized = true

	// An unreadable store leaves the defaults in place; the next Close
	// rewrites it.
	if set, err := s.store.Read(); err != nil {
		s.logger.Warn("could not read profile store, using defaults", "error", err)
	} else {
		s.set = set
	}

	active, err := s.client.GetIsActive()
	if err != nil {
		return fail("get active", err)
	}
	res.Active = active

	mode, err := s.client.GetPerformanceMode()
	if err != nil {
		return fail("get performance mode", err)
	}

	id := s.set.ProfileFor(mode)
	profile, err := s.client.OpenProfile(id)
	if err != nil {
		return fail("open profile", err)
	}
	res.ProfileID = id
	res.Profile = profile

	s.logger.Debug("profile opened", "profile_id", id.String(), "mode", mode.String())
	return res
}

// State returns the current state. Callers must not modify it.
func (s *Session) State() *SessionState { return s.state }

// Dispatch reduces ev and runs every resulting command, feeding observations
// back in until both queues drain.
func (s *Session) Dispatch(ev Event) {
	s.eventQueue = append(s.eventQueue, ev)
	s.flushEvents()
	s.flushCommands()
}

// execute runs commands that did not come out of the reducer.
func (s *Session) execute(cmds ...Command) {
	s.cmdQueue = append(s.cmdQueue, cmds...)
	s.flushCommands()
}

func (s *Session) flushEvents() {
	for len(s.eventQueue) > 0 {
		ev := s.eventQueue[0]
		s.eventQueue = s.eventQueue[1:]

		rr := Reduce(s.state, ev, s.cfg)
		if rr.State != nil {
			s.state = rr.State
		}
		s.cmdQueue = append(s.cmdQueue, rr.Commands...)
	}
}

func (s *Session) flushCommands() {
	for len(s.cmdQueue) > 0 {
		cmd := s.cmdQueue[0]
		s.cmdQueue = s.cmdQueue[1:]

		runEffect(s.client, cmd, s.logger, func(obs Event) {
			s.eventQueue = append(s.eventQueue, obs)
		})

		s.flushEvents()
	}
}

// Run drives the session until the user quits, ctx is canceled, or events
// is closed. render, if non-nil, is called after every event and tick.
func (s *Session) Run(ctx context.Context, events <-chan Event, tickHz int, render func(*SessionState)) error {
	if tickHz <= 0 {
		return errors.New("tick rate must be > 0")
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()

	if render != nil {
		render(s.state)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopping (context canceled)")
			return nil

		case ev, ok := <-events:
			if !ok {
				s.logger.Info("session stopping (events channel closed)")
				return nil
			}
			s.Dispatch(TimedEvent{Event: ev, At: time.Now()})

		case now := <-ticker.C:
			s.Dispatch(Tick{Now: now})
		}

		if render != nil {
			render(s.state)
		}
		if s.state.Quit {
			s.logger.Info("session stopping (quit)")
			return nil
		}
	}
}

// Close tears the session down: a pending commit is flushed, the profile
// set is persisted, and the service session is closed, in that order and
// without cancellation. Calling Close more than once is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error

	if s.state.ProfileID.Valid() {
		if s.state.Debounce.Pending() {
			s.execute(s.state.applyCommand("teardown"))
		}

		s.set.Profiles[s.state.ProfileID] = s.state.Profile
		s.set.Active = s.state.Active
		if err := s.store.Write(s.set); err != nil {
			s.logger.Error("failed to persist profiles", "error", err)
			errs = append(errs, fmt.Errorf("write config: %w", err))
		}
	}

	if s.initialized {
		if err := s.client.Exit(); err != nil {
			errs = append(errs, fmt.Errorf("exit: %w", err))
		}
	}

	s.logger.Info("session closed")
	return errors.Join(errs...)
}
