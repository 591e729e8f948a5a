package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

// callLog records calls across the mock client and store so tests can
// assert on ordering.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// mockTintClient is a test double for TintClient
type mockTintClient struct {
	log *callLog

	serviceActive bool
	serviceErr    error
	initErr       error
	active        bool
	activeErr     error
	mode          PerformanceMode
	profiles      [profileCount]Profile
	openErr       error
	applyErr      error
	setActiveErr  error

	applied []Profile
}

func newMockTintClient(log *callLog) *mockTintClient {
	m := &mockTintClient{log: log, serviceActive: true, active: true}
	for i := range m.profiles {
		m.profiles[i] = DefaultProfile(DefaultLimits())
	}
	return m
}

func (m *mockTintClient) IsServiceActive() (bool, error) {
	m.log.add("IsServiceActive")
	return m.serviceActive, m.serviceErr
}

func (m *mockTintClient) Initialize() error {
	m.log.add("Initialize")
	return m.initErr
}

func (m *mockTintClient) GetIsActive() (bool, error) {
	m.log.add("GetIsActive")
	return m.active, m.activeErr
}

func (m *mockTintClient) SetIsActive(active bool) error {
	m.log.add("SetIsActive(%v)", active)
	if m.setActiveErr != nil {
		return m.setActiveErr
	}
	m.active = active
	return nil
}

func (m *mockTintClient) GetPerformanceMode() (PerformanceMode, error) {
	m.log.add("GetPerformanceMode")
	return m.mode, nil
}

func (m *mockTintClient) OpenProfile(id ProfileID) (Profile, error) {
	m.log.add("OpenProfile(%s)", id)
	if m.openErr != nil {
		return Profile{}, m.openErr
	}
	return m.profiles[id], nil
}

func (m *mockTintClient) Apply(id ProfileID, p Profile) error {
	m.log.add("Apply(%s)", id)
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, p)
	return nil
}

func (m *mockTintClient) Exit() error {
	m.log.add("Exit")
	return nil
}

// mockStore is an in-memory ConfigStore
type mockStore struct {
	log      *callLog
	set      ProfileSet
	readErr  error
	writeErr error
	writes   []ProfileSet
}

func (s *mockStore) Read() (ProfileSet, error) {
	s.log.add("Read")
	if s.readErr != nil {
		return ProfileSet{}, s.readErr
	}
	return s.set, nil
}

func (s *mockStore) Write(set ProfileSet) error {
	s.log.add("Write")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, set)
	s.set = set
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sessionFixture struct {
	log    *callLog
	client *mockTintClient
	store  *mockStore
	cfg    *EditorConfig
}

func newSessionFixture() *sessionFixture {
	log := &callLog{}
	cfg := newTestEditorConfig()
	return &sessionFixture{
		log:    log,
		client: newMockTintClient(log),
		store:  &mockStore{log: log, set: DefaultProfileSet(cfg.Limits)},
		cfg:    cfg,
	}
}

func (f *sessionFixture) open() *Session {
	return OpenSession(f.client, f.store, f.cfg, newTestLogger(), testNoon)
}

func (f *sessionFixture) tick(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Dispatch(Tick{Now: testNoon})
	}
}

func TestOpenSession_StartupSequence(t *testing.T) {
	f := newSessionFixture()
	f.client.mode = PerformanceModeOther
	f.client.profiles[ProfileID2].Day.Gamma = 1.8

	s := f.open()

	want := []string{"IsServiceActive", "Initialize", "Read", "GetIsActive", "GetPerformanceMode", "OpenProfile(2)"}
	if !reflect.DeepEqual(f.log.calls, want) {
		t.Fatalf("calls = %v, want %v", f.log.calls, want)
	}

	st := s.State()
	if st.Presentation != PresentationEditor || st.ProfileID != ProfileID2 {
		t.Errorf("unexpected state: presentation=%v profile=%v", st.Presentation, st.ProfileID)
	}
	if st.Profile.Day.Gamma != 1.8 {
		t.Errorf("profile not loaded from service: gamma=%v", st.Profile.Day.Gamma)
	}
	if st.Display.Header != "Editing profile: 2" {
		t.Errorf("header = %q", st.Display.Header)
	}
}

func TestOpenSession_ServiceInactive(t *testing.T) {
	f := newSessionFixture()
	f.client.serviceActive = false

	s := f.open()
	if s.State().Presentation != PresentationServiceInactive {
		t.Fatalf("expected service inactive, got %v", s.State().Presentation)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Nothing was opened, so nothing is persisted or exited.
	if want := []string{"IsServiceActive"}; !reflect.DeepEqual(f.log.calls, want) {
		t.Errorf("calls = %v, want %v", f.log.calls, want)
	}
}

func TestOpenSession_ServiceQueryErrorIsInactive(t *testing.T) {
	f := newSessionFixture()
	f.client.serviceErr = ResultTransport

	s := f.open()
	if s.State().Presentation != PresentationServiceInactive {
		t.Errorf("expected service inactive, got %v", s.State().Presentation)
	}
}

func TestOpenSession_InitFailureShowsError(t *testing.T) {
	f := newSessionFixture()
	f.client.openErr = fmt.Errorf("GetProfile: %w", ResultInvalidProfileID)

	s := f.open()
	f.tick(s, 1)

	st := s.State()
	if st.Presentation != PresentationError {
		t.Fatalf("expected error presentation, got %v", st.Presentation)
	}
	if got := ResultOf(st.InitErr); got != ResultInvalidProfileID {
		t.Errorf("init result = %v, want %v", got, ResultInvalidProfileID)
	}

	f.log.calls = nil
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// No profile to persist, but the opened service session is closed.
	if want := []string{"Exit"}; !reflect.DeepEqual(f.log.calls, want) {
		t.Errorf("teardown calls = %v, want %v", f.log.calls, want)
	}
}

func TestOpenSession_StoreReadErrorKeepsDefaults(t *testing.T) {
	f := newSessionFixture()
	f.client.mode = PerformanceModeOther
	f.store.set.External = ProfileID4
	f.store.readErr = errors.New("disk on fire")

	s := f.open()

	// The default set binds profile 2 to the external mode.
	want := []string{"IsServiceActive", "Initialize", "Read", "GetIsActive", "GetPerformanceMode", "OpenProfile(2)"}
	if !reflect.DeepEqual(f.log.calls, want) {
		t.Fatalf("calls = %v, want %v", f.log.calls, want)
	}
	st := s.State()
	if st.InitErr != nil {
		t.Fatalf("unexpected init error: %v", st.InitErr)
	}
	if st.Presentation != PresentationEditor || st.ProfileID != ProfileID2 {
		t.Errorf("unexpected state: presentation=%v profile=%v", st.Presentation, st.ProfileID)
	}
}

func TestOpenSession_StopsAtFirstFailure(t *testing.T) {
	f := newSessionFixture()
	f.client.activeErr = fmt.Errorf("GetIsActive: %w", ResultTransport)

	s := f.open()

	want := []string{"IsServiceActive", "Initialize", "Read", "GetIsActive"}
	if !reflect.DeepEqual(f.log.calls, want) {
		t.Fatalf("calls = %v, want %v", f.log.calls, want)
	}
	if s.State().InitErr == nil {
		t.Errorf("expected init error")
	}
}

func TestSession_DebouncedApply(t *testing.T) {
	f := newSessionFixture()
	s := f.open()
	f.log.calls = nil

	for _, pos := range []int{10, 20, 30} {
		s.Dispatch(TimedEvent{Event: SetParameter{Param: ParamHue, Position: pos}, At: testNoon})
	}
	f.tick(s, 2)
	if len(f.client.applied) != 0 {
		t.Fatalf("applied before quiet window elapsed")
	}
	f.tick(s, 1)
	if len(f.client.applied) != 1 {
		t.Fatalf("expected exactly one apply, got %d", len(f.client.applied))
	}
	if s.State().LastApply != ApplyStatusOK {
		t.Errorf("expected ok apply status")
	}

	f.tick(s, 10)
	if len(f.client.applied) != 1 {
		t.Errorf("expected no further applies, got %d", len(f.client.applied))
	}
}

func TestSession_ApplyFailureRetriesOnNextChange(t *testing.T) {
	f := newSessionFixture()
	f.client.applyErr = ResultTransport
	s := f.open()

	s.Dispatch(SetParameter{Param: ParamGamma, Position: 10})
	f.tick(s, 3)

	st := s.State()
	if st.LastApply != ApplyStatusFailed {
		t.Fatalf("expected failed apply status")
	}
	if st.Presentation != PresentationEditor {
		t.Errorf("apply failure must not change presentation")
	}

	f.client.applyErr = nil
	s.Dispatch(SetParameter{Param: ParamHue, Position: 80})
	f.tick(s, 3)

	if len(f.client.applied) != 1 {
		t.Fatalf("expected one successful apply, got %d", len(f.client.applied))
	}
	got := f.client.applied[0]
	if got.Day.Gamma != Decode(10, f.cfg.Limits.Gamma.Min, f.cfg.Limits.Gamma.Max) {
		t.Errorf("earlier edit missing from apply: gamma=%v", got.Day.Gamma)
	}
}

func TestSession_ToggleActive(t *testing.T) {
	f := newSessionFixture()
	s := f.open()

	s.Dispatch(ToggleActive{})
	if f.client.active || s.State().Active {
		t.Errorf("expected correction switched off")
	}

	f.client.setActiveErr = ResultTransport
	s.Dispatch(ToggleActive{})
	if s.State().Active {
		t.Errorf("failed toggle should revert to inactive")
	}
}

func TestSession_CloseFlushesPersistsExits(t *testing.T) {
	f := newSessionFixture()
	s := f.open()
	f.log.calls = nil

	s.Dispatch(SetParameter{Param: ParamGamma, Position: 0})
	s.Dispatch(ToggleActive{})
	f.log.calls = nil

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := []string{"Apply(1)", "Write", "Exit"}
	if !reflect.DeepEqual(f.log.calls, want) {
		t.Fatalf("teardown calls = %v, want %v", f.log.calls, want)
	}

	if len(f.store.writes) != 1 {
		t.Fatalf("expected one write, got %d", len(f.store.writes))
	}
	written := f.store.writes[0]
	if written.Profiles[ProfileID1].Day.Gamma != 0 {
		t.Errorf("edited profile not persisted: gamma=%v", written.Profiles[ProfileID1].Day.Gamma)
	}
	if written.Active {
		t.Errorf("active flag not persisted")
	}

	// Idempotent.
	f.log.calls = nil
	if err := s.Close(); err != nil || len(f.log.calls) != 0 {
		t.Errorf("second close: err=%v calls=%v", err, f.log.calls)
	}
}

func TestSession_CloseWithoutPendingSkipsApply(t *testing.T) {
	f := newSessionFixture()
	s := f.open()
	f.log.calls = nil

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if want := []string{"Write", "Exit"}; !reflect.DeepEqual(f.log.calls, want) {
		t.Errorf("teardown calls = %v, want %v", f.log.calls, want)
	}
}

func TestSession_CloseReportsWriteError(t *testing.T) {
	f := newSessionFixture()
	f.store.writeErr = errors.New("read-only filesystem")
	s := f.open()
	f.log.calls = nil

	err := s.Close()
	if err == nil {
		t.Fatalf("expected write error")
	}
	// Exit still runs after a failed write.
	if want := []string{"Write", "Exit"}; !reflect.DeepEqual(f.log.calls, want) {
		t.Errorf("teardown calls = %v, want %v", f.log.calls, want)
	}
}

func TestSession_RunStopsOnQuit(t *testing.T) {
	f := newSessionFixture()
	s := f.open()

	events := make(chan Event, 4)
	events <- SetParameter{Param: ParamHue, Position: 5}
	events <- Quit{}

	rendered := 0
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), events, 1000, func(*SessionState) { rendered++ })
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on quit")
	}

	if !s.State().Quit {
		t.Errorf("expected quit state")
	}
	if rendered == 0 {
		t.Errorf("expected at least one render")
	}
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	f := newSessionFixture()
	s := f.open()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, make(chan Event), 100, nil)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}

func TestSession_RunRejectsBadTickRate(t *testing.T) {
	f := newSessionFixture()
	s := f.open()
	if err := s.Run(context.Background(), make(chan Event), 0, nil); err == nil {
		t.Errorf("expected error for zero tick rate")
	}
}
