package main

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func startSim(t *testing.T, set ProfileSet, mode PerformanceMode, serviceActive bool) (*simService, *TintClient) {
	t.Helper()
	logger := newTestLogger()
	svc := newSimService(set, mode, serviceActive, logger)
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	client, err := NewTintClient(ServiceConfig{
		WsURL:           "ws" + strings.TrimPrefix(srv.URL, "http") + simPath,
		TimeoutMS:       2000,
		ConnectAttempts: 1,
	}, logger)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Exit() })
	return svc, client
}

func TestTintClient_Flow(t *testing.T) {
	set := DefaultProfileSet(DefaultLimits())
	set.Active = true
	set.Profiles[ProfileID2].Night.Temperature = 2700
	_, client := startSim(t, set, PerformanceModeOther, true)

	active, err := client.IsServiceActive()
	if err != nil || !active {
		t.Fatalf("IsServiceActive = %v, %v", active, err)
	}
	if err := client.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	on, err := client.GetIsActive()
	if err != nil || !on {
		t.Errorf("GetIsActive = %v, %v", on, err)
	}
	mode, err := client.GetPerformanceMode()
	if err != nil || mode != PerformanceModeOther {
		t.Errorf("GetPerformanceMode = %v, %v", mode, err)
	}

	p, err := client.OpenProfile(ProfileID2)
	if err != nil {
		t.Fatalf("OpenProfile: %v", err)
	}
	if p.Night.Temperature != 2700 {
		t.Errorf("profile not transferred: night temperature %d", p.Night.Temperature)
	}

	if err := client.SetIsActive(false); err != nil {
		t.Fatalf("SetIsActive: %v", err)
	}
	if on, _ := client.GetIsActive(); on {
		t.Errorf("expected correction off")
	}
}

func TestTintClient_ApplyMakesBoundProfileLive(t *testing.T) {
	svc, client := startSim(t, DefaultProfileSet(DefaultLimits()), PerformanceModeNormal, true)
	if err := client.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	p := DefaultProfile(DefaultLimits())
	p.Day.Saturation = 0.4

	// Profile 3 is not bound to any mode.
	if err := client.Apply(ProfileID3, p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := svc.liveProfile(); ok {
		t.Errorf("unbound profile should not go live")
	}

	if err := client.Apply(ProfileID1, p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	live, ok := svc.liveProfile()
	if !ok || live != p {
		t.Errorf("live profile = %+v, %v", live, ok)
	}

	got, err := client.OpenProfile(ProfileID3)
	if err != nil || got != p {
		t.Errorf("stored profile 3 = %+v, %v", got, err)
	}
}

func TestTintClient_ResultErrors(t *testing.T) {
	svc, client := startSim(t, DefaultProfileSet(DefaultLimits()), PerformanceModeNormal, true)

	_, err := client.GetIsActive()
	if !errors.Is(err, ResultNotInitialized) {
		t.Errorf("expected not initialized, got %v", err)
	}

	if err := client.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := client.OpenProfile(ProfileID(9)); ResultOf(err) != ResultInvalidProfileID {
		t.Errorf("expected invalid profile id, got %v", err)
	}
	var p Profile
	if err := client.call(methodGetProfile, profileParams{ID: 9}, &p); ResultOf(err) != ResultInvalidProfileID {
		t.Errorf("expected service to reject id, got %v", err)
	}
	if err := client.call("Calibrate", nil, nil); ResultOf(err) != ResultUnknownCommand {
		t.Errorf("expected unknown command, got %v", err)
	}

	svc.mu.Lock()
	svc.failSetProfile = MakeResult(moduleTint, 42)
	svc.mu.Unlock()

	err = client.Apply(ProfileID1, DefaultProfile(DefaultLimits()))
	if ResultOf(err) != MakeResult(moduleTint, 42) {
		t.Errorf("expected service result, got %v", err)
	}
	if !strings.Contains(err.Error(), "(2380-0042)") {
		t.Errorf("error should carry the display code: %v", err)
	}
}

func TestTintClient_ServiceInactive(t *testing.T) {
	_, client := startSim(t, DefaultProfileSet(DefaultLimits()), PerformanceModeNormal, false)

	active, err := client.IsServiceActive()
	if err != nil || active {
		t.Errorf("IsServiceActive = %v, %v", active, err)
	}
	if err := client.Initialize(); ResultOf(err) != ResultServiceInactive {
		t.Errorf("expected service inactive, got %v", err)
	}
}

func TestTintClient_ConnectFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + simPath
	srv.Close()

	client, err := NewTintClient(ServiceConfig{WsURL: url, TimeoutMS: 200, ConnectAttempts: 2}, newTestLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.IsServiceActive(); ResultOf(err) != ResultTransport {
		t.Errorf("expected transport failure, got %v", err)
	}
}

func TestSession_AgainstSimulator(t *testing.T) {
	l := DefaultLimits()
	svc, client := startSim(t, DefaultProfileSet(l), PerformanceModeNormal, true)

	store := &mockStore{log: &callLog{}, set: DefaultProfileSet(l)}
	cfg := NewEditorConfig(l, 3, NudgeConfig{})
	s := OpenSession(client, store, cfg, newTestLogger(), testNoon)
	if s.State().Presentation != PresentationEditor {
		t.Fatalf("presentation = %v, init error %v", s.State().Presentation, s.State().InitErr)
	}

	s.Dispatch(SetParameterValue{Param: ParamTemperature, Value: 4000})
	for i := 0; i < 3; i++ {
		s.Dispatch(Tick{Now: testNoon})
	}

	live, ok := svc.liveProfile()
	if !ok || live.Day.Temperature != 4000 {
		t.Fatalf("edit did not reach the service: %+v, %v", live.Day, ok)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if store.set.Profiles[ProfileID1].Day.Temperature != 4000 {
		t.Errorf("edit not persisted")
	}
}

func TestTintClient_WriteFailureClosesConnection(t *testing.T) {
	_, client := startSim(t, DefaultProfileSet(DefaultLimits()), PerformanceModeNormal, true)
	if _, err := client.IsServiceActive(); err != nil {
		t.Fatalf("IsServiceActive: %v", err)
	}

	client.mu.Lock()
	broken := client.conn
	client.mu.Unlock()
	broken.SetWriteDeadline(time.Now().Add(-time.Second))

	if _, err := client.IsServiceActive(); err == nil {
		t.Fatalf("expected write error")
	}

	client.mu.Lock()
	dropped := client.conn == nil
	client.mu.Unlock()
	if !dropped {
		t.Fatalf("broken connection still in use")
	}
	if err := broken.UnderlyingConn().SetDeadline(time.Time{}); err == nil {
		t.Errorf("broken connection was not closed")
	}

	// The next call dials a fresh connection.
	if active, err := client.IsServiceActive(); err != nil || !active {
		t.Errorf("IsServiceActive after reconnect = %v, %v", active, err)
	}
}
