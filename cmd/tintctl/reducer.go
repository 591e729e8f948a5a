package main

import (
	"time"
)

// This file implements the reducer:
//
//   - Reduce() computes the next session state and the commands to run,
//     without performing I/O.
//   - The session loop executes commands and feeds the observations back in.
//
// Every tick runs, in order: the fatal-error check, the day/night refresh,
// one debounce step, and the display refresh.

// ReduceResult is the output of a single reduction step.
type ReduceResult struct {
	State    *SessionState
	Commands []Command
}

// Reduce computes the next state for ev. The input state is not modified.
func Reduce(s *SessionState, ev Event, cfg *EditorConfig) ReduceResult {
	if s == nil {
		return ReduceResult{}
	}
	next := *s
	rr := ReduceResult{State: &next}

	switch e := ev.(type) {
	case Tick:
		rr.Commands = reduceTick(&next, e, cfg)

	case TimedEvent:
		if a, ok := e.Event.(Action); ok {
			rr.Commands = reduceAction(&next, a, e.At, cfg)
		}

	case Action:
		rr.Commands = reduceAction(&next, e, time.Time{}, cfg)

	case ServiceApplied:
		next.LastApply = ApplyStatusOK
		next.LastApplyAt = e.At
		next.refreshDisplay(cfg)

	case ServiceActiveObserved:
		next.Active = e.Active
		next.refreshDisplay(cfg)

	case ServiceCommandFailed:
		switch c := e.Command.(type) {
		case CmdApply:
			// The edit buffer is kept as is; the next commit carries it again.
			next.LastApply = ApplyStatusFailed
		case CmdSetActive:
			next.Active = !c.Active
		}
		next.refreshDisplay(cfg)
	}

	return rr
}

func reduceTick(s *SessionState, t Tick, cfg *EditorConfig) []Command {
	if s.InitErr != nil && !s.ProfileID.Valid() {
		s.Presentation = PresentationError
		return nil
	}
	if s.Presentation != PresentationEditor {
		return nil
	}

	s.IsDay = s.Profile.IsDay(TimeOfDayFrom(t.Now))

	var cmds []Command
	if s.Debounce.Step() {
		cmds = append(cmds, s.applyCommand("debounce"))
	}

	s.refreshDisplay(cfg)
	return cmds
}

func reduceAction(s *SessionState, a Action, at time.Time, cfg *EditorConfig) []Command {
	if _, ok := a.(Quit); ok {
		s.Quit = true
		return nil
	}
	if !s.editable() {
		return nil
	}

	// Focus-relative actions resolve to concrete ones first.
	switch a := a.(type) {
	case MoveFocus:
		s.Focus = clampInt(s.Focus+a.Delta, 0, len(editorItems)-1)
		return nil

	case NudgeFocused:
		item := s.focused()
		if item.kind != focusParam {
			return nil
		}
		return reduceAction(s, NudgeParameter{Param: item.param, Direction: a.Direction}, at, cfg)

	case ResetFocused:
		item := s.focused()
		switch item.kind {
		case focusParam:
			return reduceAction(s, ResetParameter{Param: item.param}, at, cfg)
		case focusRange:
			return s.resetRange(cfg)
		}
		return nil

	case ActivateFocused:
		switch s.focused().kind {
		case focusActive:
			return reduceAction(s, ToggleActive{}, at, cfg)
		case focusRange:
			return reduceAction(s, ToggleRange{}, at, cfg)
		case focusResetAll:
			return reduceAction(s, ResetAll{}, at, cfg)
		}
		return nil
	}

	t := s.target()

	switch a := a.(type) {
	case SetParameter:
		p, ok := cfg.param(a.Param)
		if !ok {
			return nil
		}
		p.SetPosition(t, s.TempBound, a.Position)
		s.Debounce.Mark()

	case NudgeParameter:
		p, ok := cfg.param(a.Param)
		if !ok || a.Direction == 0 {
			return nil
		}
		dir := 1
		if a.Direction < 0 {
			dir = -1
		}
		step := 1
		if p.Accelerates() {
			count := s.nudges.addStep(dir, at, cfg.Nudge.WindowMS)
			step = cfg.Nudge.stepSize(count)
		}
		p.SetPosition(t, s.TempBound, p.Position(t, s.TempBound)+dir*step)
		s.Debounce.Mark()

	case SetParameterValue:
		p, ok := cfg.param(a.Param)
		if !ok {
			return nil
		}
		p.SetValue(t, a.Value)
		if a.Param == ParamTemperature {
			s.refreshTempBound(cfg.Limits)
		}
		s.Debounce.Mark()

	case ResetParameter:
		p, ok := cfg.param(a.Param)
		if !ok {
			return nil
		}
		p.Reset(t)
		if a.Param == ParamTemperature {
			s.refreshTempBound(cfg.Limits)
		}
		return s.applyNow("reset", cfg)

	case ResetAll:
		for _, p := range cfg.Params {
			p.Reset(t)
		}
		t.settings.Range = cfg.Limits.Range.Full()
		s.refreshTempBound(cfg.Limits)
		return s.applyNow("reset_all", cfg)

	case ToggleRange:
		t.settings.Range = cfg.Limits.Range.Toggle(t.settings.Range)
		return s.applyNow("toggle_range", cfg)

	case ToggleActive:
		s.Active = !s.Active
		s.refreshDisplay(cfg)
		return []Command{CmdSetActive{Active: s.Active}}

	default:
		return nil
	}

	s.refreshDisplay(cfg)
	return nil
}

// resetRange restores the full range (the range entry's default).
func (s *SessionState) resetRange(cfg *EditorConfig) []Command {
	s.target().settings.Range = cfg.Limits.Range.Full()
	return s.applyNow("reset", cfg)
}

// applyNow bypasses the debounce window: the engine is forced idle and one
// commit is emitted, whatever was pending.
func (s *SessionState) applyNow(reason string, cfg *EditorConfig) []Command {
	s.Debounce.Reset()
	s.refreshDisplay(cfg)
	return []Command{s.applyCommand(reason)}
}

func (s *SessionState) applyCommand(reason string) CmdApply {
	return CmdApply{ID: s.ProfileID, Profile: s.Profile, Reason: reason}
}

func (c *EditorConfig) param(k ParamKind) (Parameter, bool) {
	if k < 0 || k >= paramCount {
		return nil, false
	}
	return c.Params[k], true
}
