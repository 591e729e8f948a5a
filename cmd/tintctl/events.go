package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Events
// ============================================================================
// Events are the only input to the reducer: user actions (from the terminal,
// IPC or hardware buttons), ticks from the session loop, and observations
// produced by executing commands against the tint service.
// ============================================================================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// Action is an Event that expresses user intent. Actions carry no timestamp;
// the session loop wraps them in TimedEvent.
type Action interface {
	Event
	actionMarker()
}

// Tick is emitted by the session loop at a fixed cadence.
type Tick struct {
	Now time.Time
}

func (Tick) eventMarker() {}

// TimedEvent stamps an Action with its arrival time.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// ServiceApplied is emitted after the service accepted a profile.
type ServiceApplied struct {
	ID ProfileID
	At time.Time
}

func (ServiceApplied) eventMarker() {}

// ServiceActiveObserved is emitted after the active flag was written.
type ServiceActiveObserved struct {
	Active bool
	At     time.Time
}

func (ServiceActiveObserved) eventMarker() {}

// ServiceCommandFailed is emitted when executing a Command fails.
type ServiceCommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (ServiceCommandFailed) eventMarker() {}

// ============================================================================
// Actions
// ============================================================================

// SetParameter moves a parameter's slider to an absolute position.
type SetParameter struct {
	Param    ParamKind `json:"param"`
	Position int       `json:"position"`
}

// NudgeParameter moves a parameter's slider one step up (+1) or down (-1).
// Fast repeated nudges in one direction take larger steps.
type NudgeParameter struct {
	Param     ParamKind `json:"param"`
	Direction int       `json:"direction"`
}

// SetParameterValue writes a value in physical units (Kelvin, or the
// parameter's own scale), clamped to its bounds.
type SetParameterValue struct {
	Param ParamKind `json:"param"`
	Value float64   `json:"value"`
}

// ResetParameter restores one parameter's default and applies immediately.
type ResetParameter struct {
	Param ParamKind `json:"param"`
}

// ResetAll restores every parameter of the current period, the channel
// selection and the output range, then applies once.
type ResetAll struct{}

// ToggleRange flips between full and limited output range and applies
// immediately.
type ToggleRange struct{}

// ToggleActive switches color correction on or off service-wide.
type ToggleActive struct{}

// MoveFocus moves the editor cursor by Delta items.
type MoveFocus struct {
	Delta int `json:"delta"`
}

// NudgeFocused nudges whatever the cursor is on.
type NudgeFocused struct {
	Direction int `json:"direction"`
}

// ResetFocused resets whatever the cursor is on.
type ResetFocused struct{}

// ActivateFocused triggers the cursor item (toggles and the reset-all entry).
type ActivateFocused struct{}

// Quit ends the session.
type Quit struct{}

func (SetParameter) eventMarker()      {}
func (NudgeParameter) eventMarker()    {}
func (SetParameterValue) eventMarker() {}
func (ResetParameter) eventMarker()    {}
func (ResetAll) eventMarker()          {}
func (ToggleRange) eventMarker()       {}
func (ToggleActive) eventMarker()      {}
func (MoveFocus) eventMarker()         {}
func (NudgeFocused) eventMarker()      {}
func (ResetFocused) eventMarker()      {}
func (ActivateFocused) eventMarker()   {}
func (Quit) eventMarker()              {}

func (SetParameter) actionMarker()      {}
func (NudgeParameter) actionMarker()    {}
func (SetParameterValue) actionMarker() {}
func (ResetParameter) actionMarker()    {}
func (ResetAll) actionMarker()          {}
func (ToggleRange) actionMarker()       {}
func (ToggleActive) actionMarker()      {}
func (MoveFocus) actionMarker()         {}
func (NudgeFocused) actionMarker()      {}
func (ResetFocused) actionMarker()      {}
func (ActivateFocused) actionMarker()   {}
func (Quit) actionMarker()              {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope wraps an action with a type discriminator for JSON.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalAction decodes a JSON envelope into a concrete Action.
func UnmarshalAction(data []byte) (Action, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "set_parameter":
		var a SetParameter
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetParameter: %w", err)
		}
		return a, nil

	case "nudge_parameter":
		var a NudgeParameter
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal NudgeParameter: %w", err)
		}
		if a.Direction != 1 && a.Direction != -1 {
			return nil, fmt.Errorf("nudge direction must be 1 or -1, got %d", a.Direction)
		}
		return a, nil

	case "set_parameter_value":
		var a SetParameterValue
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetParameterValue: %w", err)
		}
		return a, nil

	case "reset_parameter":
		var a ResetParameter
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal ResetParameter: %w", err)
		}
		return a, nil

	case "reset_all":
		return ResetAll{}, nil
	case "toggle_range":
		return ToggleRange{}, nil
	case "toggle_active":
		return ToggleActive{}, nil
	case "quit":
		return Quit{}, nil

	case "":
		return nil, fmt.Errorf("missing event type")
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
}

// MarshalAction encodes an IPC-capable action as a JSON envelope.
func MarshalAction(a Action) ([]byte, error) {
	var env EventEnvelope

	withData := func(typ string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		env.Type = typ
		env.Data = data
		return nil
	}

	var err error
	switch a := a.(type) {
	case SetParameter:
		err = withData("set_parameter", a)
	case NudgeParameter:
		err = withData("nudge_parameter", a)
	case SetParameterValue:
		err = withData("set_parameter_value", a)
	case ResetParameter:
		err = withData("reset_parameter", a)
	case ResetAll:
		env.Type = "reset_all"
	case ToggleRange:
		env.Type = "toggle_range"
	case ToggleActive:
		env.Type = "toggle_active"
	case Quit:
		env.Type = "quit"
	default:
		return nil, fmt.Errorf("action %T is not available over IPC", a)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(env)
}
