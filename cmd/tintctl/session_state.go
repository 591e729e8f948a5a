package main

import (
	"time"
)

// Presentation selects which view the session shows. Exactly one is active.
type Presentation int

const (
	// PresentationEditor is normal operation.
	PresentationEditor Presentation = iota
	// PresentationServiceInactive is shown when the tint service is not
	// running. Editing is blocked.
	PresentationServiceInactive
	// PresentationError is shown when initialization failed and no profile
	// could be opened. Editing is blocked.
	PresentationError
)

func (p Presentation) String() string {
	switch p {
	case PresentationEditor:
		return "editor"
	case PresentationServiceInactive:
		return "service_inactive"
	case PresentationError:
		return "error"
	default:
		return "unknown"
	}
}

type focusKind int

const (
	focusActive focusKind = iota
	focusParam
	focusRange
	focusResetAll
)

type focusItem struct {
	kind  focusKind
	param ParamKind
}

// editorItems is the editor's menu, top to bottom.
var editorItems = []focusItem{
	{kind: focusActive},
	{kind: focusParam, param: ParamTemperature},
	{kind: focusParam, param: ParamSaturation},
	{kind: focusParam, param: ParamHue},
	{kind: focusParam, param: ParamContrast},
	{kind: focusParam, param: ParamGamma},
	{kind: focusParam, param: ParamLuminance},
	{kind: focusParam, param: ParamComponents},
	{kind: focusParam, param: ParamFilter},
	{kind: focusRange},
	{kind: focusResetAll},
}

// DisplayStrings are the rendered texts of the editor, refreshed every tick
// from the settings of the current period.
type DisplayStrings struct {
	Header    string
	Period    string
	Active    string
	Params    [paramCount]string
	Positions [paramCount]int
	Range     string
	Status    string
}

// ApplyStatus is the outcome of the most recent commit.
type ApplyStatus int

const (
	ApplyStatusNone ApplyStatus = iota
	ApplyStatusOK
	ApplyStatusFailed
)

// SessionState is everything the reducer owns for one editing session.
type SessionState struct {
	Presentation Presentation

	// InitErr is the first initialization failure, if any.
	InitErr error

	Active    bool
	ProfileID ProfileID
	Profile   Profile
	IsDay     bool

	// TempBound is the temperature slider's upper bound. It only changes on
	// load and on reset so the slider scale stays put while dragging.
	TempBound int

	Debounce DebounceEngine
	Focus    int
	Display  DisplayStrings

	LastApply   ApplyStatus
	LastApplyAt time.Time

	Quit bool

	nudges nudgeTracker
}

// target resolves the edit target for the current period.
func (s *SessionState) target() editTarget {
	return editTarget{profile: &s.Profile, settings: s.Profile.Settings(s.IsDay)}
}

// focused returns the menu item under the cursor.
func (s *SessionState) focused() focusItem {
	return editorItems[clampInt(s.Focus, 0, len(editorItems)-1)]
}

// editable reports whether user edits are accepted.
func (s *SessionState) editable() bool {
	return s.Presentation == PresentationEditor && s.ProfileID.Valid()
}

// refreshTempBound re-derives the temperature slider bound from the stored
// temperature of the current period.
func (s *SessionState) refreshTempBound(l Limits) {
	s.TempBound = l.Temperature.TemperatureBound(s.Profile.Settings(s.IsDay).Temperature)
}

func (s *SessionState) refreshDisplay(cfg *EditorConfig) {
	d := &s.Display
	d.Header = "Editing profile: " + s.ProfileID.String()
	if s.IsDay {
		d.Period = "In period: day"
	} else {
		d.Period = "In period: night"
	}
	if s.Active {
		d.Active = "Correction: Active"
	} else {
		d.Active = "Correction: Inactive"
	}

	t := s.target()
	for i, p := range cfg.Params {
		d.Params[i] = p.Display(t)
		d.Positions[i] = p.Position(t, s.TempBound)
	}
	d.Range = "Range: " + cfg.Limits.Range.RangeLabel(t.settings.Range)

	switch s.LastApply {
	case ApplyStatusOK:
		d.Status = "Applied " + s.LastApplyAt.Format("15:04:05")
	case ApplyStatusFailed:
		d.Status = "Apply failed; will retry on next change"
	default:
		d.Status = ""
	}
}

// EditorConfig is the static configuration the reducer needs.
type EditorConfig struct {
	Limits Limits
	Params [paramCount]Parameter
	Nudge  NudgeConfig
	// DebounceTicks is the quiet window before a commit (K).
	DebounceTicks int
}

// NewEditorConfig builds the parameter table for limits.
func NewEditorConfig(l Limits, debounceTicks int, nudge NudgeConfig) *EditorConfig {
	return &EditorConfig{
		Limits:        l,
		Params:        newParameters(l),
		Nudge:         nudge,
		DebounceTicks: debounceTicks,
	}
}

// InitResult collects what session start-up learned from the service and
// the store.
type InitResult struct {
	ServiceActive bool
	Err           error
	Active        bool
	ProfileID     ProfileID
	Profile       Profile
}

// NewSessionState builds the initial state. A failed initialization with no
// valid profile still yields an editor presentation; the first tick moves
// it to the error view.
func NewSessionState(res InitResult, cfg *EditorConfig, now time.Time) *SessionState {
	s := &SessionState{
		Presentation: PresentationEditor,
		InitErr:      res.Err,
		Active:       res.Active,
		ProfileID:    res.ProfileID,
		Profile:      res.Profile,
		Debounce:     NewDebounceEngine(cfg.DebounceTicks),
		Focus:        1,
	}
	if !res.ServiceActive {
		s.Presentation = PresentationServiceInactive
	}
	if !s.ProfileID.Valid() {
		s.ProfileID = ProfileIDInvalid
	}
	s.Profile.Clamp(cfg.Limits)
	s.IsDay = s.Profile.IsDay(TimeOfDayFrom(now))
	s.refreshTempBound(cfg.Limits)
	s.refreshDisplay(cfg)
	return s
}
