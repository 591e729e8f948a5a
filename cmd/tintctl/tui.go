package main

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

const (
	cursorBlinkMs = 500
	sliderWidth   = 20
)

// line is one rendered row of a view.
type line struct {
	text  string
	style tcell.Style
}

var (
	styleNormal  = tcell.StyleDefault
	styleHeader  = tcell.StyleDefault.Bold(true)
	styleFocused = tcell.StyleDefault.Reverse(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHint    = tcell.StyleDefault.Dim(true)
)

// view renders one presentation.
type view interface {
	lines(s *SessionState, now time.Time) []line
	onShow(now time.Time)
	onHide()
}

// editorView is the normal editing menu with a blinking focus cursor.
type editorView struct {
	cfg *EditorConfig

	cursorVisible   bool
	cursorBlinkTime time.Time
}

func (v *editorView) onShow(now time.Time) {
	v.cursorVisible = true
	v.cursorBlinkTime = now
}

func (v *editorView) onHide() {}

func (v *editorView) blink(now time.Time) {
	if now.Sub(v.cursorBlinkTime).Milliseconds() > cursorBlinkMs {
		v.cursorVisible = !v.cursorVisible
		v.cursorBlinkTime = now
	}
}

func (v *editorView) lines(s *SessionState, now time.Time) []line {
	v.blink(now)
	d := &s.Display

	out := []line{
		{text: d.Header, style: styleHeader},
		{text: d.Period, style: styleNormal},
		{},
	}

	for i, item := range editorItems {
		var text string
		switch item.kind {
		case focusActive:
			text = d.Active
		case focusParam:
			text = d.Params[item.param]
			if p := v.cfg.Params[item.param]; p.Accelerates() {
				text = padRight(text, 24) + sliderBar(d.Positions[item.param], p.Steps())
			}
		case focusRange:
			text = d.Range
		case focusResetAll:
			text = "Reset all"
		}

		style := styleNormal
		marker := "  "
		if i == s.Focus {
			if v.cursorVisible {
				marker = "> "
			}
			style = styleFocused
		}
		out = append(out, line{text: marker + text, style: style})
	}

	out = append(out,
		line{},
		line{text: d.Status, style: styleStatus},
		line{text: "up/down select  left/right adjust  y reset  a toggle  b quit", style: styleHint},
	)
	return out
}

// inactiveView tells the user the tint service is not running.
type inactiveView struct{}

func (inactiveView) onShow(time.Time) {}
func (inactiveView) onHide()          {}

func (inactiveView) lines(*SessionState, time.Time) []line {
	return []line{
		{text: "Color correction is unavailable", style: styleHeader},
		{},
		{text: "The tint system module is not active.", style: styleNormal},
		{text: "Enable the system module and reboot your device.", style: styleNormal},
		{},
		{text: "b quit", style: styleHint},
	}
}

// errorView shows the initialization failure's result code.
type errorView struct{}

func (errorView) onShow(time.Time) {}
func (errorView) onHide()          {}

func (errorView) lines(s *SessionState, _ time.Time) []line {
	return []line{
		{text: "An error occurred", style: styleError},
		{},
		{text: "Result: " + ResultOf(s.InitErr).Error(), style: styleNormal},
		{},
		{text: "b quit", style: styleHint},
	}
}

func sliderBar(pos, steps int) string {
	if steps <= 0 {
		return ""
	}
	filled := clampInt(pos, 0, steps) * sliderWidth / steps
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", sliderWidth-filled) + "]"
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}

// terminal owns the tcell screen and switches between the presentation
// views. Exactly one view is shown at a time.
type terminal struct {
	screen  tcell.Screen
	views   map[Presentation]view
	current Presentation
	shown   bool
}

func newTerminal(screen tcell.Screen, cfg *EditorConfig) *terminal {
	return &terminal{
		screen: screen,
		views: map[Presentation]view{
			PresentationEditor:          &editorView{cfg: cfg},
			PresentationServiceInactive: inactiveView{},
			PresentationError:           errorView{},
		},
	}
}

// openTerminal initializes the real terminal.
func openTerminal(cfg *EditorConfig) (*terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return newTerminal(screen, cfg), nil
}

// render draws s. It is the session's render callback.
func (t *terminal) render(s *SessionState) {
	now := time.Now()
	if !t.shown || s.Presentation != t.current {
		if t.shown {
			t.views[t.current].onHide()
		}
		t.current = s.Presentation
		t.shown = true
		t.views[t.current].onShow(now)
	}

	t.screen.Clear()
	for y, l := range t.views[t.current].lines(s, now) {
		for x, r := range []rune(l.text) {
			t.screen.SetContent(x, y, r, nil, l.style)
		}
	}
	t.screen.Show()
}

// pollInput forwards key presses as actions until the screen is finalized
// or ctx is canceled.
func (t *terminal) pollInput(ctx context.Context, events chan<- Event) {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			a, ok := keyAction(ev.Key(), ev.Rune())
			if !ok {
				continue
			}
			select {
			case events <- a:
			case <-ctx.Done():
				return
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// close restores the terminal.
func (t *terminal) close() {
	t.screen.Fini()
}

// keyAction maps a terminal key to an editor action.
func keyAction(key tcell.Key, r rune) (Action, bool) {
	switch key {
	case tcell.KeyUp:
		return MoveFocus{Delta: -1}, true
	case tcell.KeyDown:
		return MoveFocus{Delta: 1}, true
	case tcell.KeyLeft:
		return NudgeFocused{Direction: -1}, true
	case tcell.KeyRight:
		return NudgeFocused{Direction: 1}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return ResetFocused{}, true
	case tcell.KeyEnter:
		return ActivateFocused{}, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Quit{}, true
	case tcell.KeyRune:
		switch r {
		case 'y':
			return ResetFocused{}, true
		case 'a':
			return ActivateFocused{}, true
		case 'b', 'q':
			return Quit{}, true
		}
	}
	return nil, false
}
