package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// readInputEvents reads input events from a single device and sends them to
// a channel. It blocks on read and returns on the first error.
func readInputEvents(r io.Reader, events chan<- inputEvent, readErr chan<- error) {
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			// Only the first failure is reported.
			select {
			case readErr <- err:
			default:
			}
			return
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		events <- ev
	}
}

// translateInputEvent maps a device button to an editor action. Presses and
// auto-repeats count; releases and non-key events are ignored.
func translateInputEvent(ev inputEvent) (Action, bool) {
	if ev.Type != EV_KEY {
		return nil, false
	}
	if ev.Value != evValuePress && ev.Value != evValueRepeat {
		return nil, false
	}

	switch ev.Code {
	case KEY_UP:
		return MoveFocus{Delta: -1}, true
	case KEY_DOWN:
		return MoveFocus{Delta: 1}, true
	case KEY_LEFT:
		return NudgeFocused{Direction: -1}, true
	case KEY_RIGHT:
		return NudgeFocused{Direction: 1}, true
	case KEY_Y, KEY_BACKSPACE:
		return ResetFocused{}, true
	}

	// Toggles and quit fire once per press.
	if ev.Value != evValuePress {
		return nil, false
	}
	switch ev.Code {
	case KEY_A, KEY_ENTER:
		return ActivateFocused{}, true
	case KEY_B, KEY_ESC, KEY_Q:
		return Quit{}, true
	}
	return nil, false
}

// runInputDevices opens every device, reads them until ctx is canceled or a
// reader fails, and forwards translated actions to events.
func runInputDevices(ctx context.Context, devices []string, events chan<- Event, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(devices))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err,
				"tip", "run as root or add user to 'input' group")
			return err
		}
		files = append(files, f)
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	startInputReaders(files, raw, readErr)

	logger.Info("reading input devices", "devices", devices)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("input reader stopped", "error", err)
			return err

		case ev := <-raw:
			a, ok := translateInputEvent(ev)
			if !ok {
				continue
			}
			select {
			case events <- a:
			default:
				logger.Warn("dropping input action (queue full)", "action", a)
			}
		}
	}
}
