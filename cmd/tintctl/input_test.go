package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"
)

func TestTranslateInputEvent(t *testing.T) {
	tests := []struct {
		name   string
		ev     inputEvent
		want   Action
		wantOK bool
	}{
		{"up press", inputEvent{Type: EV_KEY, Code: KEY_UP, Value: evValuePress}, MoveFocus{Delta: -1}, true},
		{"down repeat", inputEvent{Type: EV_KEY, Code: KEY_DOWN, Value: evValueRepeat}, MoveFocus{Delta: 1}, true},
		{"left repeat", inputEvent{Type: EV_KEY, Code: KEY_LEFT, Value: evValueRepeat}, NudgeFocused{Direction: -1}, true},
		{"right press", inputEvent{Type: EV_KEY, Code: KEY_RIGHT, Value: evValuePress}, NudgeFocused{Direction: 1}, true},
		{"y press", inputEvent{Type: EV_KEY, Code: KEY_Y, Value: evValuePress}, ResetFocused{}, true},
		{"a press", inputEvent{Type: EV_KEY, Code: KEY_A, Value: evValuePress}, ActivateFocused{}, true},
		{"a repeat", inputEvent{Type: EV_KEY, Code: KEY_A, Value: evValueRepeat}, nil, false},
		{"b press", inputEvent{Type: EV_KEY, Code: KEY_B, Value: evValuePress}, Quit{}, true},
		{"release", inputEvent{Type: EV_KEY, Code: KEY_UP, Value: evValueRelease}, nil, false},
		{"non-key event", inputEvent{Type: 0x02, Code: KEY_UP, Value: evValuePress}, nil, false},
		{"unmapped key", inputEvent{Type: EV_KEY, Code: 200, Value: evValuePress}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateInputEvent(tt.ev)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got %#v, %v; want %#v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReadInputEvents(t *testing.T) {
	var buf bytes.Buffer
	sent := []inputEvent{
		{Sec: 1, Type: EV_KEY, Code: KEY_RIGHT, Value: evValuePress},
		{Sec: 1, Usec: 5000, Type: EV_KEY, Code: KEY_RIGHT, Value: evValueRelease},
	}
	for _, ev := range sent {
		if err := binary.Write(&buf, binary.LittleEndian, ev); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	// A truncated trailing record ends the reader.
	buf.Write([]byte{1, 2, 3})

	events := make(chan inputEvent, len(sent))
	readErr := make(chan error, 1)
	go readInputEvents(&buf, events, readErr)

	for i, want := range sent {
		select {
		case got := <-events:
			if got != want {
				t.Errorf("event %d = %+v, want %+v", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not received", i)
		}
	}

	select {
	case err := <-readErr:
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected unexpected EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("reader did not stop")
	}
}
