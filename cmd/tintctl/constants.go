package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_ESC       = 1
	KEY_BACKSPACE = 14
	KEY_Q         = 16
	KEY_Y         = 21
	KEY_ENTER     = 28
	KEY_A         = 30
	KEY_B         = 48
	KEY_UP        = 103
	KEY_LEFT      = 105
	KEY_RIGHT     = 106
	KEY_DOWN      = 108
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Session loop configuration
const (
	defaultTickHz        = 60  // ~16 ms per tick
	defaultReadTimeoutMS = 500 // Default timeout for reading websocket responses (ms)
)
