package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestResult_Layout(t *testing.T) {
	r := MakeResult(moduleTint, 1)
	if r.Module() != moduleTint || r.Description() != 1 {
		t.Errorf("module=%d description=%d", r.Module(), r.Description())
	}
	if got := r.Error(); got != "0x37c (2380-0001)" {
		t.Errorf("Error() = %q", got)
	}
	if got := ResultUnknownCommand.Error(); got != "0x1ba0a (2010-0221)" {
		t.Errorf("unknown command renders as %q", got)
	}
	if !ResultSuccess.Succeeded() || ResultTransport.Succeeded() {
		t.Errorf("Succeeded() is wrong")
	}
}

func TestResultOf(t *testing.T) {
	if ResultOf(nil) != ResultSuccess {
		t.Errorf("nil error should be success")
	}
	wrapped := fmt.Errorf("open profile: %w", fmt.Errorf("GetProfile: %w", ResultInvalidProfileID))
	if ResultOf(wrapped) != ResultInvalidProfileID {
		t.Errorf("wrapped result not recovered")
	}
	if ResultOf(errors.New("connection refused")) != ResultTransport {
		t.Errorf("plain errors should map to transport failure")
	}
}
