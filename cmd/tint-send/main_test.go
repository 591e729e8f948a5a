package main

import (
	"encoding/json"
	"testing"
)

func TestBuildEnvelope(t *testing.T) {
	tests := []struct {
		args     []string
		wantType string
		wantData string
	}{
		{[]string{"set", "Gamma", "40"}, "set_parameter", `{"param":"gamma","position":40}`},
		{[]string{"nudge", "temperature", "-1"}, "nudge_parameter", `{"param":"temperature","direction":-1}`},
		{[]string{"value", "temperature", "5200"}, "set_parameter_value", `{"param":"temperature","value":5200}`},
		{[]string{"reset", "hue"}, "reset_parameter", `{"param":"hue"}`},
		{[]string{"reset-all"}, "reset_all", ""},
		{[]string{"toggle-range"}, "toggle_range", ""},
		{[]string{"toggle-active"}, "toggle_active", ""},
		{[]string{"quit"}, "quit", ""},
	}

	for _, tt := range tests {
		env, err := buildEnvelope(tt.args)
		if err != nil {
			t.Errorf("buildEnvelope(%v): %v", tt.args, err)
			continue
		}
		if env.Type != tt.wantType || string(env.Data) != tt.wantData {
			t.Errorf("buildEnvelope(%v) = %s %s, want %s %s", tt.args, env.Type, env.Data, tt.wantType, tt.wantData)
		}
		if _, err := json.Marshal(env); err != nil {
			t.Errorf("marshal envelope: %v", err)
		}
	}
}

func TestBuildEnvelope_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"set", "gamma"},
		{"set", "sharpness", "10"},
		{"set", "gamma", "high"},
		{"nudge", "hue", "2"},
		{"value", "hue", "x"},
		{"reset"},
		{"teleport"},
	} {
		if _, err := buildEnvelope(args); err == nil {
			t.Errorf("buildEnvelope(%v): expected error", args)
		}
	}
}
