package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// ============================================================================
// tint-send - Command-line IPC Client
// ============================================================================
// Sends one editor action to a running tintctl session.
//
// Usage:
//   tint-send set gamma 40
//   tint-send nudge temperature -1
//   tint-send value temperature 5200
//   tint-send reset hue
//   tint-send reset-all
//   tint-send toggle-range
//   tint-send toggle-active
//   tint-send quit
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/tintctl.sock)
// ============================================================================

// Parameter names accepted by tintctl (duplicated for the standalone binary).
var paramNames = []string{
	"temperature", "saturation", "hue", "contrast",
	"gamma", "luminance", "components", "filter",
}

type setParameter struct {
	Param    string `json:"param"`
	Position int    `json:"position"`
}

type nudgeParameter struct {
	Param     string `json:"param"`
	Direction int    `json:"direction"`
}

type setParameterValue struct {
	Param string  `json:"param"`
	Value float64 `json:"value"`
}

type resetParameter struct {
	Param string `json:"param"`
}

// eventEnvelope wraps actions for JSON
type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ipcResponse represents the session's response
type ipcResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/tintctl.sock"

	args := os.Args[1:]
	if len(args) >= 1 && (args[0] == "-socket" || args[0] == "--socket") {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return
	}

	env, err := buildEnvelope(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := send(socketPath, env); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

// buildEnvelope turns command-line arguments into an IPC envelope.
func buildEnvelope(args []string) (eventEnvelope, error) {
	cmd := args[0]
	rest := args[1:]

	need := func(n int, usage string) error {
		if len(rest) != n {
			return fmt.Errorf("usage: tint-send %s %s", cmd, usage)
		}
		return nil
	}

	switch cmd {
	case "set":
		if err := need(2, "<param> <position 0-100>"); err != nil {
			return eventEnvelope{}, err
		}
		param, err := parseParam(rest[0])
		if err != nil {
			return eventEnvelope{}, err
		}
		pos, err := strconv.Atoi(rest[1])
		if err != nil {
			return eventEnvelope{}, fmt.Errorf("invalid position: %w", err)
		}
		return withData("set_parameter", setParameter{Param: param, Position: pos})

	case "nudge":
		if err := need(2, "<param> <+1|-1>"); err != nil {
			return eventEnvelope{}, err
		}
		param, err := parseParam(rest[0])
		if err != nil {
			return eventEnvelope{}, err
		}
		dir, err := strconv.Atoi(rest[1])
		if err != nil || (dir != 1 && dir != -1) {
			return eventEnvelope{}, fmt.Errorf("direction must be 1 or -1")
		}
		return withData("nudge_parameter", nudgeParameter{Param: param, Direction: dir})

	case "value":
		if err := need(2, "<param> <value>"); err != nil {
			return eventEnvelope{}, err
		}
		param, err := parseParam(rest[0])
		if err != nil {
			return eventEnvelope{}, err
		}
		v, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return eventEnvelope{}, fmt.Errorf("invalid value: %w", err)
		}
		return withData("set_parameter_value", setParameterValue{Param: param, Value: v})

	case "reset":
		if err := need(1, "<param>"); err != nil {
			return eventEnvelope{}, err
		}
		param, err := parseParam(rest[0])
		if err != nil {
			return eventEnvelope{}, err
		}
		return withData("reset_parameter", resetParameter{Param: param})

	case "reset-all":
		return eventEnvelope{Type: "reset_all"}, nil
	case "toggle-range":
		return eventEnvelope{Type: "toggle_range"}, nil
	case "toggle-active":
		return eventEnvelope{Type: "toggle_active"}, nil
	case "quit":
		return eventEnvelope{Type: "quit"}, nil

	default:
		return eventEnvelope{}, fmt.Errorf("unknown command: %s", cmd)
	}
}

func parseParam(s string) (string, error) {
	s = strings.ToLower(s)
	for _, name := range paramNames {
		if name == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown parameter %q (one of %s)", s, strings.Join(paramNames, ", "))
}

func withData(typ string, v any) (eventEnvelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return eventEnvelope{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return eventEnvelope{Type: typ, Data: data}, nil
}

func send(socketPath string, env eventEnvelope) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	var resp ipcResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("tintctl error: %s", resp.Error)
	}
	return nil
}

func printUsage() {
	fmt.Println("tint-send - send an action to a running tintctl session")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  tint-send [-socket PATH] <command> [args]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  set <param> <position>   Move a slider to 0-100")
	fmt.Println("  nudge <param> <+1|-1>    Step a slider")
	fmt.Println("  value <param> <value>    Set a value in the parameter's own units")
	fmt.Println("  reset <param>            Reset a parameter and apply now")
	fmt.Println("  reset-all                Reset the current period and apply now")
	fmt.Println("  toggle-range             Toggle full/limited output range")
	fmt.Println("  toggle-active            Toggle color correction on/off")
	fmt.Println("  quit                     End the session")
	fmt.Println()
	fmt.Println("PARAMETERS:")
	fmt.Println("  " + strings.Join(paramNames, ", "))
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -socket PATH    Unix domain socket path (default: /tmp/tintctl.sock)")
	fmt.Println()
}
