package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// Lets scripts and the tint-send tool drive the editor without the terminal.
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "set_parameter", "data": {"param": "gamma", "position": 40}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//
// "ok" means the action was queued, not that it was applied.
// ============================================================================

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // error message if status == "error"
}

// runIPCServer serves the socket until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o600); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, events, logger)
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection")

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	reply := func(resp IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("IPC received", "line", line)

		action, err := UnmarshalAction([]byte(line))
		if err != nil {
			reply(IPCResponse{Status: "error", Error: fmt.Sprintf("parse event: %v", err)})
			continue
		}

		select {
		case events <- action:
			reply(IPCResponse{Status: "ok"})
		default:
			reply(IPCResponse{Status: "error", Error: "event queue full"})
		}
	}

	logger.Debug("IPC connection closed")
}

// SendIPCAction sends one action to a running session and waits for the
// acknowledgement.
func SendIPCAction(socketPath string, a Action) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := MarshalAction(a)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}

	return nil
}
