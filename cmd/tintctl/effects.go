package main

import (
	"log/slog"
	"time"
)

// runEffect executes a single reducer-emitted Command against the tint
// service and reports the outcome through onEvent.
//
// It must never call Reduce() directly; the session loop sequences
// Reduce -> Commands -> runEffect -> Events -> Reduce.
func runEffect(
	client TintClientInterface,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		return
	}

	now := time.Now()

	if client == nil {
		onEvent(ServiceCommandFailed{Command: cmd, Err: errNoClient{}, At: now})
		return
	}

	switch c := cmd.(type) {
	case CmdApply:
		if err := client.Apply(c.ID, c.Profile); err != nil {
			logger.Error("failed to apply profile",
				"profile_id", c.ID.String(), "reason", c.Reason,
				"result", ResultOf(err).Error(), "error", err)
			onEvent(ServiceCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("profile applied", "profile_id", c.ID.String(), "reason", c.Reason)
		onEvent(ServiceApplied{ID: c.ID, At: now})

	case CmdSetActive:
		if err := client.SetIsActive(c.Active); err != nil {
			logger.Error("failed to set active", "active", c.Active,
				"result", ResultOf(err).Error(), "error", err)
			onEvent(ServiceCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Info("correction toggled", "active", c.Active)
		onEvent(ServiceActiveObserved{Active: c.Active, At: now})

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(ServiceCommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoClient indicates a command was executed without a service client.
type errNoClient struct{}

func (errNoClient) Error() string { return "no tint service client" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
