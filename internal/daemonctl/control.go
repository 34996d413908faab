// Package daemonctl launches and polls timetabled on behalf of the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"timetable/internal/api"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State  StartState
	PID    int
	Status api.StatusResponse
}

// StatusSource is the part of api.Client the control helpers need.
type StatusSource interface {
	Status(ctx context.Context) (api.StatusResponse, error)
}

const pollInterval = 200 * time.Millisecond

// Launch starts a detached timetabled process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	var args []string
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// ProcessInfo reports whether the daemon answers and its PID.
func ProcessInfo(ctx context.Context, client StatusSource) (bool, int, error) {
	status, err := client.Status(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return true, 0, err
		}
		return false, 0, nil
	}
	return status.Daemon.Running, status.Daemon.PID, nil
}

// WaitForDaemon polls the API until the daemon reports running.
func WaitForDaemon(ctx context.Context, client StatusSource, timeout time.Duration) (api.StatusResponse, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := client.Status(ctx)
		if err == nil && status.Daemon.Running {
			return status, nil
		}
		if errors.Is(err, api.ErrUnauthorized) {
			return api.StatusResponse{}, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return api.StatusResponse{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return api.StatusResponse{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches timetabled unless it already answers.
func EnsureStarted(ctx context.Context, client StatusSource, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if status, err := client.Status(ctx); err == nil && status.Daemon.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.Daemon.PID, Status: status}, nil
	} else if errors.Is(err, api.ErrUnauthorized) {
		return StartResult{}, err
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForDaemon(ctx, client, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: status.Daemon.PID, Status: status}, nil
}
