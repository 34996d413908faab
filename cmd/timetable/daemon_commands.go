package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"timetable/internal/daemonctl"
)

const daemonStartTimeout = 10 * time.Second

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the timetabled background service",
	}

	var logLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start timetabled unless it is already running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("api_bind is empty; the daemon cannot be controlled without its API")
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			res, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath,
				LogLevel:   logLevel,
			}, daemonStartTimeout)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			switch res.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", res.PID)
			default:
				fmt.Fprintf(out, "Daemon started (pid %d)\n", res.PID)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&logLevel, "log-level", "", "Daemon log level")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether timetabled is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			running, pid := false, 0
			if client != nil {
				running, pid, err = daemonctl.ProcessInfo(cmd.Context(), client)
				if err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"running": running, "pid": pid})
			}
			out := cmd.OutOrStdout()
			if running {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", pid), shouldColorize(out)))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Not running", shouldColorize(out)))
			}
			return nil
		},
	}

	daemonCmd.AddCommand(startCmd, statusCmd)
	return daemonCmd
}

// daemonExecutable finds timetabled next to this binary, then on PATH.
func daemonExecutable() (string, error) {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "timetabled")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "timetabled", nil
}
