package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timetable/internal/api"
	"timetable/internal/cache"
	"timetable/internal/result"
	"timetable/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the whole cache from upstream now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.Sync(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, env); err != nil {
						return err
					}
					return env.Err()
				}
				out := cmd.OutOrStdout()
				switch env.State {
				case result.StateError:
					return env.Err()
				case result.StateLoading:
					fmt.Fprintln(out, "Sync still running in the background")
					return nil
				}
				for _, line := range outcomeLines(env.Value) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func outcomeLines(o syncer.Outcome) []string {
	lines := []string{
		fmt.Sprintf("Sync pass %d finished via %s in %s", o.PassID, o.Source, o.Duration().Round(time.Millisecond)),
	}
	if len(o.Written) > 0 {
		lines = append(lines, "Written: "+strings.Join(o.Written, ", "))
	}
	if o.Skipped > 0 {
		lines = append(lines, fmt.Sprintf("Skipped records: %d", o.Skipped))
	}
	for _, e := range o.Errors {
		lines = append(lines, "Warning: "+e)
	}
	return lines
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache and sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				status, err := b.Status(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range statusLines(status, b.Mode(), shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return status.Sync.Err()
			})
		},
	}
}

func statusLines(status api.StatusResponse, mode string, colorize bool) []string {
	report := newStatusReport(colorize)
	report.section("Daemon")
	if status.Daemon.Running {
		report.add("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.Daemon.PID))
		if status.Daemon.APIAddress != "" {
			report.add("API", statusInfo, status.Daemon.APIAddress)
		}
	} else {
		report.add("Daemon", statusWarn, "Not running; reading the cache directly")
	}
	report.add("Mode", statusInfo, mode)
	if status.Daemon.CacheDBPath != "" {
		report.add("Cache", statusInfo, status.Daemon.CacheDBPath)
	}

	report.section("Sync")
	s, ok := status.Sync.Get()
	if !ok {
		report.add("Status", statusError, status.Sync.Message)
		return report.lines
	}
	if s.LastSyncAt != nil {
		report.add("Last sync", statusOK, fmt.Sprintf("%s via %s", s.LastSyncAt.Local().Format(time.DateTime), s.LastSource))
	} else {
		report.add("Last sync", statusWarn, "Never")
	}
	report.add("Refresh due", freshnessKind(s.RefreshDue), yesNo(s.RefreshDue))
	report.add("Next refresh", statusInfo, s.NextRefresh.Local().Format(time.DateTime))
	report.add("Phase", phaseKind(s.Phase), s.Phase.String())
	if s.LastOutcome != nil && len(s.LastOutcome.Errors) > 0 {
		report.add("Last pass", statusWarn, strings.Join(s.LastOutcome.Errors, "; "))
	}

	report.section("Cache")
	report.raw(renderTable(
		[]string{"Faculties", "Groups", "Lessons", "Exams"},
		[][]string{{fmt.Sprint(s.Faculties), fmt.Sprint(s.Groups), fmt.Sprint(s.Lessons), fmt.Sprint(s.Exams)}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
	return report.lines
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every cached record and the sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes the whole cache; pass --yes to confirm")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache at %s\n", store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deleting the cache")
	return cmd
}
