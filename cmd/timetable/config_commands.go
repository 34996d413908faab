package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"timetable/internal/config"
	"timetable/internal/refresh"
)

const redacted = "<redacted>"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check, and print the timetable configuration",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
		overrides  config.SampleOverrides
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration file",
		Long: "Write the commented sample configuration. Pass --primary-url and --fallback-url to point\n" +
			"both schedule sources at your university in one step.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSampleWith(target, overrides); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			cfg, _, _, err := config.Load(target)
			if err != nil {
				_ = os.Remove(target)
				return fmt.Errorf("generated config is invalid: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			if overrides.PrimaryURL == "" || overrides.FallbackURL == "" {
				fmt.Fprintln(out, "Set [primary] and [fallback] base_url to your university's schedule API and website.")
			}
			if len(cfg.Sync.TrackedGroups) == 0 {
				fmt.Fprintln(out, "Add your group to [sync] tracked_groups to keep its week fresh on every sync.")
			}
			fmt.Fprintln(out, "Run `timetable doctor` to check that both sources answer.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	cmd.Flags().StringVar(&overrides.PrimaryURL, "primary-url", "", "Base URL of the schedule JSON API")
	cmd.Flags().StringVar(&overrides.FallbackURL, "fallback-url", "", "Base URL of the schedule website")
	cmd.Flags().StringVar(&overrides.Timezone, "timezone", "", "IANA zone for the weekly refresh")
	cmd.Flags().StringSliceVar(&overrides.TrackedGroups, "track", nil, "Group code refreshed on every sync (repeatable)")
	return cmd
}

func configTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Check the configuration and summarize the sync setup",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			report := newStatusReport(shouldColorize(out))
			report.section("Configuration")
			if exists {
				report.add("Config path", statusOK, path)
			} else {
				report.add("Config path", statusWarn, path+" (missing; defaults in use)")
			}
			report.add("Cache database", statusInfo, cfg.CacheDBPath())
			report.section("Sources")
			report.add("Primary API", sourceKind(cfg.Primary.Enabled), sourceDetail(cfg.Primary.Enabled, cfg.Primary.BaseURL))
			report.add("Fallback website", sourceKind(cfg.Fallback.Enabled), sourceDetail(cfg.Fallback.Enabled, cfg.Fallback.BaseURL))
			report.section("Sync")
			next := refresh.New(nil, cfg.Location()).NextRefreshTime()
			report.add("Next refresh", statusInfo, next.Format(time.DateTime+" MST"))
			report.add("Tracked groups", statusInfo, trackedSummary(cfg.Sync.TrackedGroups))
			if cfg.Paths.APIBind == "" {
				report.add("Daemon API", statusInfo, "disabled")
			} else {
				report.add("Daemon API", statusInfo, cfg.Paths.APIBind)
			}
			report.add("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""))
			for _, line := range report.lines {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return writeEffectiveConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeEffectiveConfig(w io.Writer, cfg *config.Config) error {
	shown := *cfg
	if shown.Primary.APIKey != "" {
		shown.Primary.APIKey = redacted
	}
	if shown.Paths.APIToken != "" {
		shown.Paths.APIToken = redacted
	}
	encoded, err := toml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = w.Write(encoded)
	return err
}

func sourceKind(enabled bool) statusKind {
	if enabled {
		return statusOK
	}
	return statusWarn
}

func sourceDetail(enabled bool, baseURL string) string {
	if !enabled {
		return "disabled"
	}
	return baseURL
}

func trackedSummary(groups []string) string {
	if len(groups) == 0 {
		return "none"
	}
	return strings.Join(groups, ", ")
}
