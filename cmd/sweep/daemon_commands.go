package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sweep/internal/config"
	"sweep/internal/daemonctl"
	"sweep/internal/history"
	"sweep/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the sweep daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the sweep daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Stopping watchers...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the sweep daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and rule status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp := buildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Sweep", statusOK, fmt.Sprintf("Running (pid %d)", statusResp.PID), colorize))
				if !statusResp.StartedAt.IsZero() {
					uptime := time.Since(statusResp.StartedAt).Round(time.Second)
					fmt.Fprintln(stdout, renderStatusLine("Uptime", statusInfo, uptime.String(), colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d file(s) settling", statusResp.Pending), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Sweep", statusWarn, "Not running (run `sweep start`)", colorize))
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusOK, "Configured", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusInfo, "Not configured", colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Watched Directories", colorize) {
				fmt.Fprintln(stdout, line)
			}
			dirs := statusResp.WatchedDirs
			if len(dirs) == 0 {
				dirs = configuredWatchDirs(cfg)
			}
			if len(dirs) == 0 {
				fmt.Fprintln(stdout, "No rules configured")
			}
			for _, dir := range dirs {
				kind := statusInfo
				if statusResp.Running {
					kind = statusOK
				}
				fmt.Fprintln(stdout, renderStatusLine("Watching", kind, dir, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Move History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.TotalMoves == 0 {
				fmt.Fprintln(stdout, "No moves recorded")
				return nil
			}
			rows := make([][]string, 0, len(statusResp.MovesByKind)+1)
			for kind, count := range statusResp.MovesByKind {
				rows = append(rows, []string{kind, fmt.Sprintf("%d", count)})
			}
			rows = append(rows, []string{"total", fmt.Sprintf("%d", statusResp.TotalMoves)})
			fmt.Fprintln(stdout, renderTable([]string{"Match", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			if statusResp.HasMoves {
				fmt.Fprintln(stdout, renderStatusLine("Last move", statusInfo, statusResp.LastMove.Local().Format(time.RFC1123), colorize))
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// buildStatusSnapshot collects daemon status, falling back to the on-disk
// history journal when the daemon is unreachable.
func buildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) *ipc.StatusResponse {
	statusResp := &ipc.StatusResponse{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			statusResp = resp
		}
	}

	if !statusResp.Running && cfg != nil && cfg.History.Enabled {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if store, openErr := history.Open(cfg); openErr == nil {
			if stats, statsErr := store.Summarize(queryCtx); statsErr == nil {
				statusResp.TotalMoves = stats.Total
				statusResp.MovesByKind = stats.ByKind
				statusResp.LastMove = stats.LastMove
				statusResp.HasMoves = stats.HasMoves
			}
			_ = store.Close()
		}
	}
	return statusResp
}

func configuredWatchDirs(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	var dirs []string
	for _, rule := range cfg.EnabledRules() {
		dirs = append(dirs, rule.WatchDirectory)
	}
	return dirs
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
