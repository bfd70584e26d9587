package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytmm-go/internal/app"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

var (
	serverURL  string
	configPath string
	rootCmd    = &cobra.Command{
		Use:           "ytmm",
		Short:         "YTMM CLI - admin tool for the YouTube download bot",
		Long:          `A command-line interface for inspecting and controlling a running YTMM bot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Admin API URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAdminClient(serverURL)
		if isBotRunning(client) {
			fmt.Fprintln(cmd.OutOrStdout(), "Bot already running")
			return nil
		}

		pid, err := startBotBackground(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bot starting (PID: %d)\n", pid)

		if err := waitForBotReady(client, botStartTimeout, botPollInterval); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Bot started successfully")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bot health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := newAdminClient(serverURL).Health()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Status:   %s\n", health.Status)
		fmt.Fprintf(out, "Version:  %s\n", health.Version)
		fmt.Fprintf(out, "Workers:  %s\n", runningLabel(health.Queue.Running))
		fmt.Fprintf(out, "Pending:  %d\n", health.Queue.Pending)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List download requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		user, _ := cmd.Flags().GetString("user")

		requests, err := newAdminClient(serverURL).ListRequests(status, user)
		if err != nil {
			return err
		}
		printRequests(cmd.OutOrStdout(), requests)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show request details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := newAdminClient(serverURL).GetRequest(args[0])
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("output")
		printRequest(cmd.OutOrStdout(), request, verbose)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newAdminClient(serverURL).Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Request Statistics:")
		fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(out, "  Queued:     %d\n", stats.Queued)
		fmt.Fprintf(out, "  Processing: %d\n", stats.Processing)
		fmt.Fprintf(out, "  Sent:       %d\n", stats.Sent)
		fmt.Fprintf(out, "  Oversize:   %d\n", stats.Oversize)
		fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
		fmt.Fprintf(out, "  Cancelled:  %d\n", stats.Cancelled)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued or running request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAdminClient(serverURL).Cancel(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Request cancelled")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show categorized logs (queue, bot, error, download)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := logger.ParseCategory(args[0])
		if err != nil {
			return err
		}

		follow, _ := cmd.Flags().GetBool("follow")
		if follow {
			return followLogs(cmd, category)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		date, _ := cmd.Flags().GetString("date")
		search, _ := cmd.Flags().GetString("query")

		logs, err := newAdminClient(serverURL).Logs(string(category), date, search, limit)
		if err != nil {
			return err
		}
		for _, entry := range logs.Entries {
			printLogEntry(cmd.OutOrStdout(), entry)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (token redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("write"); path != "" {
			if err := app.SaveConfig(config, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		}

		data, err := app.MarshalConfig(config)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().StringP("user", "u", "", "Filter by Telegram user ID")
	getCmd.Flags().BoolP("output", "o", false, "Include the tail of the yt-dlp output")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
	logsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD, default today)")
	logsCmd.Flags().StringP("query", "q", "", "Only entries containing this text")
	logsCmd.Flags().BoolP("follow", "f", false, "Keep streaming new entries")
	configCmd.Flags().StringP("write", "w", "", "Write the configuration to this path instead")
}

// followLogs prints entries streamed by the admin API until interrupted
func followLogs(cmd *cobra.Command, category logger.LogCategory) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newAdminClient(serverURL).StreamLogs(ctx, string(category), func(entry logger.LogEntry) {
		printLogEntry(cmd.OutOrStdout(), entry)
	})
}

func printRequests(out io.Writer, requests []*domain.Request) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tRES\tSTATUS\tSIZE\tTITLE\tCREATED")
	for _, r := range requests {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r.ID, 8),
			r.UserID,
			r.Resolution,
			r.Status,
			formatSize(r.FileSizeBytes),
			truncate(r.Title, 40),
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func printRequest(out io.Writer, r *domain.Request, withOutput bool) {
	fmt.Fprintln(out, "Request Details:")
	fmt.Fprintf(out, "  ID:         %s\n", r.ID)
	fmt.Fprintf(out, "  User:       %d\n", r.UserID)
	fmt.Fprintf(out, "  URL:        %s\n", r.URL)
	fmt.Fprintf(out, "  Title:      %s\n", r.Title)
	fmt.Fprintf(out, "  Resolution: %s (estimated %d MB)\n", r.Resolution, r.EstimatedMB)
	fmt.Fprintf(out, "  Status:     %s\n", r.Status)
	fmt.Fprintf(out, "  Created:    %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.FileSizeBytes > 0 {
		fmt.Fprintf(out, "  Size:       %s\n", formatSize(r.FileSizeBytes))
	}
	if r.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:      %s\n", r.ErrorMessage)
	}
	if withOutput && r.ProcessLog != "" {
		fmt.Fprintf(out, "\n%s\n", strings.TrimRight(r.ProcessLog, "\n"))
	}
}

func printLogEntry(out io.Writer, entry logger.LogEntry) {
	line := entry.Message
	if entry.Timestamp != "" {
		line = fmt.Sprintf("%s %-5s %s", entry.Timestamp, strings.ToUpper(entry.Level), entry.Message)
	}
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%v", k, entry.Fields[k])
		}
	}
	fmt.Fprintln(out, line)
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f MB", app.SizeMB(bytes))
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
