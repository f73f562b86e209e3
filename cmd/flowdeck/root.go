package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

var cfgFile string

// newRootCommand creates the root command. Without a subcommand it runs
// the dashboard.
func newRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowdeck",
		Short: "Terminal dashboard for captured HTTP flows",
		Long: `flowdeck polls a traffic-capture backend for recorded HTTP flows, lets you
filter and select them, and asks the backend to generate OpenAPI or Postman
artifacts from the selection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile, cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runTUI(cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/flowdeck/config.yml)")
	flags.String("host", model.DefaultBackendHost, "capture backend host")
	flags.String("scheme", model.DefaultBackendScheme, "capture backend scheme (http or https)")
	flags.Int("port", model.DefaultBackendPort, "capture backend port")
	flags.String("base-url", "", "capture backend URL, overrides host, scheme and port")
	flags.Duration("poll-interval", model.DefaultPollInterval, "how often to refresh the flow list")
	flags.Bool("auto-refresh", true, "poll the backend periodically")
	flags.Duration("request-timeout", model.DefaultRequestTimeout, "timeout for each backend request")
	flags.String("download-dir", ".", "directory generated artifacts are saved to")

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newReplayCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flowdeck %s (%s) built on %s\n", displayVersion, commit, date)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// commandTimeout bounds one-shot commands that make several requests.
func commandTimeout(cfg appConfig) time.Duration {
	return 2*cfg.RequestTimeout + cfg.DownloadDelay
}
