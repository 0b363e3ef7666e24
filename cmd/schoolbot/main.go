package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/schoolbot/core/buildinfo"
	corecmd "github.com/m3rciful/schoolbot/core/cmd"
	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/internal/app"
	"github.com/m3rciful/schoolbot/internal/config"
)

const configEnvVar = "CONFIG_PATH"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("schoolbot: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	runE := func(cmd *cobra.Command, _ []string) error {
		return corecmd.Run(cmd.Context(), corecmd.Options{
			ConfigPath:   configPath,
			ConfigEnvVar: configEnvVar,
			LoadConfig:   app.LoadConfig,
			Bootstrap:    app.Bootstrap,
		})
	}

	root := &cobra.Command{
		Use:           "schoolbot",
		Short:         "Telegram lead bot for a language school",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $"+configEnvVar+", else env only)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the bot with the health listener",
			RunE:  runE,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				defer func() { _ = logger.Shutdown() }()
				return app.Migrate(cfg)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print the number of stored leads",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				defer func() { _ = logger.Shutdown() }()
				n, err := app.CountLeads(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "leads: %d\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "schoolbot", buildinfo.String())
			},
		},
	)
	root.SetContext(context.Background())
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(corecmd.ResolveConfigPath(path, configEnvVar))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return nil, err
	}
	return cfg, nil
}
