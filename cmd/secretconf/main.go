package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/secretconf/cmd/secretconf/commands"
	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}
	rt := &commands.Runtime{}

	rootCmd := &cobra.Command{
		Use:   "secretconf",
		Short: "Layered configuration from JSON secrets in cloud secret stores",
		Long: `secretconf composes configuration from JSON files, environment variables
and JSON secrets held in AWS Secrets Manager, SSM Parameter Store, GCP Secret
Manager and Azure Key Vault, then shows, queries or validates the result.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "secretconf.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&rt.Timeout, "timeout", 30*time.Second, "Maximum time to build the configuration")

	rootCmd.AddCommand(
		commands.NewShowCommand(cfg, rt),
		commands.NewGetCommand(cfg, rt),
		commands.NewValidateCommand(cfg, rt),
		commands.NewDoctorCommand(cfg, rt),
	)

	return rootCmd.Execute()
}
