package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/analyst/internal/config"
	"github.com/malbeclabs/analyst/utils/pkg/logger"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	// Load .env file if it exists
	_ = godotenv.Load()

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "analyst",
		Short:        "Ask analytical questions about the superstore dataset.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var cfg config.Config
	cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")

	rootCmd.AddCommand(
		NewAskCmd(&cfg).Command(),
		NewIngestCmd(&cfg).Command(),
		NewSchemaCmd().Command(),
	)
	return rootCmd
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	// Logs go to stderr so stdout carries only the answer.
	return logger.NewWithWriter(os.Stderr, verbose)
}
