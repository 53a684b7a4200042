// Package root contains the root command for the application
package root

import (
	"os"

	"fjacquet/dkb-qif/internal/common"
	"fjacquet/dkb-qif/internal/config"
	"fjacquet/dkb-qif/internal/dkbparser"
	"fjacquet/dkb-qif/internal/navigator"
	"fjacquet/dkb-qif/internal/qif"
	"fjacquet/dkb-qif/internal/scraper"
	"fjacquet/dkb-qif/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "dkb-qif",
		Short: "A CLI tool to fetch DKB Visa transactions and convert them to QIF.",
		Long: `dkb-qif logs into the DKB online banking site, downloads credit card
transactions for a date range, and converts them to the QIF format
understood by GnuCash and similar finance software.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to dkb-qif!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize and configure logging
			config.LoadEnv()
			Log = config.ConfigureLogging()

			// Set the configured logger for all packages
			scraper.SetLogger(Log)
			navigator.SetLogger(Log)
			session.SetLogger(Log)
			dkbparser.SetLogger(Log)
			qif.SetLogger(Log)
			common.SetLogger(Log)

			// Ensure CSV delimiter is updated after env variables are loaded
			if delim := os.Getenv("CSV_DELIMITER"); delim != "" {
				Log.WithField("delimiter", delim).Debug("Setting CSV delimiter from environment")
				common.SetDelimiter([]rune(delim)[0])
			}
		},
	}

	// SharedFlags holds common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
}
