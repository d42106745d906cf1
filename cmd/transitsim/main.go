// Command transitsim drives a headless discrete-event bus-dispatching
// simulation from a scenario YAML file, grounded on tidbyt-gtfs's
// cobra root-command + subcommand wiring.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwmdev/transitsim/config"
	"github.com/jwmdev/transitsim/driver"
	"github.com/jwmdev/transitsim/logging"
	"github.com/jwmdev/transitsim/report"
)

var (
	logFormat string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:          "transitsim",
	Short:        "Discrete-event transit simulator",
	Long:         "Evaluates bus-dispatching policies under stochastic passenger demand.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(parseLevel(logLevel), logFormat)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run one simulation from a scenario file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "", "console", "log format: console|json")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "log level: debug|info|warn|error")
	rootCmd.AddCommand(runCmd)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(args[0])
	if err != nil {
		return err
	}

	logging.Logger.Info("starting run", "route_path", scenario.RoutePath, "scheduler_type", scenario.SchedulerType)

	summary, err := driver.Run(scenario)
	if err != nil {
		return err
	}

	report.ConsoleWriter{}.Print(summary)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
