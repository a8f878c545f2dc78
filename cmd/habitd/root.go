package main

import (
	"fmt"
	"os"

	"github.com/goodtune/habitd/internal/config"
	"github.com/spf13/cobra"
)

var (
	version      = "dev"
	configPath   string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "habitd",
	Short: "habitd - habit progress and streak tracker",
	Long: `habitd tracks daily and weekly habits, derives completion percentages
and streaks from logged values, and runs a focus timer that writes elapsed
time into time-based habits.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "table", "json", "yaml":
			return nil
		default:
			return fmt.Errorf("invalid output format %q (must be table, json or yaml)", outputFormat)
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
