package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/tracker"
	"github.com/spf13/cobra"
)

var logDate string

var logCmd = &cobra.Command{
	Use:   "log [flags] ID VALUE",
	Short: "Record the value for a day",
	Long: `Record the value for a habit on a day, replacing any earlier value.
Values that are not numbers or are negative are stored as 0.`,
	Example: `  habitd log 3f1c... 30
  habitd log 3f1c... 12.5 --date 2025-01-06`,
	Args: cobra.ExactArgs(2),
	RunE: runLog,
}

var toggleCmd = &cobra.Command{
	Use:       "toggle [flags] ID on|off",
	Short:     "Mark a day done or not done",
	Long:      `Mark a day done or not done. A measured habit is set to its target when done and to 0 when not.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"on", "off"},
	RunE:      runToggle,
}

var incCmd = &cobra.Command{
	Use:   "inc ID [N]",
	Short: "Add N (default 1) to today's value",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIncrement(cmd, args, 1)
	},
}

var decCmd = &cobra.Command{
	Use:   "dec ID [N]",
	Short: "Subtract N (default 1) from today's value, never below 0",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIncrement(cmd, args, -1)
	},
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "Day to record as YYYY-MM-DD (defaults to today)")
	toggleCmd.Flags().StringVar(&logDate, "date", "", "Day to toggle as YYYY-MM-DD (defaults to today)")

	rootCmd.AddCommand(logCmd, toggleCmd, incCmd, decCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.LogValue(cmd.Context(), args[0], logDate, habit.ParseValue(args[1]))
	if err != nil {
		return err
	}
	return printResult(a, res)
}

func runToggle(cmd *cobra.Command, args []string) error {
	completed, err := parseToggle(args[1])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.Toggle(cmd.Context(), args[0], logDate, completed)
	if err != nil {
		return err
	}
	return printResult(a, res)
}

func runIncrement(cmd *cobra.Command, args []string, sign float64) error {
	n := 1.0
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid amount %q: must be a non-negative number", args[1])
		}
		n = v
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.Increment(cmd.Context(), args[0], sign*n)
	if err != nil {
		return err
	}
	return printResult(a, res)
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "done", "yes", "true":
		return true, nil
	case "off", "undone", "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid toggle state %q (must be on or off)", s)
	}
}

// resultOutput is the serialised form of a tracker.Result.
type resultOutput struct {
	Habit       habit.Habit `json:"habit" yaml:"habit"`
	Progress    progressRow `json:"progress" yaml:"progress"`
	StreakDelta int         `json:"streak_delta" yaml:"streak_delta"`
}

func printResult(a *app, res *tracker.Result) error {
	out := resultOutput{
		Habit:       res.Habit,
		Progress:    toRows([]habit.Progress{res.Progress})[0],
		StreakDelta: res.Delta,
	}

	return render(os.Stdout, out, func(w io.Writer) error {
		p := res.Progress
		h := res.Habit
		today := a.tracker.Engine().Today()

		fmt.Fprintf(w, "%s: %s today, %s %s\n",
			color.New(color.Bold).Sprint(h.Name),
			a.labels.Amount(h.Unit, h.Logs.Get(today)),
			progressBar(p.Completion, 20),
			formatPercent(p.Completion))

		streak := formatStreak(h.Streak)
		switch {
		case res.Delta > 0:
			streak = color.New(color.FgGreen).Sprintf("%s (+1)", streak)
		case res.Delta < 0:
			streak = color.New(color.FgRed).Sprintf("%s (-1)", streak)
		}
		fmt.Fprintf(w, "Streak: %s\n", streak)

		if p.Warning != nil {
			color.New(color.FgRed).Fprintf(w, "Warning: %v\n", p.Warning)
		}
		return nil
	})
}
