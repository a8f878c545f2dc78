package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress of every habit and summary statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusOutput is the serialised output of `status`.
type statusOutput struct {
	Date    string        `json:"date" yaml:"date"`
	Habits  []progressRow `json:"habits" yaml:"habits"`
	Summary habit.Summary `json:"summary" yaml:"summary"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	views, err := a.tracker.ListProgress(cmd.Context())
	if err != nil {
		return err
	}
	out := statusOutput{
		Date:    a.tracker.Engine().Today(),
		Habits:  toRows(views),
		Summary: habit.Summarize(views),
	}

	return render(os.Stdout, out, func(w io.Writer) error {
		return printStatus(w, a, out)
	})
}

func printStatus(w io.Writer, a *app, out statusOutput) error {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "Habits for %s\n\n", out.Date)

	if len(out.Habits) == 0 {
		fmt.Fprintln(w, "No habits yet. Create one with `habitd habit add` or load samples with `habitd habit seed`.")
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tNAME\tFREQUENCY\tTODAY\tSTREAK\tPROGRESS")
	for _, row := range out.Habits {
		today := a.labels.Amount(row.Unit, row.TodayValue)
		if row.Unit != habit.UnitNone {
			today = fmt.Sprintf("%g/%s", row.TodayValue, a.labels.Amount(row.Unit, row.TargetValue))
		}
		progress := progressBar(row.Completion, 10) + " " + formatPercent(row.Completion)
		if row.Warning != "" {
			progress = color.New(color.FgRed).Sprint("invalid target")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.HabitID, row.Name, a.labels.Frequency(row.Frequency), today, formatStreak(row.Streak), progress)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := out.Summary
	fmt.Fprintln(w)
	cyan.Fprintln(w, "Summary")
	tw = newTabWriter(w)
	fmt.Fprintf(tw, "  Total habits:\t%d\n", s.TotalHabits)
	fmt.Fprintf(tw, "  Completed today:\t%d/%d\n", s.CompletedToday, s.TotalHabits)
	fmt.Fprintf(tw, "  Longest streak:\t%s\n", formatStreak(s.LongestStreak))
	fmt.Fprintf(tw, "  Average completion:\t%s\n", formatPercent(s.AverageCompletion))
	if s.Misconfigured > 0 {
		fmt.Fprintf(tw, "  Misconfigured:\t%s\n", color.New(color.FgRed).Sprint(s.Misconfigured))
	}
	return tw.Flush()
}
