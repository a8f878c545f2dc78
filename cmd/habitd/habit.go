package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	habitDescription string
	habitFrequency   string
	habitUnit        string
	habitTarget      float64
	habitName        string
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habit definitions",
}

var habitAddCmd = &cobra.Command{
	Use:   "add [flags] NAME",
	Short: "Create a habit",
	Example: `  habitd habit add "Morning Exercise" --unit minutes --target 30
  habitd habit add "Read Books" --frequency weekly --unit pages --target 100
  habitd habit add "Meditation"`,
	Args: cobra.ExactArgs(1),
	RunE: runHabitAdd,
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Args:  cobra.NoArgs,
	RunE:  runHabitList,
}

var habitShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a habit with its progress and recent log",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitShow,
}

var habitUpdateCmd = &cobra.Command{
	Use:   "update [flags] ID",
	Short: "Change a habit definition",
	Long:  `Change the name, description, frequency, unit or target of a habit. Logged values and the streak are kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitUpdate,
}

var habitDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a habit and all of its log entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitDelete,
}

var habitSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample habits into an empty store",
	Args:  cobra.NoArgs,
	RunE:  runHabitSeed,
}

func init() {
	habitAddCmd.Flags().StringVarP(&habitDescription, "description", "d", "", "Habit description")
	habitAddCmd.Flags().StringVarP(&habitFrequency, "frequency", "f", "daily", "Frequency: daily or weekly")
	habitAddCmd.Flags().StringVarP(&habitUnit, "unit", "u", "none", "Unit: minutes, hours, pages, count, times or none")
	habitAddCmd.Flags().Float64VarP(&habitTarget, "target", "t", 1, "Target value per period")

	habitUpdateCmd.Flags().StringVarP(&habitName, "name", "n", "", "New name")
	habitUpdateCmd.Flags().StringVarP(&habitDescription, "description", "d", "", "New description")
	habitUpdateCmd.Flags().StringVarP(&habitFrequency, "frequency", "f", "", "New frequency")
	habitUpdateCmd.Flags().StringVarP(&habitUnit, "unit", "u", "", "New unit")
	habitUpdateCmd.Flags().Float64VarP(&habitTarget, "target", "t", 0, "New target value")

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitShowCmd, habitUpdateCmd, habitDeleteCmd, habitSeedCmd)
	rootCmd.AddCommand(habitCmd)
}

func runHabitAdd(cmd *cobra.Command, args []string) error {
	freq, err := habit.ParseFrequency(habitFrequency)
	if err != nil {
		return err
	}
	unit, err := habit.ParseUnit(habitUnit)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.tracker.Create(cmd.Context(), tracker.CreateInput{
		Name:        args[0],
		Description: habitDescription,
		Frequency:   freq,
		Unit:        unit,
		TargetValue: habitTarget,
	})
	if err != nil {
		return err
	}

	return render(os.Stdout, h, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Created habit %s (%s)\n", color.New(color.Bold).Sprint(h.Name), h.ID)
		return err
	})
}

func runHabitList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	habits, err := a.tracker.List(cmd.Context())
	if err != nil {
		return err
	}

	return render(os.Stdout, habits, func(w io.Writer) error {
		if len(habits) == 0 {
			_, err := fmt.Fprintln(w, "No habits yet. Create one with `habitd habit add` or load samples with `habitd habit seed`.")
			return err
		}
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "ID\tNAME\tFREQUENCY\tTARGET\tSTREAK")
		for _, h := range habits {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				h.ID, h.Name, a.labels.Frequency(h.Frequency), targetLabel(a, &h), formatStreak(h.Streak))
		}
		return tw.Flush()
	})
}

// habitDetail is the serialised output of `habit show`.
type habitDetail struct {
	Habit    habit.Habit `json:"habit" yaml:"habit"`
	Progress progressRow `json:"progress" yaml:"progress"`
}

func runHabitShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	h, err := a.tracker.Get(ctx, args[0])
	if err != nil {
		return err
	}
	view := a.tracker.Engine().GetProgress(h)
	detail := habitDetail{Habit: *h, Progress: toRows([]habit.Progress{view})[0]}

	return render(os.Stdout, detail, func(w io.Writer) error {
		bold := color.New(color.Bold)
		bold.Fprintln(w, h.Name)
		if h.Description != "" {
			fmt.Fprintln(w, h.Description)
		}
		fmt.Fprintln(w)

		tw := newTabWriter(w)
		fmt.Fprintf(tw, "ID:\t%s\n", h.ID)
		fmt.Fprintf(tw, "Frequency:\t%s\n", a.labels.Frequency(h.Frequency))
		fmt.Fprintf(tw, "Target:\t%s\n", targetLabel(a, h))
		fmt.Fprintf(tw, "Streak:\t%s\n", formatStreak(h.Streak))
		fmt.Fprintf(tw, "Completion:\t%s %s\n", progressBar(view.Completion, 20), formatPercent(view.Completion))
		if view.Warning != nil {
			fmt.Fprintf(tw, "Warning:\t%s\n", color.New(color.FgRed).Sprint(view.Warning))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		return printRecentLog(w, a, h)
	})
}

// printRecentLog prints the current Monday-started week for weekly habits and
// the last seven days otherwise, oldest first.
func printRecentLog(w io.Writer, a *app, h *habit.Habit) error {
	now := a.tracker.Engine().Clock().Now()

	var keys [7]string
	if h.Frequency == habit.FrequencyWeekly {
		keys = clock.WeekKeys(now)
		fmt.Fprintln(w, "\nThis week:")
	} else {
		for i := range keys {
			keys[i] = clock.DateKey(now.AddDate(0, 0, i-6))
		}
		fmt.Fprintln(w, "\nLast 7 days:")
	}

	tw := newTabWriter(w)
	for _, key := range keys {
		value := "-"
		if h.Logs.Has(key) {
			value = a.labels.Amount(h.Unit, h.Logs.Get(key))
		}
		fmt.Fprintf(tw, "  %s\t%s\n", key, value)
	}
	return tw.Flush()
}

func runHabitUpdate(cmd *cobra.Command, args []string) error {
	var in tracker.UpdateInput
	flags := cmd.Flags()

	if flags.Changed("name") {
		in.Name = &habitName
	}
	if flags.Changed("description") {
		in.Description = &habitDescription
	}
	if flags.Changed("frequency") {
		freq, err := habit.ParseFrequency(habitFrequency)
		if err != nil {
			return err
		}
		in.Frequency = &freq
	}
	if flags.Changed("unit") {
		unit, err := habit.ParseUnit(habitUnit)
		if err != nil {
			return err
		}
		in.Unit = &unit
	}
	if flags.Changed("target") {
		in.TargetValue = &habitTarget
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.tracker.Update(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}

	return render(os.Stdout, h, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Updated habit %s (%s)\n", color.New(color.Bold).Sprint(h.Name), h.ID)
		return err
	})
}

func runHabitDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tracker.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted habit %s\n", args[0])
	return nil
}

func runHabitSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.tracker.Seed(cmd.Context())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(os.Stdout, "Store already has habits, nothing seeded")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Seeded %d sample habits\n", n)
	return nil
}

func targetLabel(a *app, h *habit.Habit) string {
	if h.IsBoolean() {
		return a.labels.Unit(h.Unit)
	}
	return a.labels.Amount(h.Unit, h.TargetValue)
}
