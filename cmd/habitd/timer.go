package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/timer"
	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer [ID]",
	Short: "Run the focus timer, optionally bound to a habit",
	Long: `Run an interactive focus timer. Bound to a habit measured in minutes or
hours, pausing or stopping the timer records the elapsed time as today's value.
Without a habit the timer runs free and its progress bar cycles every hour.

Commands (type and press enter):
  p       pause or resume
  s       stop
  r       reset to zero without recording
  b ID    bind to a habit (while not running)
  u       unbind (while not running)
  q       quit, recording any unsaved time`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimer,
}

func init() {
	rootCmd.AddCommand(timerCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	a, err := loadApp(appOptions{push: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	acc := timer.New(a.tracker, timer.Config{TickInterval: a.cfg.Timer.TickDuration()}, a.logger)
	defer acc.Close()
	a.tracker.OnDelete(acc)

	if len(args) == 1 {
		if err := bindTimer(ctx, a, acc, args[0]); err != nil {
			return err
		}
	}
	if _, err := acc.Start(); err != nil {
		return err
	}

	ui := &timerUI{app: a, acc: acc, out: os.Stdout}
	ui.banner()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	refresh := time.NewTicker(a.cfg.Timer.TickDuration())
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(ui.out)
			return ui.quit()
		case line, ok := <-lines:
			if !ok {
				return ui.quit()
			}
			done, err := ui.handle(ctx, line)
			if err != nil {
				ui.errorf("%v", err)
			}
			if done {
				return ui.quit()
			}
		case <-refresh.C:
			ui.draw()
		}
	}
}

func bindTimer(ctx context.Context, a *app, acc *timer.Accumulator, id string) error {
	h, err := a.tracker.Get(ctx, id)
	if err != nil {
		return err
	}
	if !h.Unit.IsTimeBased() {
		color.New(color.FgYellow).Fprintf(os.Stdout, "%s is measured in %s; timer time will not be recorded\n",
			h.Name, a.labels.Unit(h.Unit))
	}
	return acc.Bind(h)
}

type timerUI struct {
	app *app
	acc *timer.Accumulator
	out io.Writer
}

func (u *timerUI) banner() {
	s := u.acc.Snapshot()
	if s.Bound() {
		color.New(color.FgCyan, color.Bold).Fprintf(u.out, "Timer bound to %s (target %s)\n",
			s.HabitName, u.app.labels.Amount(s.Unit, s.TargetValue))
	} else {
		color.New(color.FgCyan, color.Bold).Fprintln(u.out, "Free timer")
	}
	fmt.Fprintln(u.out, "p pause/resume, s stop, r reset, b ID bind, u unbind, q quit")
}

func (u *timerUI) draw() {
	s := u.acc.Snapshot()
	pct := int(math.Round(u.acc.Progress() * 100))

	state := s.State.String()
	switch s.State {
	case timer.Running:
		state = color.New(color.FgGreen).Sprint(state)
	case timer.Paused:
		state = color.New(color.FgYellow).Sprint(state)
	}

	fmt.Fprintf(u.out, "\r%s %s %3d%% %-8s", timer.FormatElapsed(s.ElapsedSeconds), progressBar(pct, 30), pct, state)
}

// handle runs one command line and reports whether the user asked to quit.
func (u *timerUI) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		u.draw()
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "p", "pause", "resume":
		if u.acc.Snapshot().State == timer.Running {
			s, err := u.acc.Pause(ctx)
			u.reportFlush(ctx, s, err)
			return false, nil
		}
		_, err := u.acc.Resume()
		return false, err
	case "s", "stop":
		u.stop(ctx)
		return false, nil
	case "r", "reset":
		u.acc.Reset()
		fmt.Fprintln(u.out, "Timer reset")
		return false, nil
	case "b", "bind":
		if len(fields) != 2 {
			return false, errors.New("usage: b ID")
		}
		if u.acc.Snapshot().State == timer.Running {
			return false, errors.New("pause or stop the timer before binding")
		}
		if err := bindTimer(ctx, u.app, u.acc, fields[1]); err != nil {
			return false, err
		}
		u.banner()
		return false, nil
	case "u", "unbind":
		if err := u.acc.Unbind(); err != nil {
			return false, err
		}
		u.banner()
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

// reportFlush tells the user what a pause or stop wrote to the habit.
func (u *timerUI) reportFlush(ctx context.Context, s timer.Session, err error) {
	if err != nil {
		if errors.Is(err, timer.ErrInvalidTimerState) {
			u.errorf("%v", err)
			return
		}
		u.errorf("timer %s but time was not recorded: %v", s.State, err)
		return
	}
	if !s.Bound() || !s.Unit.IsTimeBased() || s.ElapsedSeconds <= 0 {
		fmt.Fprintf(u.out, "\nTimer %s at %s\n", s.State, timer.FormatElapsed(s.ElapsedSeconds))
		return
	}

	value := habit.ValueFromSeconds(s.Unit, s.ElapsedSeconds)
	fmt.Fprintf(u.out, "\nTimer %s, recorded %s for %s", s.State, u.app.labels.Amount(s.Unit, value), s.HabitName)
	if p, err := u.app.tracker.Progress(ctx, s.HabitID); err == nil {
		fmt.Fprintf(u.out, " (%s, streak %s)", formatPercent(p.Completion), formatStreak(p.Streak))
	}
	fmt.Fprintln(u.out)
}

// quit stops a session that still holds unrecorded time.
func (u *timerUI) quit() error {
	if u.acc.Snapshot().State != timer.Running {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return u.stop(ctx)
}

func (u *timerUI) stop(ctx context.Context) error {
	elapsed := u.acc.Snapshot().ElapsedSeconds
	s, err := u.acc.Stop(ctx)
	if !s.Bound() {
		// a free session is zeroed on stop
		s.ElapsedSeconds = elapsed
	}
	u.reportFlush(ctx, s, err)
	return err
}

func (u *timerUI) errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(u.out, "\n%s\n", fmt.Sprintf(format, args...))
}
