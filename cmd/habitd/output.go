package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/habit"
	"gopkg.in/yaml.v3"
)

// render writes v as JSON or YAML, or calls table for the default format.
func render(w io.Writer, v any, table func(w io.Writer) error) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return table(w)
	}
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// progressRow is the serialised form of a habit.Progress.
type progressRow struct {
	habit.Progress `yaml:",inline"`
	Warning        string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func toRows(views []habit.Progress) []progressRow {
	rows := make([]progressRow, 0, len(views))
	for _, v := range views {
		row := progressRow{Progress: v}
		if v.Warning != nil {
			row.Warning = v.Warning.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// progressBar renders pct (0-100) as a fixed-width bar.
func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// completionColor picks green for complete, yellow for started and red for
// untouched.
func completionColor(pct int) *color.Color {
	switch {
	case pct >= 100:
		return color.New(color.FgGreen, color.Bold)
	case pct > 0:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func formatPercent(pct int) string {
	return completionColor(pct).Sprintf("%3d%%", pct)
}

func formatStreak(streak int) string {
	if streak == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", streak)
}
