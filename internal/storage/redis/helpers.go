package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
)

// parseHabit converts the habit and log hashes to a Habit
func parseHabit(data map[string]string, logData map[string]string) (*habit.Habit, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	targetValue, err := strconv.ParseFloat(data["target_value"], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target_value: %w", err)
	}

	streak, err := strconv.Atoi(data["streak"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse streak: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	logs, err := parseLogs(logData)
	if err != nil {
		return nil, err
	}

	return &habit.Habit{
		ID:          data["id"],
		Name:        data["name"],
		Description: data["description"],
		Frequency:   habit.Frequency(data["frequency"]),
		Unit:        habit.Unit(data["unit"]),
		TargetValue: targetValue,
		Streak:      streak,
		Logs:        logs,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// parseLogs converts a date -> value hash to Logs
func parseLogs(data map[string]string) (habit.Logs, error) {
	logs := make(habit.Logs, len(data))
	for date, raw := range data {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log %s: %w", date, err)
		}
		logs[date] = value
	}
	return logs, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
