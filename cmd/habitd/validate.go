package main

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/habitd/internal/config"
	"github.com/goodtune/habitd/internal/labels"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var validateDump bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the habitd configuration file for syntax and semantic errors.`,
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with non-default values highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}
	if _, err := labels.New(cfg.Labels.Units, cfg.Labels.Frequencies); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	var unknownKeys []string
	if _, statErr := os.Stat(configPath); statErr == nil {
		unknownKeys, err = config.UnknownKeys(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
		}
		fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)
	} else {
		fmt.Fprintf(os.Stdout, "✅ No configuration file at %s, defaults are valid\n", configPath)
	}

	// Warn about unknown keys
	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if validateDump {
		fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
		fmt.Fprintln(os.Stdout, "FULL CONFIGURATION (values different from defaults are highlighted)")
		fmt.Fprintln(os.Stdout, strings.Repeat("=", 80))

		if err := dumpConfig(cfg, config.Defaults()); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
	}

	return nil
}

// dumpConfig prints every setting grouped by section, highlighting values
// that differ from the defaults.
func dumpConfig(cfg, defaultCfg *config.Config) error {
	current, err := flattenConfig(cfg)
	if err != nil {
		return err
	}
	defaults, err := flattenConfig(defaultCfg)
	if err != nil {
		return err
	}

	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	keys := make([]string, 0, len(current))
	for key := range current {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	section := ""
	for _, key := range keys {
		head, field, _ := strings.Cut(key, ".")
		if head != section {
			section = head
			cyan.Printf("\n[%s]\n", section)
		}

		value := current[key]
		if key == "storage.redis.password" {
			value = redactPassword(fmt.Sprint(value))
		}
		if def, ok := defaults[key]; ok && reflect.DeepEqual(current[key], def) {
			green.Printf("  %s = %v\n", field, value)
		} else {
			yellow.Printf("  %s = %v  (modified from default: %v)\n", field, value, defaults[key])
		}
	}
	return nil
}

// flattenConfig renders cfg through its yaml tags into dotted keys.
func flattenConfig(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	out := make(map[string]any)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			flatten(full, child, out)
			continue
		}
		out[full] = value
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
