package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nishad/encode-audit/internal/config"
	"github.com/nishad/encode-audit/internal/paths"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage encode-audit configuration",
	Long:  `Manage encode-audit configuration including paths, defaults, and history settings.`,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show all active paths",
	Long: `Display the configuration, keyfile, and history locations used by
encode-audit, along with any environment variable overrides.`,
	RunE: runConfigPaths,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long: `Create a default configuration file at ~/.config/encode-audit/config.yaml.
If a config file already exists, use --force to overwrite it.`,
	Example: `  # Create default config
  encode-audit config init

  # Force overwrite existing config
  encode-audit config init --force`,
	RunE: runConfigInit,
}

var (
	configForce bool
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing configuration")

	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	p := paths.GetPaths()

	printInfo("encode-audit Paths")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))

	fmt.Printf("%s\n", colorize(colorBold, "Base Directories:"))
	fmt.Printf("  Config:   %s\n", colorize(colorCyan, p.ConfigDir))
	fmt.Printf("  State:    %s\n", colorize(colorCyan, p.StateDir))

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Specific Paths:"))
	fmt.Printf("  Config file: %s\n", colorize(colorCyan, config.GetConfigPath()))
	fmt.Printf("  Keyfile:     %s\n", colorize(colorCyan, paths.GetKeyfilePath()))
	fmt.Printf("  History:     %s\n", colorize(colorCyan, paths.GetHistoryPath()))

	envVars := []string{
		"ENCODE_AUDIT_CONFIG",
		"ENCODE_AUDIT_CONFIG_HOME",
		"ENCODE_AUDIT_STATE_HOME",
		"ENCODE_AUDIT_KEYFILE",
		"ENCODE_AUDIT_HISTORY_PATH",
	}

	var set []string
	for _, name := range envVars {
		if os.Getenv(name) != "" {
			set = append(set, name)
		}
	}
	if len(set) > 0 {
		fmt.Println()
		fmt.Printf("%s\n", colorize(colorBold, "Environment Variables:"))
		for _, name := range set {
			fmt.Printf("  %s = %s\n", colorize(colorYellow, name), colorize(colorCyan, os.Getenv(name)))
		}
	}

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Path Status:"))

	pathChecks := []struct {
		name string
		path string
	}{
		{"Config", config.GetConfigPath()},
		{"Keyfile", paths.GetKeyfilePath()},
		{"History", paths.GetHistoryPath()},
	}

	for _, check := range pathChecks {
		if _, err := os.Stat(check.path); err == nil {
			fmt.Printf("  %-10s %s\n", check.name+":", colorize(colorGreen, "✓ exists"))
		} else {
			fmt.Printf("  %-10s %s\n", check.name+":", colorize(colorGray, "✗ not found"))
		}
	}

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	printInfo("Configuration")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))
	fmt.Printf("%s %s\n", colorize(colorBold, "Config File:"), path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println(colorize(colorYellow, "  (using defaults - no config file found)"))
	}
	fmt.Println()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " ") {
			fmt.Println(colorize(colorBold, line))
		} else if strings.Contains(line, ": ") {
			parts := strings.SplitN(line, ": ", 2)
			indent := len(line) - len(strings.TrimLeft(line, " "))
			fmt.Printf("%s%s: %s\n",
				strings.Repeat(" ", indent),
				colorize(colorCyan, strings.TrimSpace(parts[0])),
				colorize(colorGreen, parts[1]))
		} else {
			fmt.Println(line)
		}
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(paths.GetPaths().ConfigDir, "config.yaml")

	if _, err := os.Stat(path); err == nil && !configForce {
		printWarning("Configuration already exists at %s", path)
		fmt.Println("Use --force to overwrite")
		return nil
	}

	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	printSuccess("Configuration created at %s", path)
	fmt.Println()
	configPath = path
	return runConfigShow(cmd, args)
}
