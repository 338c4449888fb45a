package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "encode-audit"

// Paths holds the per-user base directories. Config holds config.yaml,
// state holds the run history.
type Paths struct {
	ConfigDir string
	StateDir  string
}

// GetPaths returns all base paths respecting environment variables
func GetPaths() Paths {
	return Paths{
		ConfigDir: getDir("ENCODE_AUDIT_CONFIG_HOME", "XDG_CONFIG_HOME", ".config"),
		StateDir:  getDir("ENCODE_AUDIT_STATE_HOME", "XDG_STATE_HOME", ".local/state"),
	}
}

func getDir(appEnv, xdgEnv, defaultBase string) string {
	// 1. Check app-specific env
	if dir := os.Getenv(appEnv); dir != "" {
		return dir
	}

	// 2. Check XDG env
	if xdgBase := os.Getenv(xdgEnv); xdgBase != "" {
		return filepath.Join(xdgBase, appName)
	}

	// 3. Use default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultBase, appName)
}

// GetKeyfilePath returns the ENCODE keypairs file location.
// The DCC tools have always read ~/keypairs.json, so that stays the default.
func GetKeyfilePath() string {
	if path := os.Getenv("ENCODE_AUDIT_KEYFILE"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "keypairs.json")
}

// GetHistoryPath returns the path to the run history database
func GetHistoryPath() string {
	if path := os.Getenv("ENCODE_AUDIT_HISTORY_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().StateDir, "history.db")
}

// EnsureDirectories creates the config and state directories plus any
// extra directories given, such as the parent of a custom history path.
func EnsureDirectories(extra ...string) error {
	paths := GetPaths()
	dirs := append([]string{
		paths.ConfigDir,
		paths.StateDir,
	}, extra...)

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
