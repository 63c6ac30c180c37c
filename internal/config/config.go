// Package config resolves dopamine's on-disk locations and a handful
// of environment-tunable defaults: a validated environment variable
// with a warning-and-fallback default, never a hard failure.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	// EnvHome overrides the default dopamine home directory.
	EnvHome = "DOP_HOME"

	// EnvRegistryURL overrides the registry base URL.
	EnvRegistryURL = "DOP_REGISTRY_URL"

	// EnvAPITimeout overrides the registry client's request timeout.
	EnvAPITimeout = "DOP_API_TIMEOUT"

	// EnvOffline, when truthy, forces every cache-repo lookup to skip
	// the network regardless of CLI flags.
	EnvOffline = "DOP_OFFLINE"

	// DefaultRegistryURL is used when EnvRegistryURL is unset.
	DefaultRegistryURL = "https://registry.dopamine.dev"

	// DefaultAPITimeout is used when EnvAPITimeout is unset or invalid.
	DefaultAPITimeout = 30 * time.Second
)

// Config holds dopamine's resolved configuration.
type Config struct {
	HomeDir     string // $DOP_HOME
	CacheDir    string // $DOP_HOME/cache — root of the internal/cache.Layout
	RegistryURL string
	APITimeout  time.Duration
	Offline     bool
}

// DefaultConfig resolves a Config from the environment, falling back
// to platform defaults and printing a warning (never failing) on an
// invalid override.
func DefaultConfig() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		HomeDir:     home,
		CacheDir:    filepath.Join(home, "cache"),
		RegistryURL: registryURL(),
		APITimeout:  apiTimeout(),
		Offline:     isTruthy(os.Getenv(EnvOffline)),
	}, nil
}

// homeDir resolves DOP_HOME, or the platform default: POSIX
// $HOME/.dopamine, Windows %LOCALAPPDATA%\Dopamine.
func homeDir() (string, error) {
	if v := os.Getenv(EnvHome); v != "" {
		if !filepath.IsAbs(v) {
			fmt.Fprintf(os.Stderr, "Warning: %s=%q is not an absolute path, using default\n", EnvHome, v)
		} else {
			return v, nil
		}
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "Dopamine"), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".dopamine"), nil
}

func registryURL() string {
	if v := os.Getenv(EnvRegistryURL); v != "" {
		return v
	}
	return DefaultRegistryURL
}

func apiTimeout() time.Duration {
	v := os.Getenv(EnvAPITimeout)
	if v == "" {
		return DefaultAPITimeout
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n", EnvAPITimeout, v, DefaultAPITimeout)
		return DefaultAPITimeout
	}
	if d < time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n", EnvAPITimeout, d)
		return time.Second
	}
	if d > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n", EnvAPITimeout, d)
		return 10 * time.Minute
	}
	return d
}

func isTruthy(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	default:
		return false
	}
}

// EnsureDirectories creates the directories Config names.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.HomeDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	return nil
}
