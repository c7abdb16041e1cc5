package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names the environment variable that points at a config file
const ConfigEnvVar = "KVAZZ_CONFIG"

// ConfigFileName is the file looked for in the working directory and in
// ~/.config/kvazz
const ConfigFileName = "kvazz.yaml"

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads the configuration. An explicit path must exist; otherwise the
// KVAZZ_CONFIG variable, ./kvazz.yaml and ~/.config/kvazz/kvazz.yaml are
// tried in turn and defaults are returned when none is present.
func Load(explicitPath string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	path, err := resolveConfigPath(explicitPath, getenv)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	data = interpolateEnv(data, getenv)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	cfg.Path = absPath
	cfg.BaseDir = filepath.Dir(absPath)
	resolvePaths(cfg)

	if err := validateBasic(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath returns the config file to read, or "" when no file
// exists in any of the implicit locations
func resolveConfigPath(explicitPath string, getenv func(string) string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if getenv != nil {
		if fromEnv := getenv(ConfigEnvVar); fromEnv != "" {
			if _, err := os.Stat(fromEnv); err != nil {
				return "", fmt.Errorf("config file not found: %s (from %s)", fromEnv, ConfigEnvVar)
			}
			return fromEnv, nil
		}
	}

	candidates := []string{ConfigFileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "kvazz", ConfigFileName))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// interpolateEnv replaces ${VAR} and ${VAR:-default} with values from getenv
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	if getenv == nil {
		return data
	}
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if value := getenv(string(parts[1])); value != "" {
			return []byte(value)
		}
		return parts[2]
	})
}

// resolvePaths makes file paths in the config absolute relative to BaseDir
func resolvePaths(cfg *Config) {
	cfg.REPL.HistoryFile = resolvePath(cfg.BaseDir, cfg.REPL.HistoryFile)
	for i, p := range cfg.Watch.Include {
		cfg.Watch.Include[i] = resolvePath(cfg.BaseDir, p)
	}
}

func resolvePath(base, path string) string {
	if path == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateBasic collects every problem so they can be reported together
func validateBasic(cfg *Config) error {
	var errs []string

	if !validColor(cfg.Output.Color) {
		errs = append(errs, fmt.Sprintf("output.color: invalid color mode %q (must be auto, always or never)", cfg.Output.Color))
	}
	if cfg.Runtime.MaxCallDepth < 0 {
		errs = append(errs, fmt.Sprintf("runtime.max_call_depth: must not be negative, got %d", cfg.Runtime.MaxCallDepth))
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("watch.debounce: must not be negative, got %s", cfg.Watch.Debounce))
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := cfg.Profiles[name]
		if p.Color != "" && !validColor(p.Color) {
			errs = append(errs, fmt.Sprintf("profiles.%s.color: invalid color mode %q", name, p.Color))
		}
		if p.MaxCallDepth < 0 {
			errs = append(errs, fmt.Sprintf("profiles.%s.max_call_depth: must not be negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks a config built or modified in code, such as after flags
// were applied
func Validate(cfg *Config) error {
	return validateBasic(cfg)
}

func validColor(mode string) bool {
	switch mode {
	case "auto", "always", "never":
		return true
	}
	return false
}

// Warnings returns non-fatal configuration problems worth reporting
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.REPL.HistoryFile != "" {
		dir := filepath.Dir(cfg.REPL.HistoryFile)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("repl.history_file: directory %s does not exist, history will not be saved", dir))
		}
	}
	if cfg.Watch.Debounce > 0 && cfg.Watch.Debounce < 10*time.Millisecond {
		warnings = append(warnings, fmt.Sprintf("watch.debounce %s is very short, one save may rerun the script several times", cfg.Watch.Debounce))
	}
	for _, p := range cfg.Watch.Include {
		if _, err := os.Stat(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("watch.include: %s does not exist", p))
		}
	}
	return warnings
}

// ApplyProfile merges the named profile into cfg. Only non-zero profile
// values override.
func ApplyProfile(cfg *Config, name string) error {
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("no profiles defined in config")
	}

	p, ok := cfg.Profiles[name]
	if !ok {
		available := make([]string, 0, len(cfg.Profiles))
		for n := range cfg.Profiles {
			available = append(available, n)
		}
		sort.Strings(available)
		return fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(available, ", "))
	}

	if p.Color != "" {
		cfg.Output.Color = p.Color
	}
	if p.Prompt != "" {
		cfg.REPL.Prompt = p.Prompt
	}
	if p.MaxCallDepth != 0 {
		cfg.Runtime.MaxCallDepth = p.MaxCallDepth
	}
	return nil
}
