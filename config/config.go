package config

import "time"

// Config represents the complete kvazz configuration
type Config struct {
	BaseDir  string                   `yaml:"-"` // Directory containing config file, for resolving relative paths
	Path     string                   `yaml:"-"` // File the config was loaded from, empty for defaults
	Output   OutputConfig             `yaml:"output"`
	REPL     REPLConfig               `yaml:"repl"`
	Watch    WatchConfig              `yaml:"watch"`
	Runtime  RuntimeConfig            `yaml:"runtime"`
	Profiles map[string]ProfileConfig `yaml:"profiles"` // Named overrides selected with -profile
}

// ProfileConfig holds per-profile overrides.
// All fields are optional - only non-zero values override the base config
type ProfileConfig struct {
	Color        string `yaml:"color"`          // Override output.color
	Prompt       string `yaml:"prompt"`         // Override repl.prompt
	MaxCallDepth int    `yaml:"max_call_depth"` // Override runtime.max_call_depth
}

// OutputConfig holds settings for what the driver prints
type OutputConfig struct {
	Color  string `yaml:"color"`  // auto, always or never (default: auto)
	Tokens bool   `yaml:"tokens"` // Dump the token listing before running
	AST    bool   `yaml:"ast"`    // Dump the tree before running
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	Prompt      string `yaml:"prompt"`       // Primary prompt (default: "kv> ")
	HistoryFile string `yaml:"history_file"` // Empty uses a file in the temp directory
}

// WatchConfig holds -watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a rerun (default: 200ms)
	Include  StringOrSlice `yaml:"include"`  // Extra files or directories whose changes rerun the script
}

// RuntimeConfig holds interpreter limits
type RuntimeConfig struct {
	MaxCallDepth int `yaml:"max_call_depth"` // 0 leaves recursion bounded only by the host stack
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Output: OutputConfig{
			Color: "auto",
		},
		REPL: REPLConfig{
			Prompt: "kv> ",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
