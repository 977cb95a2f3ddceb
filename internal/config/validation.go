package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/bustle/internal/staleness"
	"github.com/conneroisu/bustle/internal/validation"
)

var manifestExtensions = []string{".yml", ".yaml", ".json", ".jsonc"}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateStaticConfig(&config.Static); err != nil {
		return fmt.Errorf("static config: %w", err)
	}

	for key, p := range map[string]string{
		"manifest":   config.Manifest,
		"build_file": config.BuildFile,
		"output":     config.Output,
	} {
		if err := validatePath(p); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", key, p, err)
		}
	}

	if err := validation.ValidateFileExtension(config.Manifest, manifestExtensions); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	if err := validateLessConfig(&config.Less); err != nil {
		return fmt.Errorf("less config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateStaticConfig validates where assets are read from and served
func validateStaticConfig(config *StaticConfig) error {
	if err := validatePath(config.Root); err != nil {
		return fmt.Errorf("invalid root '%s': %w", config.Root, err)
	}

	if err := validation.ValidateStaticURL(config.URL); err != nil {
		return err
	}

	for _, source := range config.Sources {
		if err := validatePath(source); err != nil {
			return fmt.Errorf("invalid source '%s': %w", source, err)
		}
	}

	return nil
}

// validateLessConfig validates LESS preprocessing settings. The binary is
// only checked when preprocessing is enabled.
func validateLessConfig(config *LessConfig) error {
	if _, err := staleness.ParsePolicy(config.Policy); err != nil {
		return err
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}

	if config.Enabled {
		if err := validation.ValidateBinary(config.Bin); err != nil {
			return fmt.Errorf("invalid bin: %w", err)
		}
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown level %q", config.Level)
	}

	switch config.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q", config.Format)
	}
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
