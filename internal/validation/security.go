// Package validation provides checks on the values bustle hands to external
// tools and writes into file names: compiler binaries, bundle names and the
// static URL prefix.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

var shellMetachars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\n", "\r"}

// ValidateBinary validates the compiler binary configured by the user. The
// binary may be a bare name looked up on PATH or an absolute/relative path,
// but it may not smuggle shell syntax.
func ValidateBinary(bin string) error {
	if strings.TrimSpace(bin) == "" {
		return fmt.Errorf("binary cannot be empty")
	}

	for _, char := range shellMetachars {
		if strings.Contains(bin, char) {
			return fmt.Errorf("binary contains dangerous character: %s", char)
		}
	}

	if strings.ContainsAny(bin, " \t") && !filepath.IsAbs(bin) {
		return fmt.Errorf("binary name contains whitespace: %q", bin)
	}

	return nil
}

// ValidateBundleName validates a bundle name before it is used to build an
// output file name such as css/<name>-min.css.
func ValidateBundleName(name string) error {
	if name == "" {
		return fmt.Errorf("bundle name cannot be empty")
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("bundle name contains path traversal: %s", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("bundle name contains a path separator: %s", name)
	}

	for _, char := range shellMetachars {
		if strings.Contains(name, char) {
			return fmt.Errorf("bundle name contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}
