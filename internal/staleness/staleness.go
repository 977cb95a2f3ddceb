// Package staleness decides whether a compiled derivative of a source file
// must be regenerated.
package staleness

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/types"
)

// Policy selects how staleness is decided once a derived output exists.
type Policy int

const (
	// PolicyMtimeCompare regenerates only when the source is newer than its
	// derived output.
	PolicyMtimeCompare Policy = iota
	// PolicyAlways regenerates on every check.
	PolicyAlways
)

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyMtimeCompare:
		return "mtime"
	case PolicyAlways:
		return "always"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "mtime" or "always".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mtime":
		return PolicyMtimeCompare, nil
	case "always":
		return PolicyAlways, nil
	default:
		return 0, fmt.Errorf("unknown stale policy %q (want mtime or always)", s)
	}
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

// Resolver maps a logical path to an absolute one.
type Resolver interface {
	Resolve(logical string) string
}

// Evaluator checks derived outputs against their sources.
type Evaluator struct {
	resolver Resolver
	policy   Policy
}

// NewEvaluator creates an evaluator with a fixed policy.
func NewEvaluator(resolver Resolver, policy Policy) *Evaluator {
	return &Evaluator{resolver: resolver, policy: policy}
}

// Policy returns the evaluator's policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// IsStale reports whether the derived output of logical must be regenerated.
// A missing derived output is always stale. A missing source is an error.
func (e *Evaluator) IsStale(logical string) (bool, error) {
	source := e.resolver.Resolve(logical)
	derived := types.DerivedPath(source)

	derivedInfo, err := os.Stat(derived)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, errors.NewIOError(errors.ErrCodeSourceMissing, "stat derived output", err).WithFile(derived)
	}

	if e.policy == PolicyAlways {
		return true, nil
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return false, errors.NewIOError(errors.ErrCodeSourceMissing, "stat source", err).WithFile(logical)
	}

	return sourceInfo.ModTime().After(derivedInfo.ModTime()), nil
}
