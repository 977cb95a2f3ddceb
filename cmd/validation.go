package cmd

import (
	"fmt"

	"github.com/conneroisu/bustle/internal/types"
	"github.com/conneroisu/bustle/internal/validation"
)

// parseBundleArgs validates the <kind> <bundle> arguments shared by several
// commands.
func parseBundleArgs(args []string) (types.Kind, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("expected <kind> <bundle>, got %d arguments", len(args))
	}

	kind, err := types.ParseKind(args[0])
	if err != nil {
		return "", "", err
	}

	if err := validation.ValidateBundleName(args[1]); err != nil {
		return "", "", fmt.Errorf("invalid bundle: %w", err)
	}

	return kind, args[1], nil
}

// validateLessArguments checks that explicit compile targets are .less files
func validateLessArguments(args []string) error {
	for _, arg := range args {
		if !types.IsDerivable(arg) {
			return fmt.Errorf("invalid argument '%s': not a %s source", arg, types.LessExt)
		}
	}
	return nil
}
