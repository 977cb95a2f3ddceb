package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bustle/internal/errors"
)

var compileCmd = &cobra.Command{
	Use:     "compile [source.less...]",
	Aliases: []string{"c"},
	Short:   "Compile LESS sources into derived CSS",
	Long: `Compile LESS sources next to themselves as <source>.less.css.

Without arguments every .less source named by a CSS bundle is compiled. Only
stale outputs are regenerated unless --force is given; the stale policy
decides what stale means.

Examples:
  bustle compile --less                        # Compile stale bundle sources
  bustle compile --less css/base.less          # Compile one source
  bustle compile --less --force                # Recompile everything`,
	RunE: runCompile,
}

var compileForce bool

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().BoolVar(&compileForce, "force", false, "Compile even when the derived CSS is up to date")
}

func runCompile(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if err := validateLessArguments(args); err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	if a.compiler == nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "LESS preprocessing is disabled, enable it with --less or less.enabled")
	}

	targets := args
	if len(targets) == 0 {
		targets = a.lessTargets()
	}

	out := cmd.OutOrStdout()
	collector := errors.NewErrorCollector()
	compiled := 0
	for _, logical := range targets {
		var derived string
		ran := true
		if compileForce {
			derived, err = a.compiler.Compile(ctx, logical)
		} else {
			derived, ran, err = a.compiler.Ensure(ctx, logical)
		}
		if err != nil {
			collector.AddError(err)
			continue
		}
		if ran {
			compiled++
			fmt.Fprintf(out, "compiled %s -> %s\n", logical, derived)
		}
	}

	fmt.Fprintf(out, "%d of %d source(s) compiled\n", compiled, len(targets))
	return collector.Err()
}
