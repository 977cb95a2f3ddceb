package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bustle/internal/minify"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Write minified bundles and the build file",
	Long: `Concatenate and minify every bundle of the manifest into
<output>/<kind>/<bundle>-min.<kind> and record the build ids in the build file.

Each bundle is versioned by a hash of its minified content, so unchanged
bundles keep their URLs across builds.

Examples:
  bustle build                          # Build into the static root
  bustle build --output dist            # Build somewhere else
  bustle build --build-id "$(git rev-parse --short HEAD)"`,
	RunE: runBuild,
}

var (
	buildOutput  string
	buildID      string
	buildWorkers int
	buildDryRun  bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory (default from config, then the static root)")
	buildCmd.Flags().StringVar(&buildID, "build-id", "", "Global build id (default is the current Unix time)")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "j", 0, "Bundles built concurrently (default GOMAXPROCS)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Build bundles but do not write the build file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	output := a.cfg.Output
	if buildOutput != "" {
		output = buildOutput
	}

	opts := minify.Options{
		Manifest:    a.manifest,
		Resolver:    a.resolver,
		LessEnabled: a.cfg.Less.Enabled,
		OutputDir:   output,
		BuildID:     buildID,
		Workers:     buildWorkers,
		Logger:      a.logger,
	}
	if a.compiler != nil {
		opts.Compiler = a.compiler
	}

	builder, err := minify.NewBuilder(opts)
	if err != nil {
		return err
	}

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tBUNDLE\tHASH\tBYTES\tPATH")
	for _, b := range result.Bundles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.Kind, b.Name, b.Hash, b.Size, b.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if buildDryRun {
		return nil
	}

	if err := result.Identity.Write(a.buildFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.buildFile)
	return nil
}
