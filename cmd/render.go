package cmd

import (
	"fmt"

	"github.com/a-h/templ"
	"github.com/spf13/cobra"

	"github.com/conneroisu/bustle/internal/bundle"
	"github.com/conneroisu/bustle/internal/types"
)

var renderCmd = &cobra.Command{
	Use:     "render <kind> <bundle>",
	Aliases: []string{"r"},
	Short:   "Print the markup that references a bundle",
	Long: `Print the <script> or <link> tags for a bundle of the manifest.

In debug mode every source of the bundle is referenced on its own and LESS
sources are compiled first. Otherwise the single minified artifact is
referenced with its build id as a cache-busting query.

Examples:
  bustle render css main                      # Production <link> tag
  bustle render style main --media print      # Override the media attribute
  bustle render js app --debug                # One <script> per source`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

var (
	renderDebug bool
	renderMedia string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVarP(&renderDebug, "debug", "d", false, "Reference individual sources (default from config)")
	renderCmd.Flags().StringVar(&renderMedia, "media", types.DefaultMedia, "media attribute of style links")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	kind, name, err := parseBundleArgs(args)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	builder, err := a.bundleBuilder()
	if err != nil {
		return err
	}

	opts := []bundle.RenderOption{bundle.WithMedia(renderMedia)}
	if cmd.Flags().Changed("debug") {
		opts = append(opts, bundle.WithDebug(renderDebug))
	}

	var component templ.Component
	switch kind {
	case types.KindCSS:
		component = builder.StyleComponent(name, opts...)
	case types.KindJS:
		component = builder.ScriptComponent(name, opts...)
	}

	out := cmd.OutOrStdout()
	if err := component.Render(ctx, out); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
