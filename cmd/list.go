package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/bustle/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the bundles of the manifest",
	Long: `List every bundle of the manifest with its build id and sources.

Examples:
  bustle list                     # Table grouped by kind
  bustle list -f yaml             # Output as YAML
  bustle list --sources           # Include each bundle's source files
  bustle list -q                  # "<kind> <name>" lines for scripts`,
	RunE: runList,
}

var (
	listFlags       *OutputFlags
	listWithSources bool
	listQuiet       bool
)

// BundleInfo is one row of the bundle listing
type BundleInfo struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Name    string   `json:"name" yaml:"name"`
	BuildID string   `json:"build_id" yaml:"build_id"`
	Path    string   `json:"path" yaml:"path"`
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddOutputFlags(listCmd)
	listCmd.Flags().BoolVarP(&listWithSources, "sources", "s", false, "Include bundle sources")
	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Print only \"<kind> <name>\" per bundle, without headings")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(commandContext(cmd))
	if err != nil {
		return err
	}

	var infos []BundleInfo
	for _, kind := range types.Kinds {
		for _, name := range a.manifest.Names(kind) {
			info := BundleInfo{
				Kind:    kind.String(),
				Name:    name,
				BuildID: a.identity.Lookup(kind, name),
				Path:    types.MinifiedPath(kind, name),
			}
			if listWithSources {
				info.Sources, _ = a.manifest.Bundle(kind, name)
			}
			infos = append(infos, info)
		}
	}

	return listFlags.Write(cmd.OutOrStdout(), infos, func(w io.Writer) error {
		if listQuiet {
			return writeBundleNames(w, infos)
		}
		return writeBundleTable(w, infos)
	})
}

// writeBundleNames prints one line per bundle in the argument order of
// "bustle render".
func writeBundleNames(w io.Writer, infos []BundleInfo) error {
	for _, info := range infos {
		if _, err := fmt.Fprintf(w, "%s %s\n", info.Kind, info.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeBundleTable(w io.Writer, infos []BundleInfo) error {
	title := cases.Title(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	current := ""
	for _, info := range infos {
		if info.Kind != current {
			if current != "" {
				fmt.Fprintln(tw)
			}
			current = info.Kind
			kind, _ := types.ParseKind(info.Kind)
			fmt.Fprintf(tw, "%s bundles\n", title.String(kind.Label()))
			fmt.Fprintln(tw, "NAME\tBUILD ID\tPATH")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.BuildID, info.Path)
		if len(info.Sources) > 0 {
			fmt.Fprintf(tw, "\t\t  %s\n", strings.Join(info.Sources, ", "))
		}
	}

	if len(infos) == 0 {
		fmt.Fprintln(tw, "No bundles defined")
	}
	return tw.Flush()
}
