package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bustle/internal/version"
)

var (
	versionFlags *OutputFlags
	versionShort bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for bustle including the version, git
commit, build time, Go version and target platform.

Examples:
  bustle version              # Detailed version info
  bustle version --short      # Version only
  bustle version -f json      # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFlags = AddOutputFlags(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()

	return versionFlags.Write(cmd.OutOrStdout(), info, func(w io.Writer) error {
		if versionShort {
			_, err := fmt.Fprintln(w, info.Short())
			return err
		}
		_, err := fmt.Fprintf(w, "bustle\n%s\n", info)
		return err
	})
}
