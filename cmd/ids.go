package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "Print the build ids handed to templates",
	Long: `Print BUILD_ID_CSS, BUILD_ID_JS and BUILD_ID_IMG as read from the build
file. A missing or unreadable build file yields the "dev" ids.

Examples:
  bustle ids                 # KEY=value lines
  bustle ids -f json         # JSON object`,
	RunE: runIDs,
}

var idsFlags *OutputFlags

func init() {
	rootCmd.AddCommand(idsCmd)

	idsFlags = AddOutputFlags(idsCmd)
}

func runIDs(cmd *cobra.Command, args []string) error {
	a, err := loadApp(commandContext(cmd))
	if err != nil {
		return err
	}

	ids := a.identity.ContextIDs()
	return idsFlags.Write(cmd.OutOrStdout(), ids, func(w io.Writer) error {
		keys := make([]string, 0, len(ids))
		for k := range ids {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", k, ids[k]); err != nil {
				return err
			}
		}
		return nil
	})
}
