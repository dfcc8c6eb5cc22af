package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/docsift/internal/classify"
)

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported formats and their extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFormats(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func printFormats(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tEXTENSIONS")
	for _, tag := range classify.All() {
		fmt.Fprintf(w, "%s\t%s\n", tag, strings.Join(tag.Extensions(), " "))
	}
	return w.Flush()
}
