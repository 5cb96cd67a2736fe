package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/uniast/grammar"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported language identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tALIASES\tEXTENSIONS")
			for _, l := range grammar.Languages() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, l.Name, strings.Join(l.Aliases, ","), strings.Join(l.Extensions, ","))
			}
			return w.Flush()
		},
	}
}
