package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/output"
)

func newCoresCmd() *cobra.Command {
	var onlyRecommended bool

	cmd := &cobra.Command{
		Use:   "cores",
		Short: "List server cores and their Minecraft versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cores, err := newMirrorClient().ListCores(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cores))
			for name, c := range cores {
				if onlyRecommended && !c.Recommend {
					continue
				}
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				c := cores[name]
				line := output.FHeader(name) + " " + output.FDebug("["+c.Tag+"]")
				if c.Recommend {
					line += " " + output.FSuccess(output.StyleSymbols["pass"])
				}
				fmt.Println(line)
				fmt.Printf("  %s\n", output.FDetail(strings.Join(c.MCVersions, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&onlyRecommended, "recommended", "r", false, "Only show recommended cores")
	return cmd
}
