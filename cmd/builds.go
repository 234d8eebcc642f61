package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/fastmirror"
	"github.com/tanq16/mcscs/internal/output"
)

func newBuildsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds [CORE] [VERSION]",
		Short: "List builds of a core for one Minecraft version",
		Example: `  mcscs builds Paper 1.20.1
  mcscs builds Vanilla 1.20.4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			builds, err := newMirrorClient().ListBuilds(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(builds) == 0 {
				output.PrintWarning(fmt.Sprintf("No builds found for %s %s", args[0], args[1]))
				return nil
			}
			list := make([]fastmirror.Build, 0, len(builds))
			for _, b := range builds {
				list = append(list, b)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].UpdateTime > list[j].UpdateTime })
			output.PrintHeader(fmt.Sprintf("%s %s", args[0], args[1]))
			for _, b := range list {
				fmt.Printf("  %-20s %s %s\n", b.CoreVersion, output.FDebug(b.UpdateTime), output.FDetail(b.SHA1))
			}
			return nil
		},
	}
	return cmd
}
