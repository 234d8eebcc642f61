package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/utils"
)

func newFetchCmd() *cobra.Command {
	var sha1 string
	var removeOnCancel bool

	cmd := &cobra.Command{
		Use:   "fetch [URL] [--sha1 HEX]",
		Short: "Download any URL through aria2c, optionally verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := utils.CoreJob{
				JobType:      utils.JobTypeURL,
				URL:          args[0],
				ExpectedSHA1: sha1,
				Metadata:     make(map[string]any),
			}
			return runJobs(cmd.Context(), []utils.CoreJob{job}, runOptions{removeOnCancel: removeOnCancel})
		},
	}

	cmd.Flags().StringVar(&sha1, "sha1", "", "Expected SHA-1 (lowercase hex)")
	cmd.Flags().BoolVar(&removeOnCancel, "remove-on-cancel", false, "Remove the aria2c task when interrupted")
	return cmd
}
