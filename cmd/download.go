package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/utils"
)

func newDownloadCmd() *cobra.Command {
	var s3Target string
	var removeOnCancel bool

	cmd := &cobra.Command{
		Use:   "download [CORE] [VERSION] [BUILD]",
		Short: "Download a server core and verify its SHA-1",
		Long: `Download a server core from FastMirror through aria2c and verify it.
VERSION and BUILD default to the newest available ones.`,
		Example: `  mcscs download Paper
  mcscs download Paper 1.20.1
  mcscs download Paper 1.20.1 build196 --s3 s3://my-bucket/cores/`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := utils.CoreJob{
				JobType:  utils.JobTypeCore,
				Core:     args[0],
				Metadata: make(map[string]any),
			}
			if len(args) > 1 {
				job.Version = args[1]
			}
			if len(args) > 2 {
				job.Build = args[2]
			}
			if s3Target != "" {
				job.Metadata["s3"] = s3Target
			}
			return runJobs(cmd.Context(), []utils.CoreJob{job}, runOptions{
				removeOnCancel: removeOnCancel,
				needsS3:        s3Target != "",
			})
		},
	}

	cmd.Flags().StringVar(&s3Target, "s3", "", "Mirror the verified core to this S3 location (bucket/prefix/)")
	cmd.Flags().BoolVar(&removeOnCancel, "remove-on-cancel", false, "Remove the aria2c task when interrupted")
	return cmd
}
