package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/utils"
	"gopkg.in/yaml.v3"
)

func newBatchCmd() *cobra.Command {
	var removeOnCancel bool

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download several cores and URLs from a YAML file",
		Long: `Download several cores and URLs from a YAML file:

  core:
    - core: Paper
      version: 1.20.1
    - core: Vanilla
  url:
    - link: https://example.com/plugin.jar
      sha1: 0123456789abcdef0123456789abcdef01234567`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading YAML file: %w", err)
			}
			var batchFile utils.BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				return fmt.Errorf("error parsing YAML file: %w", err)
			}
			jobs := buildJobsFromBatch(batchFile)
			if len(jobs) == 0 {
				return fmt.Errorf("no valid jobs found in the batch file")
			}
			needsS3 := false
			for _, job := range jobs {
				if _, ok := job.Metadata["s3"]; ok {
					needsS3 = true
				}
			}
			return runJobs(cmd.Context(), jobs, runOptions{removeOnCancel: removeOnCancel, needsS3: needsS3})
		},
	}

	cmd.Flags().BoolVar(&removeOnCancel, "remove-on-cancel", false, "Remove aria2c tasks when interrupted")
	return cmd
}

func buildJobsFromBatch(batchFile utils.BatchFile) []utils.CoreJob {
	sections := make([]string, 0, len(batchFile))
	for section := range batchFile {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	var jobs []utils.CoreJob
	for _, section := range sections {
		jobType := normalizeJobType(section)
		if jobType == "" {
			log.Warn().Str("op", "cmd/batch").Msgf("unknown section '%s', skipping", section)
			continue
		}
		for _, entry := range batchFile[section] {
			job := utils.CoreJob{JobType: jobType, Metadata: make(map[string]any)}
			switch jobType {
			case utils.JobTypeCore:
				if entry.Core == "" {
					log.Warn().Str("op", "cmd/batch").Msgf("entry without core in '%s', skipping", section)
					continue
				}
				job.Core, job.Version, job.Build = entry.Core, entry.Version, entry.Build
				if entry.S3 != "" {
					job.Metadata["s3"] = entry.S3
				}
			case utils.JobTypeURL:
				if entry.Link == "" {
					log.Warn().Str("op", "cmd/batch").Msgf("empty link in '%s', skipping", section)
					continue
				}
				job.URL, job.ExpectedSHA1 = entry.Link, entry.SHA1
			}
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func normalizeJobType(section string) string {
	switch strings.ToLower(section) {
	case "core", "cores", "server", "servers":
		return utils.JobTypeCore
	case "url", "urls", "link", "links", "http", "https":
		return utils.JobTypeURL
	}
	return ""
}
