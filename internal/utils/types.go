package utils

import (
	"context"

	"github.com/tanq16/mcscs/internal/progress"
)

// Downloader is implemented by every job kind the scheduler can run.
type Downloader interface {
	ValidateJob(job *CoreJob) error
	BuildJob(ctx context.Context, job *CoreJob) error
	Download(ctx context.Context, job *CoreJob) error
}

// CoreJob is one unit of work for the scheduler: either a server core
// resolved through the mirror ("core") or a plain URL ("url").
type CoreJob struct {
	ID           string
	JobType      string
	URL          string
	Core         string
	Version      string
	Build        string
	ExpectedSHA1 string
	OutputPath   string // set once the daemon reports completion
	ProgressFunc func(snap progress.Snapshot)
	StreamFunc   func(line string)
	Metadata     map[string]any
}

// Label is the name shown for the job in the output display.
func (j *CoreJob) Label() string {
	if j.JobType == JobTypeCore && j.Core != "" {
		label := j.Core
		if j.Version != "" {
			label += " " + j.Version
		}
		if j.Build != "" {
			label += " (" + j.Build + ")"
		}
		return label
	}
	return j.URL
}

type BatchEntry struct {
	Core    string `yaml:"core,omitempty"`
	Version string `yaml:"version,omitempty"`
	Build   string `yaml:"build,omitempty"`
	Link    string `yaml:"link,omitempty"`
	SHA1    string `yaml:"sha1,omitempty"`
	S3      string `yaml:"s3,omitempty"`
}

type BatchFile map[string][]BatchEntry
