package core

import (
	"context"
	"fmt"

	"github.com/tanq16/mcscs/internal/downloaders"
	"github.com/tanq16/mcscs/internal/fastmirror"
	"github.com/tanq16/mcscs/internal/utils"
	"github.com/tanq16/mcscs/internal/verify"
)

// Catalog resolves a server core build to its download.
type Catalog interface {
	Resolve(ctx context.Context, core, mcVersion, build string) (*fastmirror.Artifact, error)
}

// CoreDownloader provisions a server core: resolve it in the mirror catalog,
// download it through the daemon, then check the published SHA-1.
type CoreDownloader struct {
	Catalog  Catalog
	Fetcher  downloaders.URLFetcher
	Verifier verify.Verifier
	Mirror   downloaders.Mirror // optional
}

func (d *CoreDownloader) ValidateJob(job *utils.CoreJob) error {
	if job.Core == "" {
		return fmt.Errorf("core name is required")
	}
	if job.Build != "" && job.Version == "" {
		return fmt.Errorf("build %s given without a Minecraft version", job.Build)
	}
	if job.Metadata == nil {
		job.Metadata = make(map[string]any)
	}
	return nil
}

func (d *CoreDownloader) BuildJob(ctx context.Context, job *utils.CoreJob) error {
	artifact, err := d.Catalog.Resolve(ctx, job.Core, job.Version, job.Build)
	if err != nil {
		return fmt.Errorf("error resolving %s: %w", job.Label(), err)
	}
	job.URL = artifact.URL
	job.Version = artifact.Build.MCVersion
	job.Build = artifact.Build.CoreVersion
	job.ExpectedSHA1 = artifact.Build.SHA1
	job.Metadata["updateTime"] = artifact.Build.UpdateTime
	return nil
}
