package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/utils"
)

func (d *CoreDownloader) Download(ctx context.Context, job *utils.CoreJob) error {
	if job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf("Fetching %s", job.URL))
	}
	path, err := d.Fetcher.Fetch(ctx, job.URL, job.ProgressFunc)
	if err != nil {
		return err
	}
	job.OutputPath = path

	if job.ExpectedSHA1 == "" {
		log.Warn().Str("op", "core/download").Msgf("mirror published no sha1 for %s, skipping verification", job.Label())
	} else if err := d.Verifier.Verify(path, job.ExpectedSHA1); err != nil {
		return fmt.Errorf("%s: %w", job.Label(), err)
	}
	log.Debug().Str("op", "core/download").Msgf("%s verified at %s", job.Label(), path)

	target, _ := job.Metadata["s3"].(string)
	if target == "" || d.Mirror == nil {
		return nil
	}
	if job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf("Mirroring to %s", target))
	}
	uri, err := d.Mirror.Upload(ctx, path, target, job.ExpectedSHA1)
	if err != nil {
		return fmt.Errorf("error mirroring %s: %w", job.Label(), err)
	}
	job.Metadata["mirrored"] = uri
	return nil
}
