package direct

import (
	"context"
	"fmt"

	"github.com/tanq16/mcscs/internal/utils"
)

func (d *URLDownloader) Download(ctx context.Context, job *utils.CoreJob) error {
	path, err := d.Fetcher.Fetch(ctx, job.URL, job.ProgressFunc)
	if err != nil {
		return err
	}
	job.OutputPath = path
	if job.ExpectedSHA1 == "" {
		return nil
	}
	if err := d.Verifier.Verify(path, job.ExpectedSHA1); err != nil {
		return fmt.Errorf("%s: %w", job.URL, err)
	}
	return nil
}
