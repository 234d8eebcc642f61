package direct

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/tanq16/mcscs/internal/downloaders"
	"github.com/tanq16/mcscs/internal/utils"
	"github.com/tanq16/mcscs/internal/verify"
)

var supportedSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "sftp": true}

// URLDownloader fetches an arbitrary URL through the daemon and verifies it
// when the job carries an expected SHA-1.
type URLDownloader struct {
	Fetcher  downloaders.URLFetcher
	Verifier verify.Verifier
}

func (d *URLDownloader) ValidateJob(job *utils.CoreJob) error {
	parsed, err := url.Parse(job.URL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", job.URL, err)
	}
	if !supportedSchemes[parsed.Scheme] || parsed.Host == "" {
		return fmt.Errorf("unsupported URL %q", job.URL)
	}
	if job.ExpectedSHA1 != "" {
		if len(job.ExpectedSHA1) != 40 {
			return fmt.Errorf("sha1 must be 40 hex characters, got %d", len(job.ExpectedSHA1))
		}
		if _, err := hex.DecodeString(job.ExpectedSHA1); err != nil {
			return fmt.Errorf("sha1 is not hex: %w", err)
		}
		if job.ExpectedSHA1 != strings.ToLower(job.ExpectedSHA1) {
			return fmt.Errorf("sha1 must be lowercase hex, got %s", job.ExpectedSHA1)
		}
	}
	if job.Metadata == nil {
		job.Metadata = make(map[string]any)
	}
	return nil
}

func (d *URLDownloader) BuildJob(_ context.Context, _ *utils.CoreJob) error {
	return nil
}
