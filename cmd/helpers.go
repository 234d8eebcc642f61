package cmd

import (
	"context"
	"fmt"

	"github.com/tanq16/mcscs/internal/downloaders"
	"github.com/tanq16/mcscs/internal/downloaders/core"
	"github.com/tanq16/mcscs/internal/downloaders/direct"
	"github.com/tanq16/mcscs/internal/fastmirror"
	"github.com/tanq16/mcscs/internal/s3mirror"
	"github.com/tanq16/mcscs/internal/scheduler"
	"github.com/tanq16/mcscs/internal/utils"
)

func newHTTPClient() *utils.HTTPClient {
	clientCfg := cfg.HTTPClientConfig()
	if len(headers) > 0 {
		clientCfg.Headers = utils.ParseHeaderArgs(headers)
	}
	return utils.NewHTTPClient(clientCfg)
}

func newMirrorClient() *fastmirror.Client {
	return fastmirror.NewClient(cfg.MirrorURL, newHTTPClient(), cfg.PageSize)
}

type runOptions struct {
	removeOnCancel bool
	needsS3        bool
}

func newRegistry(ctx context.Context, opts runOptions) (map[string]utils.Downloader, error) {
	orchOpts := cfg.OrchestratorOptions()
	orchOpts.RemoveOnCancel = opts.removeOnCancel
	fetcher := downloaders.NewFetcher(gate, orchOpts)

	coreDownloader := &core.CoreDownloader{
		Catalog: newMirrorClient(),
		Fetcher: fetcher,
	}
	if opts.needsS3 {
		mirror, err := s3mirror.New(ctx, cfg.S3Profile, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		coreDownloader.Mirror = mirror
	}
	return map[string]utils.Downloader{
		utils.JobTypeCore: coreDownloader,
		utils.JobTypeURL:  &direct.URLDownloader{Fetcher: fetcher},
	}, nil
}

func runJobs(ctx context.Context, jobs []utils.CoreJob, opts runOptions) error {
	registry, err := newRegistry(ctx, opts)
	if err != nil {
		return err
	}
	_, err = scheduler.Run(ctx, jobs, scheduler.Options{
		Workers:     cfg.Workers,
		Downloaders: registry,
		Display:     !noDisplay,
	})
	if err != nil {
		return fmt.Errorf("encountered failed operation(s): %w", err)
	}
	return nil
}
