package downloaders

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/orchestrator"
	"github.com/tanq16/mcscs/internal/progress"
)

// Fetcher runs daemon downloads for every job kind. It owns the caller-side
// retry: after a timeout the daemon is reinitialized and the failed step is
// repeated once. A submission that timed out is submitted again; a task that
// was already accepted is tracked again by its GID, never resubmitted.
type Fetcher struct {
	Gate    *daemon.Gate
	Options orchestrator.Options
}

func NewFetcher(gate *daemon.Gate, opts orchestrator.Options) *Fetcher {
	return &Fetcher{Gate: gate, Options: opts}
}

func (f *Fetcher) Fetch(ctx context.Context, url string, report func(progress.Snapshot)) (string, error) {
	session, err := f.Gate.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("aria2 daemon unavailable: %w", err)
	}
	opts := f.Options
	opts.Reporter = report
	orch := orchestrator.New(session, opts)

	gid, err := session.Client().AddURI(ctx, url)
	if err != nil {
		err = fmt.Errorf("error submitting %s: %w", url, err)
		if !retryable(ctx, err) {
			return "", err
		}
		log.Warn().Str("op", "downloaders/fetch").Msgf("daemon timed out accepting %s, submitting once more: %v", url, err)
		if ensureErr := session.Ensure(ctx); ensureErr != nil {
			return "", fmt.Errorf("%w (daemon restart failed: %w)", err, ensureErr)
		}
		if gid, err = session.Client().AddURI(ctx, url); err != nil {
			return "", fmt.Errorf("error submitting %s: %w", url, err)
		}
		return orch.Track(ctx, gid, url)
	}

	path, err := orch.Track(ctx, gid, url)
	if !retryable(ctx, err) {
		return path, err
	}
	log.Warn().Str("op", "downloaders/fetch").Msgf("daemon timed out tracking task %s (%s), polling once more: %v", gid, url, err)
	if ensureErr := session.Ensure(ctx); ensureErr != nil {
		return "", fmt.Errorf("%w (daemon restart failed: %w)", err, ensureErr)
	}
	return orch.Track(ctx, gid, url)
}

func retryable(ctx context.Context, err error) bool {
	return err != nil && errors.Is(err, aria2.ErrTimeout) && ctx.Err() == nil
}
