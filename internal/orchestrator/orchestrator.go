package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/progress"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	removeTimeout       = 2 * time.Second
)

// DelayFunc returns the pause before poll number tick (starting at 1).
type DelayFunc func(tick int) time.Duration

func FixedDelay(d time.Duration) DelayFunc {
	return func(int) time.Duration { return d }
}

type Options struct {
	// Delay between polls. Nil means FixedDelay(DefaultPollInterval).
	Delay DelayFunc
	// Reporter receives a snapshot after every poll. It runs on the poll
	// loop and must return quickly.
	Reporter func(snap progress.Snapshot)
	// Deadline bounds a whole download. Zero polls until the task ends.
	Deadline time.Duration
	// RemoveOnCancel asks the daemon to drop the task when ctx is canceled.
	RemoveOnCancel bool
}

type Orchestrator struct {
	client *aria2.Client
	opts   Options
}

// New requires a daemon session, so downloads can only start after the
// daemon was verified alive.
func New(session *daemon.Session, opts Options) *Orchestrator {
	if opts.Delay == nil {
		opts.Delay = FixedDelay(DefaultPollInterval)
	}
	return &Orchestrator{client: session.Client(), opts: opts}
}

// Download submits url to the daemon and blocks until the task completes,
// returning the path the daemon wrote.
func (o *Orchestrator) Download(ctx context.Context, url string) (string, error) {
	gid, err := o.client.AddURI(ctx, url)
	if err != nil {
		return "", fmt.Errorf("error submitting %s: %w", url, err)
	}
	log.Debug().Str("op", "orchestrator/download").Msgf("submitted %s as task %s", url, gid)
	return o.Track(ctx, gid, url)
}

// Track polls an already submitted task until it reaches a terminal state.
func (o *Orchestrator) Track(ctx context.Context, gid, url string) (string, error) {
	if o.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Deadline)
		defer cancel()
	}

	for tick := 1; ; tick++ {
		status, err := o.client.TellStatus(ctx, gid, aria2.StatusKeys...)
		if err != nil {
			if ctx.Err() != nil {
				return "", o.abort(ctx, gid, url)
			}
			return "", fmt.Errorf("error polling task %s (%s): %w", gid, url, err)
		}
		task, err := taskFromStatus(gid, url, status)
		if err != nil {
			return "", err
		}
		if o.opts.Reporter != nil {
			o.opts.Reporter(task.Snapshot())
		}
		log.Debug().Str("op", "orchestrator/poll").Msgf("task %s %s %s", gid, task.State, task.Snapshot().Line())

		switch task.State {
		case StateComplete:
			return o.resultPath(ctx, task)
		case StateErrored, StateRemoved:
			return "", &DownloadFailedError{
				GID:     gid,
				URL:     url,
				State:   task.State,
				Code:    task.ErrorCode,
				Message: task.ErrorMessage,
			}
		case StatePaused:
			if err := o.resume(ctx, gid, url); err != nil {
				return "", err
			}
		}

		if err := o.wait(ctx, tick); err != nil {
			return "", o.abort(ctx, gid, url)
		}
	}
}

func (o *Orchestrator) resume(ctx context.Context, gid, url string) error {
	log.Warn().Str("op", "orchestrator/poll").Msgf("task %s paused by daemon, resuming", gid)
	echoed, err := o.client.Unpause(ctx, gid)
	if err != nil {
		return fmt.Errorf("error resuming task %s (%s): %w", gid, url, err)
	}
	if echoed != gid {
		return fmt.Errorf("%w %s (%s): daemon answered %q", ErrResumeRefused, gid, url, echoed)
	}
	log.Info().Str("op", "orchestrator/poll").Msgf("task %s resumed", gid)
	return nil
}

func (o *Orchestrator) resultPath(ctx context.Context, task Task) (string, error) {
	status, err := o.client.TellStatus(ctx, task.GID, "files")
	if err != nil {
		return "", fmt.Errorf("error listing files of task %s (%s): %w", task.GID, task.URL, err)
	}
	if len(status.Files) == 0 || status.Files[0].Path == "" {
		return "", fmt.Errorf("%w: task %s (%s)", ErrMalformedCompletion, task.GID, task.URL)
	}
	task.ResultPath = status.Files[0].Path
	log.Debug().Str("op", "orchestrator/download").Msgf("task %s complete at %s", task.GID, task.ResultPath)
	return task.ResultPath, nil
}

func (o *Orchestrator) wait(ctx context.Context, tick int) error {
	d := o.opts.Delay(tick)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// abort reports why polling stopped and optionally drops the daemon task.
// Without RemoveOnCancel the task keeps running inside the daemon.
func (o *Orchestrator) abort(ctx context.Context, gid, url string) error {
	cause := ctx.Err()
	if o.opts.RemoveOnCancel {
		rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeTimeout)
		defer cancel()
		if _, err := o.client.Remove(rmCtx, gid); err != nil {
			log.Warn().Str("op", "orchestrator/download").Msgf("failed to remove task %s: %v", gid, err)
		} else {
			log.Debug().Str("op", "orchestrator/download").Msgf("removed task %s", gid)
		}
	}
	if o.opts.Deadline > 0 && errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("task %s (%s) did not finish in %s: %w", gid, url, o.opts.Deadline, cause)
	}
	return fmt.Errorf("task %s (%s) abandoned: %w", gid, url, cause)
}
