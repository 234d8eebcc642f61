package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/output"
	"github.com/tanq16/mcscs/internal/progress"
	"github.com/tanq16/mcscs/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Workers     int
	Downloaders map[string]utils.Downloader
	Display     bool
}

// Result reports how a batch went; Failed counts jobs that returned an error.
type Result struct {
	Jobs      []*utils.CoreJob
	Succeeded int
	Failed    int
}

// Run executes jobs with at most opts.Workers in flight. A failing job does
// not stop the others; the returned error summarizes the failures.
func Run(ctx context.Context, jobs []utils.CoreJob, opts Options) (*Result, error) {
	workers := max(opts.Workers, 1)
	outputMgr := output.NewManager(opts.Display)
	outputMgr.StartDisplay()

	result := &Result{Jobs: make([]*utils.CoreJob, len(jobs))}
	failed := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		job := &jobs[i]
		result.Jobs[i] = job
		id := outputMgr.RegisterJob(job.Label())
		g.Go(func() error {
			if err := processJob(gctx, job, id, outputMgr, opts.Downloaders); err != nil {
				outputMgr.ReportError(id, err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()
	outputMgr.StopDisplay()

	for _, f := range failed {
		if f {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d downloads failed", result.Failed, len(jobs))
	}
	return result, nil
}

func processJob(ctx context.Context, job *utils.CoreJob, id int, outputMgr *output.Manager, registry map[string]utils.Downloader) error {
	downloader, exists := registry[job.JobType]
	if !exists {
		return fmt.Errorf("unknown job type: %s", job.JobType)
	}
	if job.Metadata == nil {
		job.Metadata = make(map[string]any)
	}
	job.ProgressFunc = func(snap progress.Snapshot) {
		outputMgr.SetProgress(id, snap)
	}
	job.StreamFunc = func(line string) {
		outputMgr.AddStreamLine(id, line)
	}

	outputMgr.SetStatus(id, "pending")
	outputMgr.SetMessage(id, fmt.Sprintf("Validating %s", job.Label()))
	if err := downloader.ValidateJob(job); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	outputMgr.SetMessage(id, fmt.Sprintf("Resolving %s", job.Label()))
	if err := downloader.BuildJob(ctx, job); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	outputMgr.SetMessage(id, fmt.Sprintf("Downloading %s", job.Label()))
	if err := downloader.Download(ctx, job); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	log.Debug().Str("op", "scheduler/run").Msgf("job %s finished at %s", job.Label(), job.OutputPath)
	outputMgr.Complete(id, fmt.Sprintf("Completed %s %s %s", job.Label(), output.StyleSymbols["arrow"], job.OutputPath))
	return nil
}
