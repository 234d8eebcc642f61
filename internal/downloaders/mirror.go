package downloaders

import (
	"context"

	"github.com/tanq16/mcscs/internal/progress"
)

// Mirror copies a verified artifact to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, path, target, sha1 string) (string, error)
}

// URLFetcher downloads a URL through the daemon and returns the local path.
type URLFetcher interface {
	Fetch(ctx context.Context, url string, report func(progress.Snapshot)) (string, error)
}
