package fastmirror

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog/log"
)

// LatestVersion picks the highest Minecraft version listed for core.
// Entries that are not semantic versions (snapshots, "latest") are skipped.
func (c *Client) LatestVersion(ctx context.Context, core string) (string, error) {
	cores, err := c.ListCores(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := lookupCore(cores, core)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCoreNotFound, core)
	}
	return latestVersion(entry.MCVersions)
}

func latestVersion(candidates []string) (string, error) {
	var best *version.Version
	var bestRaw string
	for _, raw := range candidates {
		v, err := version.NewVersion(raw)
		if err != nil {
			log.Debug().Str("op", "fastmirror/latest").Msgf("skipping version %q: %v", raw, err)
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestRaw = v, raw
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: no comparable versions in %v", ErrBuildNotFound, candidates)
	}
	return bestRaw, nil
}

// LatestBuild returns the most recently updated build. Builds with an
// unparseable update time sort last; ties go to the larger build id.
func LatestBuild(builds map[string]Build) (Build, error) {
	if len(builds) == 0 {
		return Build{}, ErrBuildNotFound
	}
	list := make([]Build, 0, len(builds))
	for _, b := range builds {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		ti, erri := list[i].UpdatedAt()
		tj, errj := list[j].UpdatedAt()
		switch {
		case erri != nil && errj != nil:
			return list[i].CoreVersion > list[j].CoreVersion
		case erri != nil:
			return false
		case errj != nil:
			return true
		case !ti.Equal(tj):
			return ti.After(tj)
		}
		return list[i].CoreVersion > list[j].CoreVersion
	})
	return list[0], nil
}

// Resolve turns (core, version, build) into a download URL plus the expected
// SHA-1. Empty version or build selects the latest one.
func (c *Client) Resolve(ctx context.Context, core, mcVersion, build string) (*Artifact, error) {
	if mcVersion == "" {
		latest, err := c.LatestVersion(ctx, core)
		if err != nil {
			return nil, err
		}
		mcVersion = latest
	}
	builds, err := c.ListBuilds(ctx, core, mcVersion)
	if err != nil {
		return nil, err
	}
	var selected Build
	if build == "" {
		selected, err = LatestBuild(builds)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s has no builds", ErrBuildNotFound, core, mcVersion)
		}
	} else {
		var ok bool
		selected, ok = builds[build]
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrBuildNotFound, core, mcVersion, build)
		}
	}
	if selected.MCVersion == "" {
		selected.MCVersion = mcVersion
	}
	return &Artifact{
		Core:  core,
		Build: selected,
		URL:   c.ResolveDownloadURL(core, selected.MCVersion, selected.CoreVersion),
	}, nil
}

func lookupCore(cores map[string]Core, name string) (Core, bool) {
	if core, ok := cores[name]; ok {
		return core, true
	}
	for key, core := range cores {
		if strings.EqualFold(key, name) {
			return core, true
		}
	}
	return Core{}, false
}
