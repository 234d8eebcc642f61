package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mholt/archives"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/utils"
)

const aria2ReleasesAPI = "https://api.github.com/repos/aria2/aria2/releases/latest"

var ErrUnsupportedPlatform = errors.New("no prebuilt aria2c for this platform")

var ignoredAssets = []string{".asc", ".sig", ".sha256", "checksums"}

// assetSelectMap lists the name fragments that must all appear in a release
// asset for a platform. aria2 only publishes Windows builds.
var assetSelectMap = map[string][]string{
	"windowsamd64": {"win", "64bit"},
	"windows386":   {"win", "32bit"},
}

type releaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

type release struct {
	TagName string         `json:"tag_name"`
	Assets  []releaseAsset `json:"assets"`
}

// Installer fetches the aria2c binary from the aria2 GitHub releases.
type Installer struct {
	Client      utils.HTTPDoer
	ReleasesURL string
	GOOS        string
	GOARCH      string
}

func NewInstaller(client utils.HTTPDoer) *Installer {
	return &Installer{
		Client:      client,
		ReleasesURL: aria2ReleasesAPI,
		GOOS:        runtime.GOOS,
		GOARCH:      runtime.GOARCH,
	}
}

// Install places aria2c under <workDir>/aria2c and returns its path. An
// existing bundled binary is kept.
func (i *Installer) Install(ctx context.Context, workDir string) (string, error) {
	dir := filepath.Join(workDir, utils.Aria2Dir)
	binName := "aria2c"
	if i.GOOS == "windows" {
		binName = "aria2c.exe"
	}
	target := filepath.Join(dir, binName)
	if _, err := os.Stat(target); err == nil {
		log.Debug().Str("op", "daemon/install").Msgf("aria2c already present at %s", target)
		return target, nil
	}

	rel, err := i.latestRelease(ctx)
	if err != nil {
		return "", err
	}
	asset, err := selectAsset(rel.Assets, i.GOOS, i.GOARCH)
	if err != nil {
		return "", err
	}
	log.Info().Str("op", "daemon/install").Msgf("downloading %s (%s)", asset.Name, rel.TagName)

	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	archivePath := filepath.Join(dir, asset.Name)
	defer os.Remove(archivePath)
	if err := i.fetch(ctx, asset.BrowserDownloadURL, archivePath); err != nil {
		return "", err
	}

	if err := extractBinary(ctx, archivePath, binName, target); err != nil {
		return "", err
	}
	return target, nil
}

func (i *Installer) latestRelease(ctx context.Context) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.ReleasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating API request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := i.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status code: %d", resp.StatusCode)
	}
	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("error decoding API response: %w", err)
	}
	if len(rel.Assets) == 0 {
		return nil, fmt.Errorf("no assets found in the release")
	}
	return &rel, nil
}

func selectAsset(assets []releaseAsset, goos, goarch string) (*releaseAsset, error) {
	fragments, ok := assetSelectMap[goos+goarch]
	if !ok {
		return nil, fmt.Errorf("%w (%s/%s): install aria2 with your package manager", ErrUnsupportedPlatform, goos, goarch)
	}
	for idx := range assets {
		name := strings.ToLower(assets[idx].Name)
		if isIgnored(name) || !strings.HasSuffix(name, ".zip") {
			continue
		}
		matched := true
		for _, fragment := range fragments {
			if !strings.Contains(name, fragment) {
				matched = false
				break
			}
		}
		if matched {
			return &assets[idx], nil
		}
	}
	return nil, fmt.Errorf("%w (%s/%s): no matching release asset", ErrUnsupportedPlatform, goos, goarch)
}

func isIgnored(name string) bool {
	for _, ignored := range ignoredAssets {
		if strings.Contains(name, ignored) {
			return true
		}
	}
	return false
}

func (i *Installer) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset download failed with status code: %d", resp.StatusCode)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	return nil
}

// extractBinary copies the first archive entry named binName to target.
func extractBinary(ctx context.Context, archivePath, binName, target string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	var found string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Base(p) == binName {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk archive: %w", err)
	}
	if found == "" {
		return fmt.Errorf("%s not found in %s", binName, filepath.Base(archivePath))
	}

	src, err := fsys.Open(found)
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", found, err)
	}
	defer src.Close()
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", target, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("error extracting %s: %w", found, err)
	}
	return nil
}
