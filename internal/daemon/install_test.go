package daemon

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/mcscs/internal/utils"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSelectAsset(t *testing.T) {
	assets := []releaseAsset{
		{Name: "aria2-1.37.0.tar.xz"},
		{Name: "aria2-1.37.0-win-32bit-build1.zip"},
		{Name: "aria2-1.37.0-win-64bit-build1.zip.asc"},
		{Name: "aria2-1.37.0-win-64bit-build1.zip"},
		{Name: "aria2-1.37.0-aarch64-linux-android-build1.zip"},
	}

	got, err := selectAsset(assets, "windows", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "aria2-1.37.0-win-64bit-build1.zip", got.Name)

	got, err = selectAsset(assets, "windows", "386")
	require.NoError(t, err)
	assert.Equal(t, "aria2-1.37.0-win-32bit-build1.zip", got.Name)

	_, err = selectAsset(assets, "linux", "amd64")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = selectAsset(assets[:1], "windows", "amd64")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestInstallerInstall(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"aria2-1.37.0-win-64bit-build1/README.html": "readme",
		"aria2-1.37.0-win-64bit-build1/aria2c.exe":  "MZ-binary",
	})
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"tag_name":"release-1.37.0","assets":[{"name":"aria2-1.37.0-win-64bit-build1.zip","browser_download_url":"%s/asset.zip"}]}`, server.URL)
	})
	mux.HandleFunc("/asset.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	installer := &Installer{
		Client:      utils.NewHTTPClient(utils.HTTPClientConfig{}),
		ReleasesURL: server.URL + "/releases/latest",
		GOOS:        "windows",
		GOARCH:      "amd64",
	}
	workDir := t.TempDir()
	path, err := installer.Install(context.Background(), workDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "aria2c", "aria2c.exe"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MZ-binary", string(content))
	assert.NoFileExists(t, filepath.Join(workDir, "aria2c", "aria2-1.37.0-win-64bit-build1.zip"))

	// a second run keeps the installed binary without touching the network
	server.Close()
	again, err := installer.Install(context.Background(), workDir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestInstallerReleaseAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	installer := &Installer{
		Client:      utils.NewHTTPClient(utils.HTTPClientConfig{}),
		ReleasesURL: server.URL,
		GOOS:        "windows",
		GOARCH:      "amd64",
	}
	_, err := installer.Install(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
