package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MCSCS_CONFIG_FILE", "")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
	assert.NoError(t, c.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcscs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpcPort: 6801
rpcSecret: fromfile
pollInterval: 500ms
workers: 3
mirrorURL: https://mirror.example.test
`), 0644))
	t.Setenv("MCSCS_RPC_SECRET", "fromenv")
	t.Setenv("MCSCS_S3_REGION", "eu-west-1")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6801, c.RPCPort)
	assert.Equal(t, "fromenv", c.RPCSecret)
	assert.Equal(t, 500*time.Millisecond, c.PollInterval)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, "https://mirror.example.test", c.MirrorURL)
	assert.Equal(t, "eu-west-1", c.S3Region)
	assert.Equal(t, "127.0.0.1", c.RPCHost)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpcPort: [oops"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"port":    func(c *Config) { c.RPCPort = 70000 },
		"secret":  func(c *Config) { c.RPCSecret = "" },
		"workdir": func(c *Config) { c.WorkDir = "" },
		"workers": func(c *Config) { c.Workers = 0 },
		"timeout": func(c *Config) { c.RPCTimeout = 0 },
		"poll":    func(c *Config) { c.PollInterval = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDerivedOptions(t *testing.T) {
	c := Default()
	c.Aria2cPath = "/opt/aria2c"
	opts := c.DaemonOptions()
	assert.Equal(t, "/opt/aria2c", opts.Executable)
	assert.Equal(t, 6800, opts.RPCPort)

	start := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("MCSCS", "logs", "202405060708", "client.log"), c.LogFile(start))
	assert.Equal(t, 200*time.Millisecond, c.OrchestratorOptions().Delay(1))
}
