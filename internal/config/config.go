package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/fastmirror"
	"github.com/tanq16/mcscs/internal/orchestrator"
	"github.com/tanq16/mcscs/internal/utils"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MCSCS"

// Config is assembled from defaults, then the YAML file, then MCSCS_*
// environment variables. Command-line flags are applied last by cmd.
type Config struct {
	RPCHost      string        `yaml:"rpcHost"      envconfig:"RPC_HOST"`
	RPCPort      int           `yaml:"rpcPort"      envconfig:"RPC_PORT"`
	RPCSecret    string        `yaml:"rpcSecret"    envconfig:"RPC_SECRET"`
	RPCTimeout   time.Duration `yaml:"rpcTimeout"   envconfig:"RPC_TIMEOUT"`
	PollInterval time.Duration `yaml:"pollInterval" envconfig:"POLL_INTERVAL"`
	Deadline     time.Duration `yaml:"deadline"     envconfig:"DEADLINE"`
	WorkDir      string        `yaml:"workDir"      envconfig:"WORK_DIR"`
	Aria2cPath   string        `yaml:"aria2cPath"   envconfig:"ARIA2C_PATH"`
	MirrorURL    string        `yaml:"mirrorURL"    envconfig:"MIRROR_URL"`
	PageSize     int           `yaml:"pageSize"     envconfig:"PAGE_SIZE"`
	HTTPTimeout  time.Duration `yaml:"httpTimeout"  envconfig:"HTTP_TIMEOUT"`
	UserAgent    string        `yaml:"userAgent"    envconfig:"USER_AGENT"`
	ProxyURL     string        `yaml:"proxyURL"     envconfig:"PROXY_URL"`
	Workers      int           `yaml:"workers"      envconfig:"WORKERS"`
	S3Profile    string        `yaml:"s3Profile"    envconfig:"S3_PROFILE"`
	S3Region     string        `yaml:"s3Region"     envconfig:"S3_REGION"`
}

func Default() Config {
	return Config{
		RPCHost:      aria2.DefaultHost,
		RPCPort:      aria2.DefaultPort,
		RPCSecret:    aria2.DefaultSecret,
		RPCTimeout:   aria2.DefaultTimeout,
		PollInterval: orchestrator.DefaultPollInterval,
		WorkDir:      utils.WorkDirName,
		MirrorURL:    fastmirror.DefaultBaseURL,
		PageSize:     fastmirror.DefaultPageSize,
		HTTPTimeout:  60 * time.Second,
		UserAgent:    utils.ToolUserAgent,
		Workers:      1,
	}
}

// Load reads path, or MCSCS_CONFIG_FILE, or MCSCS/config.yaml. Only an
// explicitly named file has to exist.
func Load(path string) (*Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv(envPrefix + "_CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = filepath.Join(utils.WorkDirName, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.RPCPort <= 0 || c.RPCPort > 65535:
		return fmt.Errorf("invalid configuration: rpcPort / %s_RPC_PORT out of range: %d", envPrefix, c.RPCPort)
	case c.RPCSecret == "":
		return fmt.Errorf("missing required configuration: rpcSecret / %s_RPC_SECRET", envPrefix)
	case c.WorkDir == "":
		return fmt.Errorf("missing required configuration: workDir / %s_WORK_DIR", envPrefix)
	case c.MirrorURL == "":
		return fmt.Errorf("missing required configuration: mirrorURL / %s_MIRROR_URL", envPrefix)
	case c.Workers < 1:
		return fmt.Errorf("invalid configuration: workers / %s_WORKERS must be at least 1", envPrefix)
	case c.RPCTimeout <= 0:
		return fmt.Errorf("invalid configuration: rpcTimeout / %s_RPC_TIMEOUT must be positive", envPrefix)
	case c.PollInterval <= 0:
		return fmt.Errorf("invalid configuration: pollInterval / %s_POLL_INTERVAL must be positive", envPrefix)
	}
	return nil
}

func (c *Config) DaemonOptions() daemon.Options {
	return daemon.Options{
		WorkDir:    c.WorkDir,
		Executable: c.Aria2cPath,
		Host:       c.RPCHost,
		RPCPort:    c.RPCPort,
		RPCSecret:  c.RPCSecret,
		RPCTimeout: c.RPCTimeout,
	}
}

func (c *Config) OrchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		Delay:    orchestrator.FixedDelay(c.PollInterval),
		Deadline: c.Deadline,
	}
}

func (c *Config) HTTPClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		Timeout:   c.HTTPTimeout,
		UserAgent: c.UserAgent,
		ProxyURL:  c.ProxyURL,
	}
}

// LogFile is where the JSON run log goes for a run started at start.
func (c *Config) LogFile(start time.Time) string {
	return filepath.Join(utils.RunLogDir(c.WorkDir, start), "client.log")
}
