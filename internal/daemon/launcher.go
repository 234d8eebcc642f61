package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mcscs/internal/utils"
)

var ErrExecutableNotFound = errors.New("aria2c executable not found")

// ExecutableName is the aria2c binary name on the current platform.
func ExecutableName() string {
	if runtime.GOOS == "windows" {
		return "aria2c.exe"
	}
	return "aria2c"
}

// FindExecutable resolves aria2c: the explicit path, then the bundled copy
// under <workdir>/aria2c, then PATH.
func FindExecutable(opts Options) (string, error) {
	if opts.Executable != "" {
		if _, err := os.Stat(opts.Executable); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrExecutableNotFound, opts.Executable, err)
		}
		return opts.Executable, nil
	}
	bundled := filepath.Join(opts.WorkDir, utils.Aria2Dir, ExecutableName())
	if _, err := os.Stat(bundled); err == nil {
		return bundled, nil
	}
	path, err := exec.LookPath("aria2c")
	if err != nil {
		return "", fmt.Errorf("%w: install it with your package manager or run `mcscs install-aria2c`", ErrExecutableNotFound)
	}
	return path, nil
}

// BuildArgs assembles the aria2c command line. Background daemons run quiet,
// the foreground one logs to the console.
func BuildArgs(opts Options, logDir string, foreground bool) []string {
	downloads, err := filepath.Abs(filepath.Join(opts.WorkDir, utils.DownloadsDir))
	if err != nil {
		downloads = filepath.Join(opts.WorkDir, utils.DownloadsDir)
	}
	args := []string{
		"--dir=" + downloads,
		"--log=" + filepath.Join(logDir, "aria2c.log"),
		"--enable-rpc=true",
		fmt.Sprintf("--rpc-listen-port=%d", opts.RPCPort),
		"--rpc-max-request-size=10M",
		"--rpc-secret=" + opts.RPCSecret,
	}
	if foreground {
		args = append(args, "--console-log-level=info")
	} else {
		args = append(args, "--quiet=true")
	}
	conf := filepath.Join(opts.WorkDir, utils.Aria2Dir, utils.Aria2ConfigFile)
	if _, err := os.Stat(conf); err == nil {
		args = append(args, "--conf-path="+conf)
	}
	return args
}

func prepareDirs(opts Options) (string, error) {
	logDir := utils.RunLogDir(opts.WorkDir, opts.Now())
	if err := utils.EnsureDir(logDir); err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Join(opts.WorkDir, utils.DownloadsDir)); err != nil {
		return "", err
	}
	return logDir, nil
}

func launch(ctx context.Context, opts Options) error {
	logDir, err := prepareDirs(opts)
	if err != nil {
		return err
	}
	path, err := FindExecutable(opts)
	if err != nil {
		return err
	}
	args := BuildArgs(opts, logDir, false)
	log.Debug().Str("op", "daemon/launcher").Msgf("starting %s %v", path, args)
	if err := opts.Spawn(ctx, path, args); err != nil {
		return fmt.Errorf("error starting aria2c: %w", err)
	}
	return nil
}

// spawnDetached starts aria2c so that it outlives this process; it keeps
// serving later mcscs invocations.
func spawnDetached(_ context.Context, path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// RunForeground runs aria2c attached to the terminal until it exits or ctx ends.
func RunForeground(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	logDir, err := prepareDirs(opts)
	if err != nil {
		return err
	}
	path, err := FindExecutable(opts)
	if err != nil {
		return err
	}
	args := BuildArgs(opts, logDir, true)
	log.Info().Str("op", "daemon/launcher").Msgf("running %s on port %d", path, opts.RPCPort)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("aria2c exited: %w", err)
	}
	return nil
}
