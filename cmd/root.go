package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/config"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/output"
	"github.com/tanq16/mcscs/internal/utils"
)

var (
	debug      bool
	configPath string
	rpcPort    int
	rpcSecret  string
	workers    int
	noDisplay  bool
	logFile    string
	headers    []string

	cfg       *config.Config
	gate      *daemon.Gate
	logCloser io.Closer
)

var MCSCSVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "mcscs",
	Short: "Download and verify Minecraft server cores through aria2c",
	Long: `mcscs provisions Minecraft server cores from the FastMirror catalog.
Downloads run through a local aria2c daemon (started on demand) and every
core is checked against the SHA-1 published by the mirror.`,
	Version:           MCSCSVersion,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("rpc-port") {
		c.RPCPort = rpcPort
	}
	if flags.Changed("rpc-secret") {
		c.RPCSecret = rpcSecret
	}
	if flags.Changed("workers") {
		c.Workers = workers
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	path := logFile
	if path == "auto" {
		path = cfg.LogFile(time.Now())
	}
	closer, err := utils.InitLogger(debug, path)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	logCloser = closer
	log.Debug().Str("op", "cmd/root").Msgf("config: rpc %s:%d, workdir %s, mirror %s", cfg.RPCHost, cfg.RPCPort, cfg.WorkDir, cfg.MirrorURL)

	gate = daemon.NewGate(cfg.DaemonOptions())
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "mcscs %s\n" .Version}}`)
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVar(&configPath, "config", "", "Path to YAML config (default MCSCS/config.yaml)")
	flags.IntVar(&rpcPort, "rpc-port", 6800, "aria2c RPC listen port")
	flags.StringVar(&rpcSecret, "rpc-secret", "MCSCS", "aria2c RPC secret")
	flags.IntVarP(&workers, "workers", "w", 1, "Number of downloads to run in parallel")
	flags.BoolVar(&noDisplay, "no-display", false, "Log progress instead of drawing a live display")
	flags.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (bare flag: MCSCS/logs/<ts>/client.log)")
	flags.Lookup("log-file").NoOptDefVal = "auto"
	flags.StringArrayVarP(&headers, "header", "H", nil, "Extra header for mirror API requests (\"Key: Value\", repeatable)")

	rootCmd.AddCommand(newCoresCmd())
	rootCmd.AddCommand(newBuildsCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newShutdownCmd())
	rootCmd.AddCommand(newInstallCmd())
}
