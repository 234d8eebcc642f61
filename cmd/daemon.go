package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/aria2"
	"github.com/tanq16/mcscs/internal/daemon"
	"github.com/tanq16/mcscs/internal/output"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run aria2c in the foreground with the mcscs RPC settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return daemon.RunForeground(cmd.Context(), cfg.DaemonOptions())
		},
	}
	return cmd
}

func newShutdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the running aria2c daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := aria2.NewClient(aria2.NewTransport(aria2.TransportConfig{
				Host:    cfg.RPCHost,
				Port:    cfg.RPCPort,
				Secret:  cfg.RPCSecret,
				Timeout: cfg.RPCTimeout,
			}))
			version, err := client.GetVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("aria2c is not reachable on port %d: %w", cfg.RPCPort, err)
			}
			if err := client.Shutdown(cmd.Context()); err != nil {
				return err
			}
			output.PrintSuccess(fmt.Sprintf("aria2c %s stopped", version.Version))
			return nil
		},
	}
	return cmd
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install-aria2c",
		Short: "Fetch the aria2c binary into MCSCS/aria2c",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, err := daemon.FindExecutable(cfg.DaemonOptions()); err == nil {
				output.PrintInfo(fmt.Sprintf("aria2c already available at %s", path))
				return nil
			}
			path, err := daemon.NewInstaller(newHTTPClient()).Install(cmd.Context(), cfg.WorkDir)
			if err != nil {
				return err
			}
			output.PrintSuccess(fmt.Sprintf("aria2c installed at %s", path))
			return nil
		},
	}
	return cmd
}
