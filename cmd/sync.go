package cmd

import (
	"github.com/spf13/cobra"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

func newSyncDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-devices",
		Short: "Runs one catalog refresh pass",
		Long: `Walks the device catalog pages, enriches each Galaxy phone with its
specifications, model codes and sale regions, and replaces the stored
entries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Syncer.SyncDevices(cmd.Context())
		},
	}
}

func newSyncFirmwareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-firmware",
		Short: "Runs one firmware build check over all stored models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Syncer.SyncBuilds(cmd.Context(), tracker.BuildFirmware)
		},
	}
}

func newSyncKernelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-kernels",
		Short: "Runs one kernel source check over all stored models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Syncer.SyncBuilds(cmd.Context(), tracker.BuildKernel)
		},
	}
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Creates the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.Store.InitSchema(cmd.Context())
		},
	}
}
