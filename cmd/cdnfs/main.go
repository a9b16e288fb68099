package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/torfstack/cdnfs/internal/config"
	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/service"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cdnfs",
		Short: "Store and retrieve incremental file system snapshots in cloud storage",
	}

	var debug bool
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	var configPath string
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debug)
		config.SetFilePath(configPath)
	}

	newService := func(cmd *cobra.Command) (*service.Service, error) {
		cfg, err := config.Get()
		if err != nil {
			return nil, err
		}
		return service.NewService(cmd.Context(), cfg)
	}

	var setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Create the configuration file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetInteractive()
			if err != nil {
				return err
			}
			return cfg.Validate()
		},
	}

	var pushCmd = &cobra.Command{
		Use:   "push",
		Short: "Upload a snapshot of the configured local directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(cmd)
			if err != nil {
				return err
			}
			_, err = srv.Push(cmd.Context())
			return err
		},
	}

	var listCmd = &cobra.Command{
		Use:   "list <snapshot-id> [path]",
		Short: "List files in a snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(cmd)
			if err != nil {
				return err
			}
			relPath := ""
			if len(args) > 1 {
				relPath = args[1]
			}
			return srv.List(cmd.Context(), args[0], relPath)
		},
	}

	var getCmd = &cobra.Command{
		Use:   "get <snapshot-id> <download-path>",
		Short: "Download a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(cmd)
			if err != nil {
				return err
			}
			return srv.Get(cmd.Context(), args[0], args[1])
		},
	}

	var snapshotsCmd = &cobra.Command{
		Use:   "snapshots",
		Short: "List snapshots recorded in the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(cmd)
			if err != nil {
				return err
			}
			return srv.Snapshots(cmd.Context())
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the local directory and push a snapshot after each change",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService(cmd)
			if err != nil {
				return err
			}
			return srv.Watch(cmd.Context())
		},
	}

	rootCmd.AddCommand(setupCmd, pushCmd, listCmd, getCmd, snapshotsCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
