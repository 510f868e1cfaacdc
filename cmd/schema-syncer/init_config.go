package main

import (
	"github.com/spf13/cobra"

	"db_schema_syncer/internal/config"
)

func newInitConfigCmd(a *app) *cobra.Command {
	var path, storagePath string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a starter configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.WriteSample(config.AppFs, path, storagePath); err != nil {
				return err
			}
			printSuccess(a.stderr, "sample config written to %s", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "schema-syncer.yaml", "where to write the sample config")
	cmd.Flags().StringVar(&storagePath, "storage", "./storage", "local storage root for scripts")
	return cmd
}
