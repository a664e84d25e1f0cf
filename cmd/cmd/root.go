package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tinyfs/jgfs/internal/env"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - a small FAT-style filesystem with a FUSE mount daemon",
	}

	rootCmd.AddCommand(DefineMkfsCommand())
	rootCmd.AddCommand(DefineMountCommand())
	rootCmd.AddCommand(DefineFsckCommand())

	return rootCmd.Execute()
}
