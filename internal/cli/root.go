// Package cli implements the spritepack command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "spritepack",
	Version: "dev",
	Short:   "Rectangle bin packing for sprite atlases",
	Long: `spritepack packs rectangular images into minimal atlas surfaces.

It reads an item list (widths and heights in pixels), partitions it into
tractable groups, picks a packing algorithm per group and searches sort
orders and target widths for the densest layout. Output is placement
geometry only; compositing pixels is up to the consumer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newPackCmd())
}
