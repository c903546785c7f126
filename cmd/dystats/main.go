package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dystats",
		Short: "Harvest engagement statistics for short-video items",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(harvestCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(exportCmd())

	return root
}

func harvestCmd() *cobra.Command {
	var capOverride int

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Collect item ids from the feeds and fetch statistics for each",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(capOverride)
		},
	}

	cmd.Flags().IntVar(&capOverride, "cap", 0, "max ids to collect (default: from config)")
	return cmd
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [url-or-id ...]",
		Short: "Fetch statistics for explicit item urls or ids over HTTP",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(args)
		},
	}
	return cmd
}

func exportCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the persisted collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
