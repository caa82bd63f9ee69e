// Package cmd implements the goscreener command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goscreener/cmd/crawl"
	"github.com/jonesrussell/goscreener/cmd/httpd"
	cmdscheduler "github.com/jonesrussell/goscreener/cmd/scheduler"
)

// Version is stamped at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "goscreener",
	Short: "Equity screener crawler",
	Long:  `Crawls a paginated equity screener and exports the listed quotes to CSV, with optional caching, an HTTP API, and scheduled recrawls.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("goscreener version %s\n", Version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
}
