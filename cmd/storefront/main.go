package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Skincare storefront cart and order service",
	Long: `storefront serves the guest cart, the authenticated server cart,
login-time cart merging and guest checkout over HTTP.

Configuration is read from storefront.yaml and STOREFRONT_* environment
variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
