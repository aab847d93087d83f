// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "accessdesk",
	Short: "accessdesk is an administrative back office for a multi-tenant SaaS platform",
	Long: `accessdesk is an administrative back office for a multi-tenant SaaS platform
that provides permission resolution, resource-level grants, and a periodic
access-review workflow with remediation.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
