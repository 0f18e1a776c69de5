package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the irrigation CLI entry point. Subcommands register themselves from main.
var RootCmd = &cobra.Command{
	Use:          "irrigation",
	Short:        "Smart irrigation CLI",
	Long:         "Command line interface for the smart irrigation dashboard API.\nSet IRRIGATION_API_URL to point at a server other than http://localhost:8080.",
	SilenceUsage: true,
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
