package main

import (
	"os"

	"github.com/crucial707/irrigation-dashboard/cmd/cli/dashboard"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/root"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/schedules"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/settings"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/suggestion"
)

func main() {
	rootCmd := root.GetRoot()
	schedules.InitSchedules(rootCmd)
	dashboard.InitDashboard(rootCmd)
	suggestion.InitSuggestion(rootCmd)
	settings.InitSettings(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
