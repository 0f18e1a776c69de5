package settings

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/irrigation-dashboard/cmd/cli/client"
)

type themeBody struct {
	Theme string `json:"theme"`
}

// InitSettings adds the theme command to root.
func InitSettings(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the dashboard theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE:      runTheme,
	}
	root.AddCommand(cmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	var resp themeBody
	var err error
	switch {
	case len(args) == 0:
		err = client.Get("/settings/theme", &resp)
	case args[0] == "toggle":
		err = client.Post("/settings/theme/toggle", nil, &resp)
	default:
		err = client.Put("/settings/theme", themeBody{Theme: args[0]}, &resp)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Theme: %s\n", resp.Theme)
	return nil
}
