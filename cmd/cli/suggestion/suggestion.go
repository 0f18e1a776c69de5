package suggestion

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/irrigation-dashboard/cmd/cli/client"
)

type suggestion struct {
	WaterAmountML   int    `json:"water_amount_ml"`
	DurationMinutes int    `json:"duration_minutes"`
	Source          string `json:"source,omitempty"`
}

// InitSuggestion adds the suggestion command and its accept/reject subcommands to root.
func InitSuggestion(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "suggestion",
		Short: "Show the current watering suggestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			var s suggestion
			if err := client.Get("/suggestion", &s); err != nil {
				return err
			}
			fmt.Printf("Suggested: %dml for %d minutes (%s)\n", s.WaterAmountML, s.DurationMinutes, s.Source)
			return nil
		},
	}
	cmd.AddCommand(decisionCmd("accept"), decisionCmd("reject"))
	root.AddCommand(cmd)
}

func decisionCmd(action string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the watering suggestion", capitalize(action)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body suggestion
			body.WaterAmountML, _ = cmd.Flags().GetInt("water")
			body.DurationMinutes, _ = cmd.Flags().GetInt("minutes")

			var resp struct {
				Action     string     `json:"action"`
				Suggestion suggestion `json:"suggestion"`
			}
			if err := client.Post("/suggestion/"+action, body, &resp); err != nil {
				return err
			}
			fmt.Printf("Suggestion %sed: %dml for %d minutes\n", action, resp.Suggestion.WaterAmountML, resp.Suggestion.DurationMinutes)
			return nil
		},
	}
	cmd.Flags().Int("water", 0, "Water amount in ml (default: the current suggestion)")
	cmd.Flags().Int("minutes", 0, "Duration in minutes (default: the current suggestion)")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
