package schedules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crucial707/irrigation-dashboard/cmd/cli/client"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/output"
	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// InitSchedules adds the schedules command tree to root.
func InitSchedules(root *cobra.Command) {
	schedulesCmd := &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"schedule"},
		Short:   "Manage irrigation schedules",
	}
	schedulesCmd.AddCommand(listSchedulesCmd(), createScheduleCmd(), deleteScheduleCmd())
	root.AddCommand(schedulesCmd)
}

func listSchedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []models.Schedule
			if err := client.Get("/schedules", &list); err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return output.PrintJSON(list)
			}

			rows := make([][]interface{}, 0, len(list))
			for _, s := range list {
				rows = append(rows, []interface{}{
					s.ID, s.SoilType, s.Vegetation, s.StartDate, s.EndDate, formatWindows(s.Windows),
				})
			}
			output.RenderTable([]string{"ID", "Soil", "Vegetation", "Start", "End", "Windows"}, rows)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output raw JSON")
	return cmd
}

func createScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule",
		Example: `  irrigation schedules create --soil "Black Soil" --vegetation Rice \
    --start 2024-06-01 --end 2024-06-30 --window 6-9 --window 17-19`,
		RunE: func(cmd *cobra.Command, args []string) error {
			soil, _ := cmd.Flags().GetString("soil")
			veg, _ := cmd.Flags().GetString("vegetation")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			specs, _ := cmd.Flags().GetStringArray("window")

			startDate, err := models.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			endDate, err := models.ParseDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			windows, err := parseWindows(specs)
			if err != nil {
				return err
			}

			body := map[string]interface{}{
				"soil_type":  soil,
				"vegetation": veg,
				"start_date": startDate,
				"end_date":   endDate,
				"windows":    windows,
			}
			var created models.Schedule
			if err := client.Post("/schedules", body, &created); err != nil {
				return err
			}
			fmt.Printf("Created schedule %s (%s, %s to %s)\n", created.ID, created.Vegetation, created.StartDate, created.EndDate)
			return nil
		},
	}
	cmd.Flags().String("soil", string(models.SoilBlack), "Soil type")
	cmd.Flags().String("vegetation", string(models.VegetationRice), "Vegetation")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringArray("window", nil, "Watering window as START-END hours, repeatable")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("window")
	return cmd
}

func deleteScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/schedules/" + args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted schedule %s\n", args[0])
			return nil
		},
	}
}

// parseWindows turns "6-12" style flags into windows, replaying each hour through
// the same edit validation the dashboard uses so overlaps are reported before any request.
func parseWindows(specs []string) ([]models.Window, error) {
	list := make([]models.Window, len(specs))
	for i, spec := range specs {
		startStr, endStr, found := strings.Cut(spec, "-")
		if !found {
			return nil, fmt.Errorf("--window %q: expected START-END", spec)
		}
		for _, edit := range []struct {
			field irrigation.Field
			raw   string
		}{
			{irrigation.FieldStartHour, startStr},
			{irrigation.FieldEndHour, endStr},
		} {
			h, err := strconv.Atoi(strings.TrimSpace(edit.raw))
			if err != nil {
				return nil, fmt.Errorf("--window %q: hour must be a whole number", spec)
			}
			updated, err := irrigation.ValidateWindowEdit(list, i, edit.field, models.Hour(h))
			if err != nil {
				return nil, fmt.Errorf("--window %q: %w", spec, err)
			}
			list = updated
		}
	}
	return list, nil
}

func formatWindows(ws []models.Window) string {
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		if !w.Complete() {
			continue
		}
		start, end := w.Bounds()
		parts = append(parts, fmt.Sprintf("%02d:00-%02d:00 (%dh)", start, end, w.Duration()))
	}
	return strings.Join(parts, ", ")
}
