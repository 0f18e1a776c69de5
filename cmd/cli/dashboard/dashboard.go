package dashboard

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/irrigation-dashboard/cmd/cli/client"
	"github.com/crucial707/irrigation-dashboard/cmd/cli/output"
	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// InitDashboard adds the read-only dashboard commands to root.
func InitDashboard(root *cobra.Command) {
	root.AddCommand(statusCmd(), sensorCmd(), timelineCmd())
}

type statusResponse struct {
	Status    string    `json:"status"`
	Watering  bool      `json:"watering"`
	CheckedAt time.Time `json:"checked_at"`
}

type sensorResponse struct {
	models.SensorReading
	ReadAt time.Time `json:"read_at"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the pump is watering right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			var st statusResponse
			if err := client.Get("/status", &st); err != nil {
				return err
			}
			if st.CheckedAt.IsZero() {
				fmt.Printf("Status: %s\n", st.Status)
				return nil
			}
			fmt.Printf("Status: %s (checked %s)\n", st.Status, st.CheckedAt.Local().Format(time.Kitchen))
			return nil
		},
	}
}

func sensorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensor",
		Short: "Show the latest field sensor reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r sensorResponse
			if err := client.Get("/sensor", &r); err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return output.PrintJSON(r)
			}
			output.RenderTable([]string{"Water level", "Humidity", "Temperature", "Soil moisture", "Read at"}, [][]interface{}{{
				fmt.Sprintf("%.0f%%", r.WaterLevel),
				fmt.Sprintf("%.0f%%", r.Humidity),
				fmt.Sprintf("%.1f°C", r.Temperature),
				fmt.Sprintf("%.0f%%", r.SoilMoisture),
				r.ReadAt.Local().Format(time.DateTime),
			}})
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output raw JSON")
	return cmd
}

func timelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List every scheduled watering hour that has not passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/timeline"
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				path += "?now=" + url.QueryEscape(at)
			}
			var points []models.TimelinePoint
			if err := client.Get(path, &points); err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return output.PrintJSON(points)
			}
			rows := make([][]interface{}, 0, len(points))
			for _, p := range points {
				rows = append(rows, []interface{}{
					p.Date, fmt.Sprintf("%02d:00", p.Hour), p.SoilType, p.Vegetation, p.ScheduleID,
				})
			}
			output.RenderTable([]string{"Date", "Hour", "Soil", "Vegetation", "Schedule"}, rows)
			return nil
		},
	}
	cmd.Flags().String("at", "", "Evaluate the timeline at this RFC 3339 instant instead of now")
	cmd.Flags().Bool("json", false, "Output raw JSON")
	return cmd
}
