// Package suggest produces the watering suggestion shown on the dashboard, either from
// the crop-water predictor service or from fixed defaults.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
)

const (
	SourcePredictor = "predictor"
	SourceDefault   = "default"

	DefaultWaterML         = 500
	DefaultDurationMinutes = 30
	// DefaultFlowRate is the flow rate implied by the default suggestion.
	DefaultFlowRate = float64(DefaultWaterML) / DefaultDurationMinutes

	defaultCropAgeDays = 30
)

// ErrPredictor is wrapped by every predictor failure.
var ErrPredictor = errors.New("predictor unavailable")

// Suggestion is an amount of water and how long to run the pump for it.
type Suggestion struct {
	WaterAmountML   int    `json:"water_amount_ml"`
	DurationMinutes int    `json:"duration_minutes"`
	Source          string `json:"source"`
}

// Default is used when no predictor is configured or it fails.
func Default() Suggestion {
	return Suggestion{WaterAmountML: DefaultWaterML, DurationMinutes: DefaultDurationMinutes, Source: SourceDefault}
}

// Input is what the predictor needs to estimate water requirement.
type Input struct {
	Humidity     float64           `json:"humidity"`
	Temperature  float64           `json:"temperature"`
	SoilMoisture float64           `json:"soil_moisture"`
	WaterLevel   float64           `json:"water_level"`
	AgeOfCrop    int               `json:"age_of_crop"`
	SoilType     models.SoilType   `json:"soil_type"`
	Crop         models.Vegetation `json:"crop_planted"`
}

// BuildInput combines a sensor reading with the first schedule that covers today.
// Without such a schedule the predictor defaults (Black Soil, Rice, 30 days) apply.
func BuildInput(r models.SensorReading, schedules []models.Schedule, now time.Time) Input {
	in := Input{
		Humidity:     r.Humidity,
		Temperature:  r.Temperature,
		SoilMoisture: r.SoilMoisture,
		WaterLevel:   r.WaterLevel,
		AgeOfCrop:    defaultCropAgeDays,
		SoilType:     models.SoilBlack,
		Crop:         models.VegetationRice,
	}
	today := models.DateOf(now)
	for _, s := range schedules {
		if today.Before(s.StartDate) || !irrigation.Active(s, now) {
			continue
		}
		in.SoilType = s.SoilType
		in.Crop = s.Vegetation
		in.AgeOfCrop = int(now.Sub(s.StartDate.In(now.Location())).Hours() / 24)
		break
	}
	return in
}

// Client talks to the predictor's POST /predict endpoint.
type Client struct {
	url      string
	flowRate float64
	http     *http.Client
}

// NewClient returns a client for the predictor at url. An empty url makes Suggest
// always return Default. flowRate is in ml per minute; zero means DefaultFlowRate.
func NewClient(url string, flowRate float64, hc *http.Client) *Client {
	if flowRate <= 0 {
		flowRate = DefaultFlowRate
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{url: url, flowRate: flowRate, http: hc}
}

// Enabled reports whether a predictor is configured.
func (c *Client) Enabled() bool { return c.url != "" }

type predictResponse struct {
	WaterRequired *float64 `json:"water_required"`
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	Error         string   `json:"error"`
}

// Suggest asks the predictor for the water requirement and converts it into a suggestion.
func (c *Client) Suggest(ctx context.Context, in Input) (Suggestion, error) {
	if !c.Enabled() {
		return Default(), nil
	}

	body, err := json.Marshal(in)
	if err != nil {
		return Suggestion{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrPredictor, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrPredictor, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrPredictor, err)
	}
	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Suggestion{}, fmt.Errorf("%w: decode response: %v", ErrPredictor, err)
	}
	if resp.StatusCode != http.StatusOK || out.Status == "error" {
		msg := out.Message
		if msg == "" {
			msg = out.Error
		}
		return Suggestion{}, fmt.Errorf("%w: status %d: %s", ErrPredictor, resp.StatusCode, msg)
	}
	if out.WaterRequired == nil {
		return Suggestion{}, fmt.Errorf("%w: response has no water_required", ErrPredictor)
	}

	return c.fromLiters(*out.WaterRequired), nil
}

func (c *Client) fromLiters(liters float64) Suggestion {
	ml := int(math.Round(liters * 1000))
	if ml < 0 {
		ml = 0
	}
	minutes := 0
	if ml > 0 {
		minutes = int(math.Ceil(float64(ml) / c.flowRate))
	}
	return Suggestion{WaterAmountML: ml, DurationMinutes: minutes, Source: SourcePredictor}
}
