// Package sensor polls the field sensor's HTTP endpoint and keeps the last good reading.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/metrics"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/tidwall/gjson"
)

// DefaultInterval is how often the sensor endpoint is read.
const DefaultInterval = 5 * time.Second

const maxPayloadBytes = 64 << 10

// ErrMalformedPayload is wrapped by PollError when the body is not a usable reading.
var ErrMalformedPayload = errors.New("malformed sensor payload")

// PollError describes a failed poll. The previous reading is kept when one occurs.
type PollError struct {
	URL string
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("sensor poll %s: %v", e.URL, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// Reading is an accepted sensor sample and when it was taken.
type Reading struct {
	models.SensorReading
	At time.Time `json:"at"`
}

// Poller reads the sensor endpoint on an interval.
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *slog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	latest Reading
	have   bool
}

// NewPoller returns a poller for url. A zero interval means DefaultInterval; a nil
// client means a client with a timeout of one interval.
func NewPoller(url string, interval time.Duration, client *http.Client, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if client == nil {
		client = &http.Client{Timeout: interval}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		url:      url,
		interval: interval,
		client:   client,
		log:      logger,
		now:      time.Now,
	}
}

// Latest returns the last accepted reading, if any.
func (p *Poller) Latest() (Reading, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.have
}

// Poll performs one read. On success the reading becomes Latest; on failure Latest is untouched.
func (p *Poller) Poll(ctx context.Context) (models.SensorReading, error) {
	r, err := p.fetch(ctx)
	metrics.RecordSensorPoll(err == nil)
	if err != nil {
		return models.SensorReading{}, &PollError{URL: p.url, Err: err}
	}

	p.mu.Lock()
	p.latest = Reading{SensorReading: r, At: p.now()}
	p.have = true
	p.mu.Unlock()

	metrics.SetSensorReading(r.WaterLevel, r.Humidity, r.Temperature, r.SoilMoisture)
	return r, nil
}

func (p *Poller) fetch(ctx context.Context) (models.SensorReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return models.SensorReading{}, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.SensorReading{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.SensorReading{}, fmt.Errorf("HTTP error status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return models.SensorReading{}, err
	}
	return ParseReading(body)
}

// Handle controls a running poll loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the interval and any in-flight request, then waits for the loop to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Start polls immediately and then every interval until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
				p.log.Debug("sensor poll failed, keeping previous reading", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return h
}

var fields = [...]string{"waterLevel", "humidity", "temperature", "soilMoisture"}

// ParseReading decodes a sensor payload. Numbers may be sent as JSON numbers or numeric
// strings. All fields except temperature are clamped to [0,100].
func ParseReading(body []byte) (models.SensorReading, error) {
	if !gjson.ValidBytes(body) {
		return models.SensorReading{}, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return models.SensorReading{}, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}

	var vals [len(fields)]float64
	for i, name := range fields {
		v, ok := number(root.Get(name))
		if !ok {
			return models.SensorReading{}, fmt.Errorf("%w: %s is not numeric", ErrMalformedPayload, name)
		}
		vals[i] = v
	}

	return models.SensorReading{
		WaterLevel:   clampPercent(vals[0]),
		Humidity:     clampPercent(vals[1]),
		Temperature:  vals[2],
		SoilMoisture: clampPercent(vals[3]),
	}, nil
}

func number(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clampPercent(v float64) float64 {
	return math.Min(math.Max(0, v), 100)
}
