// Package influxdb writes sweep points to InfluxDB 2.x as time series.
package influxdb

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement every point is written to
const Measurement = "snowmelt"

// Config holds the InfluxDB connection settings
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Storage holds the client for an InfluxDB storage backend
type Storage struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// New sets up a new InfluxDB storage backend
func New(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influxdb config incomplete: url, org and bucket are required")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Storage{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// StartStorageEngine creates a goroutine loop to receive runs and send
// them off to InfluxDB
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- storage.Run {
	return storage.StartEngine(ctx, wg, s, "influxdb")
}

// StoreRun writes one point per successfully evaluated sample
func (s *Storage) StoreRun(ctx context.Context, r storage.Run) error {
	points := Points(r)
	if len(points) == 0 {
		return nil
	}
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influxdb write error: %w", err)
	}
	return nil
}

// Points converts a run into InfluxDB points. The air temperature is a tag
// so every sample of a run gets its own series at the run's timestamp.
func Points(r storage.Run) []*write.Point {
	points := make([]*write.Point, 0, len(r.Points))
	for _, p := range r.Points {
		if p.Err != nil {
			continue
		}
		res := p.Result

		tags := map[string]string{
			"scenario":         r.Scenario,
			"run_id":           r.ID.String(),
			"air_temperature":  strconv.FormatFloat(p.AirTemperature, 'g', -1, 64),
			"stability_regime": res.StabilityRegime.String(),
			"vapor_regime":     res.VaporRegime.String(),
		}
		fields := map[string]interface{}{
			"net_rad":               res.NetRad,
			"sensible_xfer_rate":    res.SensibleXferRate,
			"latent_xfer_rate":      res.LatentXferRate,
			"total_heat_input_rate": res.TotalHeatInputRate,
			"total_melt":            res.TotalMelt,
			"total_ablation":        res.TotalAblation,
			"total_water_output":    res.TotalWaterOutput,
			"ti_total_melt":         res.TITotalMelt,
			"ti_total_water_output": res.TITotalWaterOutput,
		}

		points = append(points, influxdb2.NewPoint(Measurement, tags, fields, r.CreatedAt))
	}
	return points
}

// CheckHealth asks the server for its health status
func (s *Storage) CheckHealth(ctx context.Context) error {
	check, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if check.Status != "pass" {
		return fmt.Errorf("influxdb status %s", check.Status)
	}
	return nil
}

// Close closes the client
func (s *Storage) Close() error {
	s.client.Close()
	return nil
}
