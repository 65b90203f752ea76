package realtime

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"

	"github.com/Konabiii/GBPL/internal/models"
)

// SensorReader fetches the latest ambient reading from a fixed path in the
// realtime database.
type SensorReader struct {
	db     *db.Client
	path   string
	logger *zap.Logger
}

// NewSensorReader creates a reader bound to one sensor path.
func NewSensorReader(client *db.Client, path string, logger *zap.Logger) *SensorReader {
	return &SensorReader{
		db:     client,
		path:   path,
		logger: logger,
	}
}

// Latest performs one synchronous read. An empty snapshot is fatal for the
// current request; a present snapshot with malformed fields degrades to NaN
// values instead of failing.
func (r *SensorReader) Latest(ctx context.Context) (models.SensorReading, error) {
	var raw map[string]interface{}
	if err := r.db.NewRef(r.path).Get(ctx, &raw); err != nil {
		r.logger.Error("Failed to read sensor path", zap.String("path", r.path), zap.Error(err))
		return models.SensorReading{}, models.NewUpstreamServiceError("failed to read sensor data", err)
	}

	if len(raw) == 0 {
		return models.SensorReading{}, models.NewUpstreamDataError(
			fmt.Sprintf("no data found at path: %s", r.path))
	}

	reading := readingFromSnapshot(raw)
	r.logger.Debug("Sensor reading fetched",
		zap.Float64("temp_c", reading.TempC),
		zap.Float64("humidity", reading.Humidity))

	return reading, nil
}

func readingFromSnapshot(raw map[string]interface{}) models.SensorReading {
	return models.SensorReading{
		TempC:    coerceFloat(raw["temperature"]),
		Humidity: coerceFloat(raw["humidity"]),
	}
}

// coerceFloat converts a raw database value to float64, substituting NaN
// for anything absent or non-numeric.
func coerceFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
