package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Konabiii/GBPL/internal/models"

	"go.uber.org/zap"
)

// LLMClient interface for the hosted generation endpoint
type LLMClient interface {
	GenerateDiagnosis(ctx context.Context, req models.DiagnosisRequest) (string, error)
	GetModelInfo() map[string]interface{}
	Close() error
}

// SensorSource provides the latest ambient reading
type SensorSource interface {
	Latest(ctx context.Context) (models.SensorReading, error)
}

// FeedbackSink appends feedback entries to the remote log
type FeedbackSink interface {
	Append(ctx context.Context, entry models.FeedbackEntry) error
}

// HistoryStore keeps the local diagnosis history
type HistoryStore interface {
	SaveDiagnosis(rec *models.DiagnosisRecord) error
	ListDiagnoses() ([]*models.DiagnosisRecord, error)
	ListDiagnosesByCrop(crop string) ([]*models.DiagnosisRecord, error)
	Stats() (map[string]interface{}, error)
}

// Diagnoser handles the diagnosis business logic
type Diagnoser struct {
	llmClient LLMClient
	sensors   SensorSource
	feedback  FeedbackSink
	history   HistoryStore
	logger    *zap.Logger
}

// NewDiagnoser creates a new diagnoser service
func NewDiagnoser(
	llmClient LLMClient,
	sensors SensorSource,
	feedback FeedbackSink,
	history HistoryStore,
	logger *zap.Logger,
) *Diagnoser {
	return &Diagnoser{
		llmClient: llmClient,
		sensors:   sensors,
		feedback:  feedback,
		history:   history,
		logger:    logger,
	}
}

// Generate runs one diagnosis for a session snapshot: sensor read, prompt
// assembly, model call, history record. The caller passes a copy taken
// from the SessionManager; no diagnosis is attempted without sensor data.
func (d *Diagnoser) Generate(ctx context.Context, sess models.Session) (string, error) {
	if !sess.HasImage() {
		return "", models.NewValidationError("please capture or upload a plant image first")
	}

	reading, err := d.sensors.Latest(ctx)
	if err != nil {
		return "", err
	}

	req := models.DiagnosisRequest{
		ImageJPEG:   sess.ImageJPEG,
		Sensor:      reading,
		Candidates:  sess.Candidates,
		Crop:        sess.Crop,
		Location:    sess.Location,
		GrowthStage: sess.GrowthStage,
	}

	diagnosis, err := d.llmClient.GenerateDiagnosis(ctx, req)
	if err != nil {
		return "", err
	}

	d.recordHistory(sess, reading, diagnosis)

	d.logger.Info("Diagnosis generated",
		zap.String("session_id", sess.ID),
		zap.String("crop", sess.Crop),
		zap.Int("length", len(diagnosis)))

	return diagnosis, nil
}

// recordHistory writes the local history row. Best effort: a failure is
// logged but the diagnosis is still returned.
func (d *Diagnoser) recordHistory(sess models.Session, reading models.SensorReading, diagnosis string) {
	modelVersion := ""
	if info := d.llmClient.GetModelInfo(); info != nil {
		if m, ok := info["model"].(string); ok {
			modelVersion = m
		}
	}

	rec := &models.DiagnosisRecord{
		Crop:         sess.Crop,
		Location:     sess.Location,
		GrowthStage:  sess.GrowthStage,
		TempC:        knownValue(reading.TempC),
		Humidity:     knownValue(reading.Humidity),
		Candidates:   strings.Join(sess.Candidates.Names(), ", "),
		Diagnosis:    diagnosis,
		ModelVersion: modelVersion,
		CreatedAt:    time.Now(),
	}

	if err := d.history.SaveDiagnosis(rec); err != nil {
		d.logger.Warn("Failed to record diagnosis history", zap.Error(err))
	}
}

// knownValue keeps the NaN degradation out of storage and JSON: unknown
// sensor values persist as NULL.
func knownValue(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// SubmitFeedback validates and appends one feedback entry for the
// diagnosis in the given snapshot. The once-per-diagnosis guarantee lives
// in SessionManager.BeginFeedback; a write failure is surfaced so the
// caller can release the claim and let the user resubmit.
func (d *Diagnoser) SubmitFeedback(ctx context.Context, sess models.Session, rating int, comment string) error {
	if sess.Diagnosis == "" {
		return models.NewValidationError("no diagnosis to rate; generate one first")
	}

	if rating < 1 || rating > 5 {
		return models.NewValidationError("rating must be between 1 and 5")
	}

	entry := models.FeedbackEntry{
		Rating:      rating,
		Feedback:    comment,
		Diagnosis:   sess.Diagnosis,
		Timestamp:   time.Now().Unix(),
		Crop:        sess.Crop,
		Location:    sess.Location,
		GrowthStage: sess.GrowthStage,
	}

	return d.feedback.Append(ctx, entry)
}

// History returns the stored diagnosis records, optionally filtered by crop.
func (d *Diagnoser) History(crop string) ([]*models.DiagnosisRecord, error) {
	if crop != "" {
		return d.history.ListDiagnosesByCrop(crop)
	}
	return d.history.ListDiagnoses()
}

// HistoryStats returns aggregate history statistics.
func (d *Diagnoser) HistoryStats() (map[string]interface{}, error) {
	return d.history.Stats()
}

// ModelInfo exposes the underlying model description for health reporting.
func (d *Diagnoser) ModelInfo() map[string]interface{} {
	return d.llmClient.GetModelInfo()
}
