package realtime

import (
	"context"
	"time"

	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"

	"github.com/Konabiii/GBPL/internal/models"
)

// FeedbackRecorder appends rating/comment records to the remote feedback
// log. The log is append-only and never read back by this service.
type FeedbackRecorder struct {
	db     *db.Client
	path   string
	logger *zap.Logger
}

// NewFeedbackRecorder creates a recorder bound to one feedback path.
func NewFeedbackRecorder(client *db.Client, path string, logger *zap.Logger) *FeedbackRecorder {
	return &FeedbackRecorder{
		db:     client,
		path:   path,
		logger: logger,
	}
}

// Append stamps the entry with the current epoch seconds and pushes it.
func (f *FeedbackRecorder) Append(ctx context.Context, entry models.FeedbackEntry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}

	ref, err := f.db.NewRef(f.path).Push(ctx, entry)
	if err != nil {
		f.logger.Error("Failed to push feedback", zap.String("path", f.path), zap.Error(err))
		return models.NewUpstreamServiceError("failed to record feedback", err)
	}

	f.logger.Info("Feedback recorded",
		zap.String("key", ref.Key),
		zap.Int("rating", entry.Rating))

	return nil
}
