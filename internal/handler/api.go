package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Konabiii/GBPL/internal/imaging"
	"github.com/Konabiii/GBPL/internal/models"
	"github.com/Konabiii/GBPL/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookie = "session_id"

// Handler handles HTTP requests
type Handler struct {
	diagnoser    *service.Diagnoser
	sessions     *service.SessionManager
	maxImageSize int64
	logger       *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(diagnoser *service.Diagnoser, sessions *service.SessionManager, maxImageSizeMB int64, logger *zap.Logger) *Handler {
	return &Handler{
		diagnoser:    diagnoser,
		sessions:     sessions,
		maxImageSize: maxImageSizeMB << 20,
		logger:       logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Interactive form cycle
		api.POST("/session/start", h.StartCapture)
		api.POST("/session/image", h.UploadImage)
		api.POST("/session/candidates", h.UploadCandidates)
		api.PUT("/session/metadata", h.SetMetadata)
		api.GET("/session", h.GetSession)
		api.DELETE("/session", h.ResetSession)

		api.POST("/diagnose", h.GenerateDiagnosis)
		api.POST("/feedback", h.SubmitFeedback)

		// Local history
		api.GET("/diagnoses", h.GetHistory)
		api.GET("/diagnoses/stats", h.GetHistoryStats)

		// Export
		api.GET("/export/csv", h.ExportCSV)
		api.GET("/export/json", h.ExportJSON)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// sessionID reads the client's session cookie, issuing one on first
// contact.
func (h *Handler) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		return id
	}

	id := h.sessions.NewSessionID()
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}

// respondError maps the typed error taxonomy onto HTTP responses.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	if kind == models.ErrKindInternal {
		h.logger.Error("Unclassified error", zap.Error(err))
	}

	c.JSON(models.HTTPStatus(kind), gin.H{
		"error": models.MessageOf(err),
		"kind":  kind,
	})
}

// StartCapture commits the input method and begins a capture cycle
func (h *Handler) StartCapture(c *gin.Context) {
	var req models.StartCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.StartCapture(h.sessionID(c), req.InputMethod)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// UploadImage accepts the plant photo (file upload or camera capture) and
// normalizes it for transmission
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file (form field 'image')"})
		return
	}

	if file.Size > h.maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("image too large (max %d MB)", h.maxImageSize>>20),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	normalized, err := imaging.Normalize(data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sess, err := h.sessions.AttachImage(h.sessionID(c), normalized)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// UploadCandidates attaches the optional candidate-disease document
func (h *Handler) UploadCandidates(c *gin.Context) {
	var candidates models.CandidateList
	if err := c.ShouldBindJSON(&candidates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidates JSON"})
		return
	}

	sess := h.sessions.SetCandidates(h.sessionID(c), &candidates)
	c.JSON(http.StatusOK, sess)
}

// SetMetadata updates the optional crop/location/growth-stage fields
func (h *Handler) SetMetadata(c *gin.Context) {
	var req models.MetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.sessions.SetMetadata(h.sessionID(c), req.Crop, req.Location, req.GrowthStage)
	c.JSON(http.StatusOK, sess)
}

// GetSession returns the current form state
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Snapshot(h.sessionID(c)))
}

// ResetSession abandons the current cycle
func (h *Handler) ResetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Reset(h.sessionID(c)))
}

// GenerateDiagnosis runs the full pipeline for the current session
func (h *Handler) GenerateDiagnosis(c *gin.Context) {
	id := h.sessionID(c)
	sess := h.sessions.Copy(id)

	// No image yet: warn and stay in place, no upstream call is made.
	if !sess.HasImage() {
		c.JSON(http.StatusBadRequest, gin.H{
			"warning": "please capture or upload a plant image first",
			"kind":    models.ErrKindValidation,
		})
		return
	}

	diagnosis, err := h.diagnoser.Generate(c.Request.Context(), sess)
	if err != nil {
		h.respondError(c, err)
		return
	}

	view := h.sessions.SetDiagnosis(id, diagnosis)

	c.JSON(http.StatusOK, gin.H{
		"diagnosis": diagnosis,
		"state":     view.State,
	})
}

// SubmitFeedback records the rating/comment for the live diagnosis and
// ends the cycle
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := h.sessionID(c)

	// Claim the one submission allowed for this diagnosis before doing
	// any work; a lost claim means someone else's submission is in flight.
	sess, err := h.sessions.BeginFeedback(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.diagnoser.SubmitFeedback(c.Request.Context(), sess, req.Rating, req.Feedback); err != nil {
		h.sessions.AbortFeedback(id)
		h.respondError(c, err)
		return
	}

	// Feedback accepted: the whole cycle restarts from scratch.
	h.sessions.Reset(id)

	c.JSON(http.StatusOK, gin.H{
		"message": "Thank you for your feedback!",
		"state":   models.StateIdle,
	})
}

// GetHistory returns stored diagnoses, optionally filtered by crop
func (h *Handler) GetHistory(c *gin.Context) {
	records, err := h.diagnoser.History(c.Query("crop"))
	if err != nil {
		h.logger.Error("Failed to get history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get diagnoses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"diagnoses": records,
		"total":     len(records),
	})
}

// GetHistoryStats returns diagnosis history statistics
func (h *Handler) GetHistoryStats(c *gin.Context) {
	stats, err := h.diagnoser.HistoryStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportCSV exports the diagnosis history to CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	records, err := h.diagnoser.History("")
	if err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=diagnoses.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"crop", "location", "growth_stage", "temp_c", "humidity", "candidates", "diagnosis", "model_version", "created_at"})

	for _, rec := range records {
		writer.Write([]string{
			rec.Crop,
			rec.Location,
			rec.GrowthStage,
			formatSensorValue(rec.TempC),
			formatSensorValue(rec.Humidity),
			rec.Candidates,
			rec.Diagnosis,
			rec.ModelVersion,
			rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// formatSensorValue renders a stored sensor value, keeping the NaN
// sentinel for unknowns.
func formatSensorValue(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ExportJSON exports the diagnosis history to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	records, err := h.diagnoser.History("")
	if err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=diagnoses.json")

	encoder := json.NewEncoder(c.Writer)
	encoder.SetIndent("", "  ")
	encoder.Encode(records)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "plant-diagnosis-service",
		"model":   h.diagnoser.ModelInfo(),
	})
}
