package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Konabiii/GBPL/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
}

// Config for Gemini client
type Config struct {
	APIKey    string
	ModelName string // Default: "gemini-1.5-flash-latest"
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-1.5-flash-latest"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}

	// Diagnoses are plain farmer-readable text, never JSON
	model.ResponseMIMEType = "text/plain"

	logger.Info("Gemini client initialized", zap.String("model", cfg.ModelName))

	return &Client{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateDiagnosis sends one multimodal generation request: the user
// prompt, the normalized JPEG inline, and the candidate document as an
// extra text part when supplied. No retry; a failed call leaves the
// session without a diagnosis.
func (c *Client) GenerateDiagnosis(ctx context.Context, req models.DiagnosisRequest) (string, error) {
	parts, err := buildParts(req)
	if err != nil {
		return "", err
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("Gemini API error", zap.Error(err))
		return "", models.NewUpstreamServiceError("diagnosis generation failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		// The model answered but produced no text; surface an empty
		// diagnosis rather than an error.
		c.logger.Warn("Gemini returned no content")
		return "", nil
	}

	var diagnosis string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			diagnosis += string(text)
		}
	}

	c.logger.Debug("Diagnosis generated", zap.Int("length", len(diagnosis)))

	return diagnosis, nil
}

// buildParts assembles the request parts: user prompt, inline JPEG, and
// the candidate document only when it actually lists candidates.
func buildParts(req models.DiagnosisRequest) ([]genai.Part, error) {
	parts := []genai.Part{
		genai.Text(BuildUserPrompt(req)),
		genai.ImageData("jpeg", req.ImageJPEG),
	}

	if req.Candidates != nil && len(req.Candidates.Candidates) > 0 {
		candidateJSON, err := json.Marshal(req.Candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal candidates: %w", err)
		}
		parts = append(parts, genai.Text(string(candidateJSON)))
	}

	return parts, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "gemini",
		"model":    c.modelName,
	}
}
