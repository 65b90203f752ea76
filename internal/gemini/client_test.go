package gemini

import (
	"testing"

	"github.com/Konabiii/GBPL/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartsPromptAndImageOnly(t *testing.T) {
	parts, err := buildParts(models.DiagnosisRequest{
		ImageJPEG: []byte{0xff, 0xd8, 0xff},
	})
	require.NoError(t, err)
	require.Len(t, parts, 2)

	_, ok := parts[0].(genai.Text)
	assert.True(t, ok)

	blob, ok := parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", blob.MIMEType)
}

func TestBuildPartsAttachesCandidateDocument(t *testing.T) {
	parts, err := buildParts(models.DiagnosisRequest{
		ImageJPEG: []byte{0xff, 0xd8, 0xff},
		Candidates: &models.CandidateList{Candidates: []models.Candidate{
			{Name: "Early Blight"},
			{Name: "Late Blight"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, parts, 3)

	doc, ok := parts[2].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(doc), "Early Blight")
	assert.Contains(t, string(doc), "Late Blight")
}

func TestBuildPartsSkipsEmptyCandidateList(t *testing.T) {
	parts, err := buildParts(models.DiagnosisRequest{
		ImageJPEG:  []byte{0xff, 0xd8, 0xff},
		Candidates: &models.CandidateList{},
	})
	require.NoError(t, err)

	// An uploaded document with no candidates adds nothing to the request
	assert.Len(t, parts, 2)
}
