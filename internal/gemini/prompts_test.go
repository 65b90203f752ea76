package gemini

import (
	"math"
	"strings"
	"testing"

	"github.com/Konabiii/GBPL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserPromptFullContext(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor:      models.SensorReading{TempC: 28.5, Humidity: 74},
		Crop:        "tomato",
		Location:    "Hanoi, Vietnam",
		GrowthStage: "fruiting",
		Candidates: &models.CandidateList{Candidates: []models.Candidate{
			{Name: "Early Blight"},
			{Name: "Late Blight"},
		}},
	}

	prompt := BuildUserPrompt(req)

	assert.Contains(t, prompt, "- Crop: tomato")
	assert.Contains(t, prompt, "- Growth stage: fruiting")
	assert.Contains(t, prompt, "- Location: Hanoi, Vietnam")
	assert.Contains(t, prompt, "- Temperature: 28.5 °C")
	assert.Contains(t, prompt, "- Humidity: 74 %")
	assert.Contains(t, prompt, "Early Blight, Late Blight")
	assert.True(t, strings.HasSuffix(prompt, "Return plain English text only (no JSON)."))
}

func TestBuildUserPromptFieldOrder(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor:      models.SensorReading{TempC: 20, Humidity: 60},
		Crop:        "rice",
		Location:    "Cần Thơ",
		GrowthStage: "seedling",
		Candidates: &models.CandidateList{Candidates: []models.Candidate{
			{Name: "Rice Blast"},
		}},
	}

	prompt := BuildUserPrompt(req)

	markers := []string{
		"- Crop:",
		"- Growth stage:",
		"- Location:",
		"- Temperature:",
		"- Humidity:",
		"- Candidate diseases:",
	}

	last := -1
	for _, marker := range markers {
		idx := strings.Index(prompt, marker)
		require.GreaterOrEqual(t, idx, 0, "marker %q missing", marker)
		assert.Greater(t, idx, last, "marker %q out of order", marker)
		last = idx
	}
}

func TestBuildUserPromptOmitsEmptyOptionalFields(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor: models.SensorReading{TempC: 31, Humidity: 55},
	}

	prompt := BuildUserPrompt(req)

	assert.NotContains(t, prompt, "- Crop:")
	assert.NotContains(t, prompt, "- Growth stage:")
	assert.NotContains(t, prompt, "- Location:")
	assert.NotContains(t, prompt, "- Candidate diseases:")

	// Sensor lines are always present
	assert.Contains(t, prompt, "- Temperature: 31 °C")
	assert.Contains(t, prompt, "- Humidity: 55 %")
}

func TestBuildUserPromptNaNSentinel(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor: models.SensorReading{TempC: math.NaN(), Humidity: math.NaN()},
	}

	prompt := BuildUserPrompt(req)

	assert.Contains(t, prompt, "- Temperature: NaN °C")
	assert.Contains(t, prompt, "- Humidity: NaN %")
}

func TestBuildUserPromptSkipsUnnamedCandidates(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor: models.SensorReading{TempC: 25, Humidity: 80},
		Candidates: &models.CandidateList{Candidates: []models.Candidate{
			{Name: ""},
			{Name: "Powdery Mildew"},
			{Name: ""},
		}},
	}

	prompt := BuildUserPrompt(req)

	assert.Contains(t, prompt, "- Candidate diseases: Powdery Mildew")
}

func TestBuildUserPromptAllCandidatesUnnamed(t *testing.T) {
	req := models.DiagnosisRequest{
		Sensor:     models.SensorReading{TempC: 25, Humidity: 80},
		Candidates: &models.CandidateList{Candidates: []models.Candidate{{Name: ""}}},
	}

	assert.NotContains(t, BuildUserPrompt(req), "- Candidate diseases:")
}

func TestSystemInstructionContract(t *testing.T) {
	// The format contract: 8 numbered sections, English-only plain text,
	// no brand-name recommendations.
	for _, section := range []string{"1)", "2)", "3)", "4)", "5)", "6)", "7)", "8)"} {
		assert.Contains(t, SystemInstruction, section)
	}
	assert.Contains(t, SystemInstruction, "English-only")
	assert.Contains(t, SystemInstruction, "avoid specific brand recommendations")
}
