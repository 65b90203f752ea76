package gemini

import (
	"fmt"
	"strings"

	"github.com/Konabiii/GBPL/internal/models"
)

// SystemInstruction is the diagnosis format contract, constant across all
// requests.
const SystemInstruction = "You are an agronomy expert assisting field diagnosis. " +
	"Given a plant image, ambient temperature/humidity, and optional candidate disease names, " +
	"produce an English-only, plain-text diagnosis for a farmer. " +
	"Structure the output with clear section headers:\n" +
	"1) Likely diagnosis (disease name)\n" +
	"2) Why (key symptoms and environmental consistency)\n" +
	"3) Immediate actions (today)\n" +
	"4) Treatment — Non-chemical\n" +
	"5) Treatment — Chemical (if applicable; avoid specific brand recommendations)\n" +
	"6) Monitoring (next 3–7 days)\n" +
	"7) Prevention (longer-term)\n" +
	"8) Safety notes and disclaimer\n" +
	"Be cautious: note uncertainty if applicable and avoid unsafe instructions."

// BuildUserPrompt assembles the per-request prompt. Optional lines keep a
// fixed order: crop, growth stage, location, temperature, humidity,
// candidates. Unknown sensor values print as the "NaN" sentinel.
func BuildUserPrompt(req models.DiagnosisRequest) string {
	lines := []string{"Generate an English diagnosis text using the following information."}

	if req.Crop != "" {
		lines = append(lines, fmt.Sprintf("- Crop: %s", req.Crop))
	}
	if req.GrowthStage != "" {
		lines = append(lines, fmt.Sprintf("- Growth stage: %s", req.GrowthStage))
	}
	if req.Location != "" {
		lines = append(lines, fmt.Sprintf("- Location: %s", req.Location))
	}

	lines = append(lines, fmt.Sprintf("- Temperature: %v °C", req.Sensor.TempC))
	lines = append(lines, fmt.Sprintf("- Humidity: %v %%", req.Sensor.Humidity))

	if names := req.Candidates.Names(); len(names) > 0 {
		lines = append(lines, "- Candidate diseases: "+strings.Join(names, ", "))
	}

	lines = append(lines, "Return plain English text only (no JSON).")
	return strings.Join(lines, "\n")
}
