package models

import "time"

// SessionState tracks where a client is in the capture→diagnose→rate cycle.
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateCaptureChosen  SessionState = "capture_chosen"
	StateImageAcquired  SessionState = "image_acquired"
	StateDiagnosisShown SessionState = "diagnosis_shown"
)

// Input methods, mutually exclusive per cycle.
const (
	InputMethodUpload = "upload"
	InputMethodCamera = "camera"
)

// DefaultRating is the slider's initial position.
const DefaultRating = 3

// Session is the per-client ephemeral state. Nothing here survives a
// process restart.
type Session struct {
	ID                string
	State             SessionState
	InputMethod       string
	ImageJPEG         []byte
	Candidates        *CandidateList
	Crop              string
	Location          string
	GrowthStage       string
	Diagnosis         string
	Rating            int
	FeedbackSubmitted bool
	UpdatedAt         time.Time
}

// HasImage reports whether a non-empty image has been acquired.
func (s *Session) HasImage() bool {
	return len(s.ImageJPEG) > 0
}

// SessionView is the JSON snapshot returned to the client; image bytes are
// summarized, not echoed.
type SessionView struct {
	ID                string       `json:"id"`
	State             SessionState `json:"state"`
	InputMethod       string       `json:"input_method,omitempty"`
	ImageSizeBytes    int          `json:"image_size_bytes"`
	CandidateNames    []string     `json:"candidate_names,omitempty"`
	Crop              string       `json:"crop,omitempty"`
	Location          string       `json:"location,omitempty"`
	GrowthStage       string       `json:"growth_stage,omitempty"`
	Diagnosis         string       `json:"diagnosis,omitempty"`
	Rating            int          `json:"rating"`
	FeedbackSubmitted bool         `json:"feedback_submitted"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// View builds the client-facing snapshot of a session.
func (s *Session) View() SessionView {
	return SessionView{
		ID:                s.ID,
		State:             s.State,
		InputMethod:       s.InputMethod,
		ImageSizeBytes:    len(s.ImageJPEG),
		CandidateNames:    s.Candidates.Names(),
		Crop:              s.Crop,
		Location:          s.Location,
		GrowthStage:       s.GrowthStage,
		Diagnosis:         s.Diagnosis,
		Rating:            s.Rating,
		FeedbackSubmitted: s.FeedbackSubmitted,
		UpdatedAt:         s.UpdatedAt,
	}
}
