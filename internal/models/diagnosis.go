package models

import "time"

// SensorReading is the latest temperature/humidity snapshot from the
// realtime database. Values may be NaN when the stored field is missing
// or not numeric.
type SensorReading struct {
	TempC    float64 `json:"temp_c"`
	Humidity float64 `json:"humidity"`
}

// Candidate is one user-supplied disease hint. Only the name is consumed;
// extra fields in the uploaded document are carried through untouched when
// the document is forwarded to the model.
type Candidate struct {
	Name string `json:"name"`
}

// CandidateList is the optional candidate-disease document uploaded by the
// user.
type CandidateList struct {
	Candidates []Candidate `json:"candidates"`
}

// Names returns the non-empty candidate names in upload order.
func (l *CandidateList) Names() []string {
	if l == nil {
		return nil
	}
	var names []string
	for _, c := range l.Candidates {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// DiagnosisRequest is the ephemeral context of one generation call.
type DiagnosisRequest struct {
	ImageJPEG   []byte
	Sensor      SensorReading
	Candidates  *CandidateList
	Crop        string
	Location    string
	GrowthStage string
}

// FeedbackEntry is the record pushed to the remote feedback log. It is
// written once and never read back by this service.
type FeedbackEntry struct {
	Rating      int    `json:"rating"`
	Feedback    string `json:"feedback"`
	Diagnosis   string `json:"diagnosis"`
	Timestamp   int64  `json:"timestamp"`
	Crop        string `json:"crop,omitempty"`
	Location    string `json:"location,omitempty"`
	GrowthStage string `json:"growth_stage,omitempty"`
}

// DiagnosisRecord is one row of the local diagnosis history.
type DiagnosisRecord struct {
	ID           int64     `json:"id" db:"id"`
	Crop         string    `json:"crop,omitempty" db:"crop"`
	Location     string    `json:"location,omitempty" db:"location"`
	GrowthStage  string    `json:"growth_stage,omitempty" db:"growth_stage"`
	TempC        *float64  `json:"temp_c" db:"temp_c"`
	Humidity     *float64  `json:"humidity" db:"humidity"`
	Candidates   string    `json:"candidates,omitempty" db:"candidates"`
	Diagnosis    string    `json:"diagnosis" db:"diagnosis"`
	ModelVersion string    `json:"model_version" db:"model_version"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MetadataRequest updates the optional free-text context fields.
type MetadataRequest struct {
	Crop        string `json:"crop"`
	Location    string `json:"location"`
	GrowthStage string `json:"growth_stage"`
}

// StartCaptureRequest commits the input method for the current cycle.
type StartCaptureRequest struct {
	InputMethod string `json:"input_method" binding:"required"`
}

// FeedbackRequest rates the currently shown diagnosis.
type FeedbackRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Feedback string `json:"feedback"`
}
