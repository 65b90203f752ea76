package service

import (
	"sync"
	"time"

	"github.com/Konabiii/GBPL/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager owns the per-client form state. Sessions are ephemeral:
// they live in memory and vanish on restart. All reads and writes go
// through the manager's mutex; callers only ever see value snapshots,
// never the live session.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	logger   *zap.Logger
}

// NewSessionManager creates an empty session store.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*models.Session),
		logger:   logger,
	}
}

// NewSessionID issues an identifier for a fresh client.
func (m *SessionManager) NewSessionID() string {
	return uuid.NewString()
}

func newSession(id string) *models.Session {
	return &models.Session{
		ID:        id,
		State:     models.StateIdle,
		Rating:    models.DefaultRating,
		UpdatedAt: time.Now(),
	}
}

// Copy returns a value snapshot of the session. Image bytes and the
// candidate document are replaced wholesale on update, never edited in
// place, so the shallow copy is safe to read outside the lock.
func (m *SessionManager) Copy(id string) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return *m.getOrCreateLocked(id)
}

// StartCapture commits the input method and shows the acquisition widget.
// Any previously acquired image or diagnosis belongs to the old cycle and
// is dropped.
func (m *SessionManager) StartCapture(id, method string) (models.SessionView, error) {
	if method != models.InputMethodUpload && method != models.InputMethodCamera {
		return models.SessionView{}, models.NewValidationError("input_method must be \"upload\" or \"camera\"")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	sess.State = models.StateCaptureChosen
	sess.InputMethod = method
	sess.ImageJPEG = nil
	sess.Diagnosis = ""
	sess.FeedbackSubmitted = false
	sess.UpdatedAt = time.Now()

	return sess.View(), nil
}

// AttachImage stores the normalized image. Capture must have been started
// first; re-acquiring replaces the previous image without resetting the
// rest of the form.
func (m *SessionManager) AttachImage(id string, jpegData []byte) (models.SessionView, error) {
	if len(jpegData) == 0 {
		return models.SessionView{}, models.NewValidationError("image is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	if sess.State == models.StateIdle {
		return models.SessionView{}, models.NewValidationError("choose an input method and start capture first")
	}

	sess.ImageJPEG = jpegData
	if sess.State == models.StateCaptureChosen {
		sess.State = models.StateImageAcquired
	}
	sess.UpdatedAt = time.Now()

	return sess.View(), nil
}

// SetMetadata updates the optional free-text fields. Allowed in any state
// without touching the state machine.
func (m *SessionManager) SetMetadata(id, crop, location, growthStage string) models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	sess.Crop = crop
	sess.Location = location
	sess.GrowthStage = growthStage
	sess.UpdatedAt = time.Now()

	return sess.View()
}

// SetCandidates attaches the optional candidate-disease document.
func (m *SessionManager) SetCandidates(id string, candidates *models.CandidateList) models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	sess.Candidates = candidates
	sess.UpdatedAt = time.Now()

	return sess.View()
}

// SetDiagnosis records a successful generation. The feedback controls
// become available exactly once for this diagnosis.
func (m *SessionManager) SetDiagnosis(id, diagnosis string) models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	sess.Diagnosis = diagnosis
	sess.State = models.StateDiagnosisShown
	sess.FeedbackSubmitted = false
	sess.UpdatedAt = time.Now()

	return sess.View()
}

// BeginFeedback atomically claims the single feedback submission allowed
// for the live diagnosis. Exactly one concurrent caller wins the claim;
// the returned snapshot describes the diagnosis being rated.
func (m *SessionManager) BeginFeedback(id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	if sess.Diagnosis == "" {
		return models.Session{}, models.NewValidationError("no diagnosis to rate; generate one first")
	}
	if sess.FeedbackSubmitted {
		return models.Session{}, models.NewValidationError("feedback already submitted for this diagnosis")
	}

	snapshot := *sess
	sess.FeedbackSubmitted = true
	sess.UpdatedAt = time.Now()

	return snapshot, nil
}

// AbortFeedback releases the claim after a failed write so the user can
// resubmit.
func (m *SessionManager) AbortFeedback(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreateLocked(id)
	sess.FeedbackSubmitted = false
	sess.UpdatedAt = time.Now()
}

// Reset clears all session state back to idle defaults, forcing a fresh
// capture→diagnose→rate cycle.
func (m *SessionManager) Reset(id string) models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := newSession(id)
	m.sessions[id] = sess
	m.logger.Debug("Session reset", zap.String("session_id", id))

	return sess.View()
}

// Snapshot returns the client-facing view of a session.
func (m *SessionManager) Snapshot(id string) models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getOrCreateLocked(id).View()
}

func (m *SessionManager) getOrCreateLocked(id string) *models.Session {
	sess, ok := m.sessions[id]
	if !ok {
		sess = newSession(id)
		m.sessions[id] = sess
		m.logger.Debug("Session created", zap.String("session_id", id))
	}
	return sess
}
