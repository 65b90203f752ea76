package service

import (
	"sync"
	"testing"

	"github.com/Konabiii/GBPL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionStartsIdleWithDefaultRating(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	sess := m.Copy("a")
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Equal(t, models.DefaultRating, sess.Rating)
	assert.False(t, sess.HasImage())
}

func TestStartCaptureValidatesMethod(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	_, err := m.StartCapture("a", "telepathy")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindValidation, models.KindOf(err))

	view, err := m.StartCapture("a", models.InputMethodCamera)
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureChosen, view.State)
	assert.Equal(t, models.InputMethodCamera, view.InputMethod)
}

func TestAttachImageRequiresCaptureStarted(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	_, err := m.AttachImage("a", []byte("jpeg"))
	require.Error(t, err)
	assert.Equal(t, models.ErrKindValidation, models.KindOf(err))

	_, err = m.StartCapture("a", models.InputMethodUpload)
	require.NoError(t, err)

	view, err := m.AttachImage("a", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, models.StateImageAcquired, view.State)
	assert.Equal(t, len("jpeg"), view.ImageSizeBytes)
}

func TestAttachImageRejectsEmpty(t *testing.T) {
	m := NewSessionManager(zap.NewNop())
	m.StartCapture("a", models.InputMethodUpload)

	_, err := m.AttachImage("a", nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrKindValidation, models.KindOf(err))
}

func TestMetadataEditableInAnyState(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	// Before capture
	view := m.SetMetadata("a", "tomato", "", "seedling")
	assert.Equal(t, models.StateIdle, view.State)
	assert.Equal(t, "tomato", view.Crop)

	// After diagnosis is shown, edits do not reset the state machine
	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))
	m.SetDiagnosis("a", "some diagnosis")

	view = m.SetMetadata("a", "tomato", "Hanoi", "fruiting")
	assert.Equal(t, models.StateDiagnosisShown, view.State)
	assert.Equal(t, "Hanoi", view.Location)
	assert.Equal(t, "some diagnosis", view.Diagnosis)
}

func TestStartCaptureDropsPreviousCycle(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))
	m.SetDiagnosis("a", "old diagnosis")

	view, err := m.StartCapture("a", models.InputMethodCamera)
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureChosen, view.State)
	assert.Zero(t, view.ImageSizeBytes)
	assert.Empty(t, view.Diagnosis)
}

func TestSetDiagnosisEnablesFeedbackOnce(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))

	view := m.SetDiagnosis("a", "fresh diagnosis")
	assert.Equal(t, models.StateDiagnosisShown, view.State)
	assert.False(t, view.FeedbackSubmitted)
}

func TestBeginFeedbackRequiresDiagnosis(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	_, err := m.BeginFeedback("a")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindValidation, models.KindOf(err))
}

func TestBeginFeedbackClaimsOnlyOnce(t *testing.T) {
	m := NewSessionManager(zap.NewNop())
	m.SetDiagnosis("a", "diagnosis text")

	snap, err := m.BeginFeedback("a")
	require.NoError(t, err)
	assert.Equal(t, "diagnosis text", snap.Diagnosis)
	assert.False(t, snap.FeedbackSubmitted)

	_, err = m.BeginFeedback("a")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindValidation, models.KindOf(err))

	// A new diagnosis re-opens the feedback window
	m.SetDiagnosis("a", "second diagnosis")
	_, err = m.BeginFeedback("a")
	assert.NoError(t, err)
}

func TestBeginFeedbackConcurrentClaims(t *testing.T) {
	m := NewSessionManager(zap.NewNop())
	m.SetDiagnosis("a", "diagnosis text")

	const claimers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.BeginFeedback("a"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1, "exactly one concurrent submission may claim the diagnosis")
}

func TestAbortFeedbackAllowsResubmit(t *testing.T) {
	m := NewSessionManager(zap.NewNop())
	m.SetDiagnosis("a", "diagnosis text")

	_, err := m.BeginFeedback("a")
	require.NoError(t, err)

	_, err = m.BeginFeedback("a")
	require.Error(t, err)

	m.AbortFeedback("a")

	_, err = m.BeginFeedback("a")
	assert.NoError(t, err)
}

func TestResetClearsEverything(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))
	m.SetMetadata("a", "tomato", "Hanoi", "fruiting")
	m.SetCandidates("a", &models.CandidateList{Candidates: []models.Candidate{{Name: "Early Blight"}}})
	m.SetDiagnosis("a", "diagnosis text")

	view := m.Reset("a")
	assert.Equal(t, models.StateIdle, view.State)
	assert.Equal(t, models.DefaultRating, view.Rating)
	assert.Zero(t, view.ImageSizeBytes)
	assert.Empty(t, view.Diagnosis)
	assert.Empty(t, view.Crop)
	assert.Empty(t, view.CandidateNames)
	assert.False(t, view.FeedbackSubmitted)
}

func TestSessionsAreIsolatedByID(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))

	other := m.Copy("b")
	assert.Equal(t, models.StateIdle, other.State)
	assert.False(t, other.HasImage())
}

func TestCopyIsDetachedFromLiveSession(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg"))
	snap := m.Copy("a")

	m.Reset("a")

	assert.True(t, snap.HasImage())
	assert.Equal(t, models.StateImageAcquired, snap.State)
}

func TestSnapshotOmitsImageBytes(t *testing.T) {
	m := NewSessionManager(zap.NewNop())

	m.StartCapture("a", models.InputMethodUpload)
	m.AttachImage("a", []byte("jpeg-bytes"))

	view := m.Snapshot("a")
	assert.Equal(t, len("jpeg-bytes"), view.ImageSizeBytes)
	assert.Equal(t, models.StateImageAcquired, view.State)
}
