package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/fieldsight/internal/models"
)

// State of one identification run.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateCaptured   State = "captured"
	StateProcessing State = "processing"
	StatePredicting State = "predicting"
	StateStoring    State = "storing"
	StateRecording  State = "recording"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// Stage names the pipeline step a run failed in. Only the three fatal stages
// appear here: record failures never fail a run.
type Stage string

const (
	StageProcess Stage = "process"
	StagePredict Stage = "predict"
	StageStore   Stage = "store"
	StageRecord  Stage = "record"
)

// Run is one end-to-end capture→identify→persist execution for a single
// photo. A run is terminal once it reaches StateComplete or StateError.
type Run struct {
	ID       uuid.UUID
	Account  models.Account
	Photo    models.CapturedPhoto
	Location *models.Geolocation

	mu          sync.Mutex
	state       State
	busy        bool
	failedStage Stage
}

func NewRun(account models.Account) *Run {
	return &Run{
		ID:      uuid.New(),
		Account: account,
		state:   StateIdle,
	}
}

// BeginCapture moves the run to the camera. Valid from StateIdle only.
func (r *Run) BeginCapture() error {
	return r.transition(StateIdle, StateCapturing)
}

// AttachPhoto records the shutter output. Valid from StateCapturing only.
func (r *Run) AttachPhoto(photo models.CapturedPhoto) error {
	if err := r.transition(StateCapturing, StateCaptured); err != nil {
		return err
	}
	r.mu.Lock()
	r.Photo = photo
	r.mu.Unlock()
	return nil
}

// Retake discards the captured photo and returns to the camera.
func (r *Run) Retake() error {
	if err := r.transition(StateCaptured, StateCapturing); err != nil {
		return err
	}
	r.mu.Lock()
	r.Photo = models.CapturedPhoto{}
	r.mu.Unlock()
	return nil
}

func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Busy reports whether the run's loading indicator is showing. True for the
// whole Processing…Recording span, false after the run settles on any path.
func (r *Run) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// FailedStage returns the fatal stage when the run is in StateError.
func (r *Run) FailedStage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failedStage
}

func (r *Run) setBusy(v bool) {
	r.mu.Lock()
	r.busy = v
	r.mu.Unlock()
}

func (r *Run) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("invalid transition %s -> %s: run is %s", from, to, r.state)
	}
	r.state = to
	return nil
}

func (r *Run) fail(stage Stage) {
	r.mu.Lock()
	r.state = StateError
	r.failedStage = stage
	r.mu.Unlock()
}
