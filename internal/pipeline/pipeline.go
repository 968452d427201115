package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/fieldsight/internal/models"
	"github.com/your-org/fieldsight/internal/observability"
)

// ErrRunInFlight is returned when an account triggers a capture while a
// previous run has not settled. Prevents storage-path races between
// concurrent runs of the same account.
var ErrRunInFlight = errors.New("identification already in progress for this account")

// Preprocessor converts a captured photo into the canonical upload format.
type Preprocessor interface {
	Process(photo models.CapturedPhoto) (*models.ProcessedImage, error)
}

// Classifier identifies a processed image against the remote model.
type Classifier interface {
	Classify(ctx context.Context, img *models.ProcessedImage) (*models.Prediction, error)
}

// ArtifactStore persists the processed image and returns its durable URL.
type ArtifactStore interface {
	Upload(ctx context.Context, img *models.ProcessedImage, account models.Account, predictedClass string, capturedAt time.Time) (*models.StoredArtifact, error)
}

// Recorder appends the two observation projections. Each write is attempted
// and fails independently of the other.
type Recorder interface {
	SaveMarker(ctx context.Context, m *models.Marker) error
	SaveSight(ctx context.Context, s *models.Sight) error
}

// Publisher emits observation events for live map/catalog clients. Optional;
// publication failures never affect a run's outcome.
type Publisher interface {
	PublishObservation(ctx context.Context, evt models.ObservationEvent) error
}

// RecordOutcome reports one best-effort record write.
type RecordOutcome struct {
	Attempted bool   `json:"attempted"`
	Saved     bool   `json:"saved"`
	Error     string `json:"error,omitempty"`
}

// Result is the settled outcome of one run. A run is successful when the
// prediction succeeded and the artifact was stored; record-keeping is
// secondary and its partial failure only shows up in the outcomes.
type Result struct {
	RunID       uuid.UUID
	State       State
	FailedStage Stage
	Prediction  *models.Prediction
	Artifact    *models.StoredArtifact
	Marker      RecordOutcome
	Sight       RecordOutcome
}

// Orchestrator sequences preprocess → classify → store → record for one
// photo at a time per account.
type Orchestrator struct {
	pre        Preprocessor
	classifier Classifier
	artifacts  ArtifactStore
	recorder   Recorder
	publisher  Publisher

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewOrchestrator(pre Preprocessor, classifier Classifier, artifacts ArtifactStore, recorder Recorder, publisher Publisher) *Orchestrator {
	return &Orchestrator{
		pre:        pre,
		classifier: classifier,
		artifacts:  artifacts,
		recorder:   recorder,
		publisher:  publisher,
		inflight:   make(map[string]struct{}),
	}
}

// Identify runs the full pipeline for one uploaded photo. loc may be nil when
// the device location read failed; the marker write is then skipped while the
// sight write still proceeds.
func (o *Orchestrator) Identify(ctx context.Context, account models.Account, photo models.CapturedPhoto, loc *models.Geolocation) (*Result, error) {
	run := NewRun(account)
	if err := run.BeginCapture(); err != nil {
		return nil, err
	}
	if err := run.AttachPhoto(photo); err != nil {
		return nil, err
	}
	run.Location = loc
	return o.Execute(ctx, run)
}

// Execute drives a captured run to StateComplete or StateError. There is no
// cancellation once processing starts and no automatic retry on any stage:
// the recovery path is the user retaking the photo.
func (o *Orchestrator) Execute(ctx context.Context, run *Run) (*Result, error) {
	if !o.acquire(run.Account.ID) {
		return nil, ErrRunInFlight
	}
	defer o.release(run.Account.ID)

	run.setBusy(true)
	defer run.setBusy(false)

	result := &Result{RunID: run.ID, State: StateError}

	// Processing
	if err := run.transition(StateCaptured, StateProcessing); err != nil {
		return nil, err
	}
	start := time.Now()
	img, err := o.pre.Process(run.Photo)
	observability.StageDuration.WithLabelValues(string(StageProcess)).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.failRun(run, result, StageProcess, err)
	}

	// Predicting
	if err := run.transition(StateProcessing, StatePredicting); err != nil {
		return nil, err
	}
	start = time.Now()
	pred, err := o.classifier.Classify(ctx, img)
	observability.StageDuration.WithLabelValues(string(StagePredict)).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.failRun(run, result, StagePredict, err)
	}
	result.Prediction = pred

	// Storing
	if err := run.transition(StatePredicting, StateStoring); err != nil {
		return nil, err
	}
	capturedAt := time.Now()
	start = capturedAt
	artifact, err := o.artifacts.Upload(ctx, img, run.Account, pred.PredictedClass, capturedAt)
	observability.StageDuration.WithLabelValues(string(StageStore)).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.failRun(run, result, StageStore, err)
	}
	result.Artifact = artifact
	observability.ArtifactBytes.Add(float64(len(img.Data)))

	// Guests see their result transiently and nothing is recorded.
	if run.Account.IsGuest() {
		if err := run.transition(StateStoring, StateComplete); err != nil {
			return nil, err
		}
		result.State = StateComplete
		observability.PipelineRuns.WithLabelValues(string(run.Account.Kind), "complete").Inc()
		return result, nil
	}

	if err := run.transition(StateStoring, StateRecording); err != nil {
		return nil, err
	}
	start = time.Now()
	o.record(ctx, run, pred, artifact, capturedAt, result)
	observability.StageDuration.WithLabelValues(string(StageRecord)).Observe(time.Since(start).Seconds())

	// Recording failures are best-effort: the run completes regardless.
	if err := run.transition(StateRecording, StateComplete); err != nil {
		return nil, err
	}
	result.State = StateComplete
	observability.PipelineRuns.WithLabelValues(string(run.Account.Kind), "complete").Inc()

	o.publish(ctx, run, pred, artifact, capturedAt, result)

	return result, nil
}

// record attempts the marker and sight writes independently: a marker failure
// must not prevent the sight attempt, and vice versa.
func (o *Orchestrator) record(ctx context.Context, run *Run, pred *models.Prediction, artifact *models.StoredArtifact, capturedAt time.Time, result *Result) {
	if run.Location != nil {
		result.Marker.Attempted = true
		marker := &models.Marker{
			AccountID:      run.Account.ID,
			Latitude:       run.Location.Latitude,
			Longitude:      run.Location.Longitude,
			ImageURL:       artifact.URL,
			PredictedClass: pred.PredictedClass,
			Confidence:     pred.Confidence,
			Timestamp:      capturedAt,
			Identifier:     run.Account.Identifier(),
		}
		if err := o.recorder.SaveMarker(ctx, marker); err != nil {
			result.Marker.Error = err.Error()
			observability.RecordWrites.WithLabelValues("marker", "error").Inc()
			slog.Warn("save marker", "run", run.ID, "error", err)
		} else {
			result.Marker.Saved = true
			observability.RecordWrites.WithLabelValues("marker", "ok").Inc()
		}
	} else {
		slog.Warn("no location fix, skipping marker", "run", run.ID)
	}

	result.Sight.Attempted = true
	sight := &models.Sight{
		AccountID:      run.Account.ID,
		ImageURL:       artifact.URL,
		PredictedClass: pred.PredictedClass,
	}
	if err := o.recorder.SaveSight(ctx, sight); err != nil {
		result.Sight.Error = err.Error()
		observability.RecordWrites.WithLabelValues("sight", "error").Inc()
		slog.Warn("save sight", "run", run.ID, "error", err)
	} else {
		result.Sight.Saved = true
		observability.RecordWrites.WithLabelValues("sight", "ok").Inc()
	}
}

func (o *Orchestrator) publish(ctx context.Context, run *Run, pred *models.Prediction, artifact *models.StoredArtifact, capturedAt time.Time, result *Result) {
	if o.publisher == nil {
		return
	}
	if !result.Marker.Saved && !result.Sight.Saved {
		return
	}
	evt := models.ObservationEvent{
		RunID:          run.ID,
		AccountID:      run.Account.ID,
		PredictedClass: pred.PredictedClass,
		Confidence:     pred.Confidence,
		ImageURL:       artifact.URL,
		Location:       run.Location,
		MarkerSaved:    result.Marker.Saved,
		SightSaved:     result.Sight.Saved,
		Timestamp:      capturedAt,
	}
	if err := o.publisher.PublishObservation(ctx, evt); err != nil {
		slog.Warn("publish observation", "run", run.ID, "error", err)
	}
}

func (o *Orchestrator) failRun(run *Run, result *Result, stage Stage, err error) (*Result, error) {
	run.fail(stage)
	result.State = StateError
	result.FailedStage = stage
	observability.PipelineRuns.WithLabelValues(string(run.Account.Kind), "error").Inc()
	slog.Error("pipeline run failed", "run", run.ID, "stage", stage, "error", err)
	return result, err
}

func (o *Orchestrator) acquire(accountID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[accountID]; busy {
		return false
	}
	o.inflight[accountID] = struct{}{}
	return true
}

func (o *Orchestrator) release(accountID string) {
	o.mu.Lock()
	delete(o.inflight, accountID)
	o.mu.Unlock()
}
