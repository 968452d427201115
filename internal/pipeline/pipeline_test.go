package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fieldsight/internal/models"
)

// --- fakes ---

type fakePreprocessor struct {
	err   error
	calls int
}

func (f *fakePreprocessor) Process(photo models.CapturedPhoto) (*models.ProcessedImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.ProcessedImage{Data: []byte("processed"), Width: 1000, Height: 1000, Format: "jpeg"}, nil
}

type fakeClassifier struct {
	pred  *models.Prediction
	err   error
	block chan struct{} // when non-nil, Classify waits until closed
	mu    sync.Mutex
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, img *models.ProcessedImage) (*models.Prediction, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pred, nil
}

type fakeArtifacts struct {
	err   error
	calls int
}

func (f *fakeArtifacts) Upload(ctx context.Context, img *models.ProcessedImage, account models.Account, predictedClass string, capturedAt time.Time) (*models.StoredArtifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.StoredArtifact{
		URL: "http://minio/photos/images/test/" + predictedClass + ".jpg",
		Key: "images/test/" + predictedClass + ".jpg",
	}, nil
}

type fakeRecorder struct {
	markerErr error
	sightErr  error
	markers   []*models.Marker
	sights    []*models.Sight
}

func (f *fakeRecorder) SaveMarker(ctx context.Context, m *models.Marker) error {
	f.markers = append(f.markers, m)
	return f.markerErr
}

func (f *fakeRecorder) SaveSight(ctx context.Context, s *models.Sight) error {
	f.sights = append(f.sights, s)
	return f.sightErr
}

type fakePublisher struct {
	events []models.ObservationEvent
	err    error
}

func (f *fakePublisher) PublishObservation(ctx context.Context, evt models.ObservationEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

// --- helpers ---

func rosaPrediction() *models.Prediction {
	return &models.Prediction{
		PredictedClass: "Rosa",
		Confidence:     92,
		Alternatives: []models.Alternative{
			{ClassName: "Rosa", Score: 92},
			{ClassName: "Tulipa", Score: 5},
		},
	}
}

type fixture struct {
	pre        *fakePreprocessor
	classifier *fakeClassifier
	artifacts  *fakeArtifacts
	recorder   *fakeRecorder
	publisher  *fakePublisher
	orch       *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		pre:        &fakePreprocessor{},
		classifier: &fakeClassifier{pred: rosaPrediction()},
		artifacts:  &fakeArtifacts{},
		recorder:   &fakeRecorder{},
		publisher:  &fakePublisher{},
	}
	f.orch = NewOrchestrator(f.pre, f.classifier, f.artifacts, f.recorder, f.publisher)
	return f
}

func photo() models.CapturedPhoto {
	return models.CapturedPhoto{Data: []byte("raw"), Filename: "upload.jpg"}
}

func registered() models.Account {
	return models.NewRegisteredAccount("user-1", "user@example.com")
}

func executeRun(t *testing.T, f *fixture, account models.Account, loc *models.Geolocation) (*Run, *Result, error) {
	t.Helper()
	run := NewRun(account)
	require.NoError(t, run.BeginCapture())
	require.NoError(t, run.AttachPhoto(photo()))
	run.Location = loc
	result, err := f.orch.Execute(context.Background(), run)
	return run, result, err
}

// --- tests ---

func TestRegisteredRunWithLocationRecordsBothProjections(t *testing.T) {
	f := newFixture()
	loc := &models.Geolocation{Latitude: 12.3, Longitude: 45.6}

	run, result, err := executeRun(t, f, registered(), loc)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, result.State)
	assert.Equal(t, StateComplete, run.State())
	assert.False(t, run.Busy(), "loading indicator must be off after the run settles")

	require.Len(t, f.recorder.markers, 1, "exactly one marker write attempt")
	require.Len(t, f.recorder.sights, 1, "exactly one sight write attempt")

	m := f.recorder.markers[0]
	assert.Equal(t, "Rosa", m.PredictedClass)
	assert.InDelta(t, 92.0, m.Confidence, 0.001)
	assert.InDelta(t, 12.3, m.Latitude, 0.001)
	assert.InDelta(t, 45.6, m.Longitude, 0.001)
	assert.Equal(t, "user@example.com", m.Identifier)
	assert.Equal(t, result.Artifact.URL, m.ImageURL)

	s := f.recorder.sights[0]
	assert.Equal(t, "Rosa", s.PredictedClass)
	assert.Equal(t, result.Artifact.URL, s.ImageURL)

	assert.True(t, result.Marker.Saved)
	assert.True(t, result.Sight.Saved)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "Rosa", f.publisher.events[0].PredictedClass)
}

func TestMarkerFailureDoesNotPreventSightWrite(t *testing.T) {
	f := newFixture()
	f.recorder.markerErr = errors.New("quota exceeded")
	loc := &models.Geolocation{Latitude: 1, Longitude: 2}

	run, result, err := executeRun(t, f, registered(), loc)
	require.NoError(t, err, "record failures are best-effort")

	assert.Equal(t, StateComplete, result.State)
	assert.False(t, run.Busy())

	assert.True(t, result.Marker.Attempted)
	assert.False(t, result.Marker.Saved)
	assert.NotEmpty(t, result.Marker.Error)

	require.Len(t, f.recorder.sights, 1, "sight write must still be attempted")
	assert.True(t, result.Sight.Saved)
}

func TestSightFailureDoesNotPreventMarkerWrite(t *testing.T) {
	f := newFixture()
	f.recorder.sightErr = errors.New("collection unavailable")
	loc := &models.Geolocation{Latitude: 1, Longitude: 2}

	_, result, err := executeRun(t, f, registered(), loc)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, result.State)
	assert.True(t, result.Marker.Saved)
	assert.True(t, result.Sight.Attempted)
	assert.False(t, result.Sight.Saved)
}

func TestMissingLocationSkipsMarkerOnly(t *testing.T) {
	f := newFixture()

	run, result, err := executeRun(t, f, registered(), nil)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, result.State)
	assert.False(t, run.Busy())
	assert.Empty(t, f.recorder.markers, "no marker write without a location fix")
	assert.False(t, result.Marker.Attempted)
	require.Len(t, f.recorder.sights, 1)
	assert.True(t, result.Sight.Saved)
}

func TestGuestRunNeverRecords(t *testing.T) {
	f := newFixture()
	loc := &models.Geolocation{Latitude: 1, Longitude: 2}

	run, result, err := executeRun(t, f, models.NewGuestAccount(), loc)
	require.NoError(t, err)

	assert.Equal(t, StateComplete, result.State)
	assert.Equal(t, StateComplete, run.State())
	assert.False(t, run.Busy())
	assert.NotNil(t, result.Artifact, "guests still get the stored artifact URL")

	assert.Empty(t, f.recorder.markers)
	assert.Empty(t, f.recorder.sights)
	assert.False(t, result.Marker.Attempted)
	assert.False(t, result.Sight.Attempted)
	assert.Empty(t, f.publisher.events)
}

func TestPreprocessFailureHaltsPipeline(t *testing.T) {
	f := newFixture()
	f.pre.err = errors.New("codec rejected image")

	run, result, err := executeRun(t, f, registered(), nil)
	require.Error(t, err)

	assert.Equal(t, StateError, run.State())
	assert.Equal(t, StageProcess, result.FailedStage)
	assert.False(t, run.Busy())

	assert.Zero(t, f.classifier.calls, "no inference after preprocess failure")
	assert.Zero(t, f.artifacts.calls)
	assert.Empty(t, f.recorder.sights)
}

func TestInferenceFailureHaltsPipeline(t *testing.T) {
	f := newFixture()
	f.classifier.err = errors.New("http 500")

	run, result, err := executeRun(t, f, registered(), &models.Geolocation{Latitude: 1, Longitude: 2})
	require.Error(t, err)

	assert.Equal(t, StateError, run.State())
	assert.Equal(t, StagePredict, result.FailedStage)
	assert.False(t, run.Busy(), "loading indicator must clear on error paths")

	assert.Zero(t, f.artifacts.calls, "no storage without a prediction")
	assert.Empty(t, f.recorder.markers)
	assert.Empty(t, f.recorder.sights)
}

func TestStorageFailureSkipsRecording(t *testing.T) {
	f := newFixture()
	f.artifacts.err = errors.New("bucket unreachable")

	run, result, err := executeRun(t, f, registered(), &models.Geolocation{Latitude: 1, Longitude: 2})
	require.Error(t, err)

	assert.Equal(t, StateError, run.State())
	assert.Equal(t, StageStore, result.FailedStage)
	assert.False(t, run.Busy())

	require.NotNil(t, result.Prediction, "identification succeeded even though saving failed")
	assert.Equal(t, "Rosa", result.Prediction.PredictedClass)
	assert.Empty(t, f.recorder.markers)
	assert.Empty(t, f.recorder.sights)
}

func TestConcurrentRunsForSameAccountAreRejected(t *testing.T) {
	f := newFixture()
	f.classifier.block = make(chan struct{})

	account := registered()

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Identify(context.Background(), account, photo(), nil)
		done <- err
	}()

	// Wait for the first run to reach the classifier.
	require.Eventually(t, func() bool {
		f.classifier.mu.Lock()
		defer f.classifier.mu.Unlock()
		return f.classifier.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.orch.Identify(context.Background(), account, photo(), nil)
	assert.ErrorIs(t, err, ErrRunInFlight)

	close(f.classifier.block)
	require.NoError(t, <-done)

	// Once settled, a new run is allowed again.
	_, err = f.orch.Identify(context.Background(), account, photo(), nil)
	assert.NoError(t, err)
}

func TestRunTransitionsAreOrdered(t *testing.T) {
	run := NewRun(registered())
	assert.Equal(t, StateIdle, run.State())

	require.NoError(t, run.BeginCapture())
	assert.Error(t, run.BeginCapture(), "double capture trigger is invalid")

	require.NoError(t, run.AttachPhoto(photo()))
	assert.Equal(t, StateCaptured, run.State())

	require.NoError(t, run.Retake())
	assert.Equal(t, StateCapturing, run.State())
	assert.Empty(t, run.Photo.Data, "retake discards the captured photo")

	require.NoError(t, run.AttachPhoto(photo()))
}

func TestExecuteRequiresCapturedRun(t *testing.T) {
	f := newFixture()
	run := NewRun(registered())

	_, err := f.orch.Execute(context.Background(), run)
	assert.Error(t, err, "run without a photo cannot be executed")
	assert.False(t, run.Busy())
}
