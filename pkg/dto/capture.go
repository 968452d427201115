package dto

import "github.com/google/uuid"

// AlternativeResponse is one ranked class/score pair.
type AlternativeResponse struct {
	ClassName string  `json:"class_name"`
	Score     float64 `json:"score"`
}

// PredictionResponse reports the classifier's answer. Confidence is a
// percentage in [0, 100].
type PredictionResponse struct {
	PredictedClass string                `json:"predicted_class"`
	Confidence     float64               `json:"confidence"`
	Alternatives   []AlternativeResponse `json:"alternatives"`
}

// RecordOutcomeResponse reports one best-effort record write.
type RecordOutcomeResponse struct {
	Attempted bool   `json:"attempted"`
	Saved     bool   `json:"saved"`
	Error     string `json:"error,omitempty"`
}

// CaptureResponse is the settled outcome of one identification run.
type CaptureResponse struct {
	RunID      uuid.UUID             `json:"run_id"`
	State      string                `json:"state"`
	Prediction *PredictionResponse   `json:"prediction,omitempty"`
	ImageURL   string                `json:"image_url,omitempty"`
	Marker     RecordOutcomeResponse `json:"marker"`
	Sight      RecordOutcomeResponse `json:"sight"`
	Error      string                `json:"error,omitempty"`
}
