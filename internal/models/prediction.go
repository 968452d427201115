package models

// CapturedPhoto is the raw camera output uploaded by a client. Ephemeral:
// consumed by the preprocessor and discarded.
type CapturedPhoto struct {
	Data     []byte
	Filename string
}

// ProcessedImage is the canonical 1000x1000 JPEG derived from a captured
// photo. Immutable once produced.
type ProcessedImage struct {
	Data   []byte
	Width  int
	Height int
	Format string // always "jpeg"
}

// Alternative is one ranked class/score pair from the classifier.
type Alternative struct {
	ClassName string  `json:"class_name"`
	Score     float64 `json:"score"`
}

// Prediction is the classifier's answer for one processed image.
// Confidence and alternative scores are percentages in [0, 100].
type Prediction struct {
	PredictedClass string        `json:"predicted_class"`
	Confidence     float64       `json:"confidence"`
	Alternatives   []Alternative `json:"alternatives"`
}

// StoredArtifact is the durable copy of a processed image.
type StoredArtifact struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Geolocation is a foreground device fix supplied with a capture.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
