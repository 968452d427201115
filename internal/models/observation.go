package models

import (
	"time"

	"github.com/google/uuid"
)

// Marker is the geolocated projection of one identification, rendered on the
// map screen. Append-only.
type Marker struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	PredictedClass string    `json:"predicted_class" db:"predicted_class"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	Identifier     string    `json:"identifier" db:"identifier"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Sight is the catalog projection of one identification. No geolocation.
// Append-only.
type Sight struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	PredictedClass string    `json:"predicted_class" db:"predicted_class"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ObservationEvent is published after a pipeline run records an observation,
// feeding the live map/catalog WebSocket clients.
type ObservationEvent struct {
	RunID          uuid.UUID    `json:"run_id"`
	AccountID      string       `json:"account_id"`
	PredictedClass string       `json:"predicted_class"`
	Confidence     float64      `json:"confidence"`
	ImageURL       string       `json:"image_url"`
	Location       *Geolocation `json:"location,omitempty"`
	MarkerSaved    bool         `json:"marker_saved"`
	SightSaved     bool         `json:"sight_saved"`
	Timestamp      time.Time    `json:"timestamp"`
}
