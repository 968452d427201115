package dto

import "github.com/google/uuid"

type MarkerResponse struct {
	ID             uuid.UUID `json:"id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	ImageURL       string    `json:"image_url"`
	PredictedClass string    `json:"predicted_class"`
	Confidence     float64   `json:"confidence"`
	Timestamp      string    `json:"timestamp"`
	Identifier     string    `json:"identifier"`
}

type MarkerListResponse struct {
	Markers []MarkerResponse `json:"markers"`
	Total   int              `json:"total"`
}

// SightGroup aggregates one account's sightings of a single class.
type SightGroup struct {
	PredictedClass string   `json:"predicted_class"`
	Count          int      `json:"count"`
	ImageURLs      []string `json:"image_urls"`
}

type SightListResponse struct {
	Category string       `json:"category,omitempty"`
	Groups   []SightGroup `json:"groups"`
	Total    int          `json:"total"`
}

type ClassListResponse struct {
	Category string   `json:"category"`
	Classes  []string `json:"classes"`
	Total    int      `json:"total"`
}

type FactResponse struct {
	ClassName string `json:"class_name"`
	Fact      string `json:"fact"`
}

// WSObservation is a WebSocket message delivering a newly recorded
// observation to live map/catalog clients.
type WSObservation struct {
	Type           string    `json:"type"` // observation_recorded
	RunID          uuid.UUID `json:"run_id"`
	AccountID      string    `json:"account_id"`
	PredictedClass string    `json:"predicted_class"`
	Confidence     float64   `json:"confidence"`
	ImageURL       string    `json:"image_url"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	MarkerSaved    bool      `json:"marker_saved"`
	SightSaved     bool      `json:"sight_saved"`
	Timestamp      string    `json:"timestamp"`
}
