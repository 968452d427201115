package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/models"
)

// FailureKind distinguishes how an inference call failed.
type FailureKind string

const (
	FailureNetwork FailureKind = "network" // timeout, DNS, connection refused
	FailureStatus  FailureKind = "status"  // non-2xx HTTP response
	FailureDecode  FailureKind = "decode"  // body does not match the expected shape
)

// Error is a failed inference call. Fatal to the pipeline run: no storage or
// recording happens without a prediction.
type Error struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("inference: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("inference: %s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// predictResponse is the classifier endpoint's wire shape.
type predictResponse struct {
	PredictedClass string        `json:"predicted_class"`
	Confidence     float64       `json:"confidence"`
	Top3           []alternative `json:"top3"`
}

type alternative struct {
	ClassName string  `json:"class_name"`
	Score     float64 `json:"score"`
}

// Client posts processed images to the remote classification endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Classify issues exactly one multipart POST with the image as a single
// "file" part and validates the JSON response. No automatic retry: the
// designed recovery path is the user retaking the photo.
func (c *Client) Classify(ctx context.Context, img *models.ProcessedImage) (*models.Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "upload.jpg")
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: fmt.Errorf("write image part: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: fmt.Errorf("close multipart writer: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{Kind: FailureStatus, StatusCode: resp.StatusCode}
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Kind: FailureDecode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return validate(out)
}

// validate rejects malformed payloads and canonicalises scores to the [0,100]
// percentage scale. Classifier backends have shipped both fractional and
// percentage confidences; anything at or below 1.0 is treated as a fraction.
func validate(out predictResponse) (*models.Prediction, error) {
	if out.PredictedClass == "" {
		return nil, &Error{Kind: FailureDecode, Err: fmt.Errorf("missing predicted_class")}
	}
	if len(out.Top3) == 0 {
		return nil, &Error{Kind: FailureDecode, Err: fmt.Errorf("missing top3 alternatives")}
	}

	pred := &models.Prediction{
		PredictedClass: out.PredictedClass,
		Confidence:     toPercent(out.Confidence),
	}
	for _, alt := range out.Top3 {
		if alt.ClassName == "" {
			return nil, &Error{Kind: FailureDecode, Err: fmt.Errorf("alternative with empty class_name")}
		}
		pred.Alternatives = append(pred.Alternatives, models.Alternative{
			ClassName: alt.ClassName,
			Score:     toPercent(alt.Score),
		})
	}
	return pred, nil
}

func toPercent(v float64) float64 {
	if v > 0 && v <= 1.0 {
		return v * 100
	}
	return v
}

// Ping checks the endpoint is reachable. Used by readiness checks only.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
