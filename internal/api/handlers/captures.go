package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/auth"
	"github.com/your-org/fieldsight/internal/imaging"
	"github.com/your-org/fieldsight/internal/inference"
	"github.com/your-org/fieldsight/internal/models"
	"github.com/your-org/fieldsight/internal/pipeline"
	"github.com/your-org/fieldsight/internal/storage"
	"github.com/your-org/fieldsight/pkg/dto"
)

// maxPhotoBytes caps uploads; matches the classifier backend's own limit.
const maxPhotoBytes = 50 * 1024 * 1024

// CaptureRunner runs the identification pipeline for one photo.
type CaptureRunner interface {
	Identify(ctx context.Context, account models.Account, photo models.CapturedPhoto, loc *models.Geolocation) (*pipeline.Result, error)
}

type CaptureHandler struct {
	runner CaptureRunner
}

func NewCaptureHandler(runner CaptureRunner) *CaptureHandler {
	return &CaptureHandler{runner: runner}
}

// Create accepts a multipart photo upload plus an optional geolocation fix
// and runs the capture-identify-persist pipeline for the caller's account.
func (h *CaptureHandler) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}

	photo := models.CapturedPhoto{Data: data, Filename: header.Filename}
	account := auth.AccountFrom(c)
	loc := parseLocation(c)

	result, err := h.runner.Identify(c.Request.Context(), account, photo, loc)
	if err != nil {
		h.respondError(c, result, err)
		return
	}

	c.JSON(http.StatusCreated, toCaptureResponse(result))
}

// parseLocation reads the optional latitude/longitude form fields. A missing
// or unparsable fix is not an error: the marker write is skipped while the
// rest of the pipeline proceeds.
func parseLocation(c *gin.Context) *models.Geolocation {
	latStr := c.PostForm("latitude")
	lonStr := c.PostForm("longitude")
	if latStr == "" || lonStr == "" {
		return nil
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		slog.Warn("unparsable location fix", "latitude", latStr, "longitude", lonStr)
		return nil
	}
	return &models.Geolocation{Latitude: lat, Longitude: lon}
}

func (h *CaptureHandler) respondError(c *gin.Context, result *pipeline.Result, err error) {
	if errors.Is(err, pipeline.ErrRunInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	var preErr *imaging.PreprocessError
	if errors.As(err, &preErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "could not read the photo, please retake it",
		})
		return
	}

	var infErr *inference.Error
	if errors.As(err, &infErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "identification failed: " + infErr.Error()})
		return
	}

	var upErr *storage.UploadError
	if errors.As(err, &upErr) {
		// Identification succeeded; only saving failed. Return the
		// prediction so the client can still show the result.
		resp := toCaptureResponse(result)
		resp.Error = "identification succeeded but saving the image failed"
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func toCaptureResponse(result *pipeline.Result) dto.CaptureResponse {
	resp := dto.CaptureResponse{
		RunID:  result.RunID,
		State:  string(result.State),
		Marker: dto.RecordOutcomeResponse(result.Marker),
		Sight:  dto.RecordOutcomeResponse(result.Sight),
	}
	if result.Prediction != nil {
		p := &dto.PredictionResponse{
			PredictedClass: result.Prediction.PredictedClass,
			Confidence:     result.Prediction.Confidence,
		}
		for _, alt := range result.Prediction.Alternatives {
			p.Alternatives = append(p.Alternatives, dto.AlternativeResponse(alt))
		}
		resp.Prediction = p
	}
	if result.Artifact != nil {
		resp.ImageURL = result.Artifact.URL
	}
	return resp
}
