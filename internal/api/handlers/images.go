package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/storage"
)

type ImageHandler struct {
	artifacts *storage.ArtifactStore
}

func NewImageHandler(artifacts *storage.ArtifactStore) *ImageHandler {
	return &ImageHandler{artifacts: artifacts}
}

// Get streams a stored capture image back to the client.
func (h *ImageHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object key"})
		return
	}

	data, err := h.artifacts.GetObject(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
