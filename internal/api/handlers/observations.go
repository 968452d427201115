package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/auth"
	"github.com/your-org/fieldsight/internal/catalog"
	"github.com/your-org/fieldsight/internal/models"
	"github.com/your-org/fieldsight/internal/storage"
	"github.com/your-org/fieldsight/pkg/dto"
)

type ObservationHandler struct {
	db      *storage.PostgresStore
	catalog *catalog.Catalog
}

func NewObservationHandler(db *storage.PostgresStore, cat *catalog.Catalog) *ObservationHandler {
	return &ObservationHandler{db: db, catalog: cat}
}

// ListMarkers returns the caller's map markers, or everyone's with ?all=true
// (the map's "show all" toggle).
func (h *ObservationHandler) ListMarkers(c *gin.Context) {
	account := auth.AccountFrom(c)

	var markers []models.Marker
	var err error
	if c.Query("all") == "true" {
		markers, err = h.db.ListAllMarkers(c.Request.Context(), 0)
	} else {
		markers, err = h.db.ListMarkers(c.Request.Context(), account.ID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.MarkerResponse, 0, len(markers))
	for _, m := range markers {
		resp = append(resp, dto.MarkerResponse{
			ID:             m.ID,
			Latitude:       m.Latitude,
			Longitude:      m.Longitude,
			ImageURL:       m.ImageURL,
			PredictedClass: m.PredictedClass,
			Confidence:     m.Confidence,
			Timestamp:      m.Timestamp.Format(time.RFC3339),
			Identifier:     m.Identifier,
		})
	}

	c.JSON(http.StatusOK, dto.MarkerListResponse{Markers: resp, Total: len(resp)})
}

// ListSights returns the caller's sightings grouped per class for the
// catalog screens. ?category= restricts to one class list; ?sort= is
// "alphabetical" (default) or "count".
func (h *ObservationHandler) ListSights(c *gin.Context) {
	account := auth.AccountFrom(c)

	var classes []string
	var categoryName string
	if catStr := c.Query("category"); catStr != "" {
		category, err := catalog.ParseCategory(catStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		classes = h.catalog.Classes(category)
		categoryName = string(category)
	}

	sights, err := h.db.ListSights(c.Request.Context(), account.ID, classes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	groups := groupSights(sights)
	sortGroups(groups, c.DefaultQuery("sort", "alphabetical"))

	c.JSON(http.StatusOK, dto.SightListResponse{
		Category: categoryName,
		Groups:   groups,
		Total:    len(sights),
	})
}

func groupSights(sights []models.Sight) []dto.SightGroup {
	byClass := make(map[string]*dto.SightGroup)
	var order []string
	for _, s := range sights {
		g, ok := byClass[s.PredictedClass]
		if !ok {
			g = &dto.SightGroup{PredictedClass: s.PredictedClass}
			byClass[s.PredictedClass] = g
			order = append(order, s.PredictedClass)
		}
		g.Count++
		g.ImageURLs = append(g.ImageURLs, s.ImageURL)
	}

	groups := make([]dto.SightGroup, 0, len(order))
	for _, class := range order {
		groups = append(groups, *byClass[class])
	}
	return groups
}

func sortGroups(groups []dto.SightGroup, method string) {
	switch method {
	case "count":
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Count > groups[j].Count
		})
	default:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].PredictedClass < groups[j].PredictedClass
		})
	}
}
