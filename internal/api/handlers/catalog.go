package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/catalog"
	"github.com/your-org/fieldsight/internal/facts"
	"github.com/your-org/fieldsight/pkg/dto"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	facts   *facts.Client
}

func NewCatalogHandler(cat *catalog.Catalog, factsClient *facts.Client) *CatalogHandler {
	return &CatalogHandler{catalog: cat, facts: factsClient}
}

// ListClasses returns the class names of one category, the full label list
// the discovery screens are drawn from.
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	category, err := catalog.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	classes := h.catalog.Classes(category)
	c.JSON(http.StatusOK, dto.ClassListResponse{
		Category: string(category),
		Classes:  classes,
		Total:    len(classes),
	})
}

// Fact returns a short generated fun fact about a class.
func (h *CatalogHandler) Fact(c *gin.Context) {
	className := c.Param("class")
	if className == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class name is required"})
		return
	}

	fact, err := h.facts.FunFact(c.Request.Context(), className)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FactResponse{ClassName: className, Fact: fact})
}
