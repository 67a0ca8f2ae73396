package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
)

func unitSummary(d *gear.GearDescriptor) gin.H {
	return gin.H{
		"unit_id":  d.UnitID,
		"name":     d.Name,
		"type":     d.Type,
		"category": d.Category,
		"tags":     d.Tags,
	}
}

// GET /api/v1/catalog/units
func (s *Server) listUnits(c *gin.Context) {
	units := s.catalog.Units()

	response := make([]gin.H, 0, len(units))
	for _, d := range units {
		response = append(response, unitSummary(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"units": response,
		"count": len(response),
	})
}

// GET /api/v1/catalog/units/:id
func (s *Server) getUnit(c *gin.Context) {
	d, ok := s.catalog.Unit(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}

	favorite, err := s.store.IsFavorite(c.Request.Context(), d.UnitID)
	if err != nil {
		s.logger.Warn("favorite lookup failed",
			zap.String("unit_id", d.UnitID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"unit":     d,
		"favorite": favorite,
	})
}

// POST /api/v1/catalog/refresh
func (s *Server) refreshCatalog(c *gin.Context) {
	if err := s.catalog.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": s.catalog.Size()})
}

// GET /api/v1/catalog/recents
func (s *Server) listRecents(c *gin.Context) {
	ids, err := s.store.RecentUnits(c.Request.Context(), 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unit_ids": ids})
}

// GET /api/v1/catalog/favorites
func (s *Server) listFavorites(c *gin.Context) {
	ids, err := s.store.Favorites(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unit_ids": ids})
}

// PUT /api/v1/catalog/favorites/:id
func (s *Server) setFavorite(c *gin.Context) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unitID := c.Param("id")
	if err := s.store.SetFavorite(c.Request.Context(), unitID, req.Favorite); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unit_id":  unitID,
		"favorite": req.Favorite,
	})
}
