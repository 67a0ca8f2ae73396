package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/presets
func (s *Server) listPresets(c *gin.Context) {
	presets, err := s.store.ListPresets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"presets": presets,
		"count":   len(presets),
	})
}

// POST /api/v1/presets
func (s *Server) savePreset(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.SavePreset(c.Request.Context(), req.Name); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// POST /api/v1/presets/:name/load
func (s *Server) loadPreset(c *gin.Context) {
	name := c.Param("name")
	if err := s.session.LoadPreset(c.Request.Context(), name); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name})
}

// DELETE /api/v1/presets/:name
func (s *Server) deletePreset(c *gin.Context) {
	name := c.Param("name")
	if err := s.store.DeletePreset(c.Request.Context(), name); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name})
}
