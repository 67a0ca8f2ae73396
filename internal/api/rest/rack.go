package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/session"
	"github.com/rackworks/gearrack/internal/storage"
)

// statusFor maps session and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownUnit), errors.Is(err, storage.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidSlot), errors.Is(err, session.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func slotParam(c *gin.Context, name string) (int, bool) {
	index, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return index, true
}

// GET /api/v1/rack
func (s *Server) getRack(c *gin.Context) {
	views, err := s.session.Rack()
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slots": views,
		"count": len(views),
	})
}

// POST /api/v1/rack/slots/:index/place
func (s *Server) placeUnit(c *gin.Context) {
	index, ok := slotParam(c, "index")
	if !ok {
		return
	}

	var req struct {
		UnitID     string `json:"unit_id" binding:"required"`
		AsInstance bool   `json:"as_instance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.PlaceUnit(c.Request.Context(), index, req.UnitID, req.AsInstance); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":    index,
		"unit_id": req.UnitID,
	})
}

// DELETE /api/v1/rack/slots/:index
func (s *Server) removeUnit(c *gin.Context) {
	index, ok := slotParam(c, "index")
	if !ok {
		return
	}

	if err := s.session.Remove(index); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": index})
}

// POST /api/v1/rack/slots/:index/reset
func (s *Server) resetSlot(c *gin.Context) {
	index, ok := slotParam(c, "index")
	if !ok {
		return
	}

	var req struct {
		Detach bool `json:"detach"`
	}
	// An absent body means a plain value reset.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.ResetSlot(index, req.Detach); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":   index,
		"detach": req.Detach,
	})
}

// PATCH /api/v1/rack/slots/:index/controls/:control
func (s *Server) setControl(c *gin.Context) {
	index, ok := slotParam(c, "index")
	if !ok {
		return
	}
	control, ok := slotParam(c, "control")
	if !ok {
		return
	}

	var req struct {
		Value float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.SetControl(index, control, req.Value); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":    index,
		"control": control,
		"value":   req.Value,
	})
}

// POST /api/v1/rack/swap
func (s *Server) swapSlots(c *gin.Context) {
	var req struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.Swap(req.A, req.B); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"a": req.A, "b": req.B})
}

// POST /api/v1/rack/reset-all
func (s *Server) resetAll(c *gin.Context) {
	if err := s.session.ResetAll(); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// POST /api/v1/rack/drop-target
func (s *Server) resolveDropTarget(c *gin.Context) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	index, err := s.session.ResolveDropTarget(gear.Point{X: req.X, Y: req.Y})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": index})
}
