package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/ws", func(c *gin.Context) { s.handleWebSocket(c.Writer, c.Request) })

	api := r.Group("/api")
	api.GET("/rooms", s.listRooms)
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:code", s.getRoom)
	api.DELETE("/rooms/:code", s.deleteRoom)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request", "method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// abort writes err as {code, message} with a status derived from it.
func (s *Server) abort(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrRoomExists):
		status = http.StatusConflict
	case errorCode(err) == "internal_error":
		status = http.StatusInternalServerError
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorData{Code: errorCode(err), Message: err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": s.clock.Now().UTC()})
}

func (s *Server) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.manager.ListRooms()})
}

func (s *Server) createRoom(c *gin.Context) {
	var req CreateRoomData
	if c.Request.ContentLength != 0 {
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorData{Code: "invalid_message", Message: err.Error()})
			return
		}
	}
	state, err := s.manager.CreateRoom(c.Request.Context(), req.RoomCode, req.RoomOptions)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, RoomCreatedData{RoomCode: state.RoomCode, State: state})
}

func (s *Server) getRoom(c *gin.Context) {
	state, err := s.manager.Snapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gameState": state})
}

func (s *Server) deleteRoom(c *gin.Context) {
	if err := s.manager.DeleteRoom(c.Request.Context(), c.Param("code")); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
