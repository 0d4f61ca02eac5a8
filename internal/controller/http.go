// Package controller exposes the conversation engine over the outward
// surfaces: a JSON HTTP API and a Telegram front-end. Controllers hold no
// booking logic; they translate transport requests into engine turns.
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/controller/session"
	"github.com/campus-advising/advising_bot/internal/conversation"
	"github.com/campus-advising/advising_bot/internal/service"
)

// HTTPHandler serves the booking dialog as a session-based JSON API.
type HTTPHandler struct {
	engine   *conversation.Engine
	sessions *session.Manager
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewHTTPHandler(
	engine *conversation.Engine,
	sessions *session.Manager,
	bookings *service.BookingService,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		engine:   engine,
		sessions: sessions,
		bookings: bookings,
		logger:   logger,
	}
}

// RegisterRoutes mounts all endpoints on the router.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.POST("/session", h.startSession)
		bookingGroup.POST("/session/:sessionID/message", h.handleMessage)
	}

	r.GET("/api/students/:studentID/appointments", h.listAppointments)
	r.POST("/api/appointments/:appointmentID/cancel", h.cancelAppointment)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// startSession opens a booking dialog for a student.
func (h *HTTPHandler) startSession(c *gin.Context) {
	var input struct {
		StudentID string `json:"studentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	turn := h.engine.Start(c.Request.Context(), input.StudentID)
	sessionID := h.sessions.Open(turn.Context)

	c.JSON(http.StatusOK, gin.H{
		"sessionID": sessionID,
		"turn":      turn,
	})
}

// handleMessage advances the dialog by one student message.
func (h *HTTPHandler) handleMessage(c *gin.Context) {
	sessionID := c.Param("sessionID")

	dialog := h.sessions.Get(sessionID)
	if dialog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired session"})
		return
	}

	var input struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	turn, err := h.engine.Handle(c.Request.Context(), dialog, input.Message)
	if err != nil {
		// Context is untouched on a store failure; the client may retry
		// the same message against the same session.
		h.logger.Error("dialog turn failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong on our side, please try again"})
		return
	}

	if turn.State.Terminal() {
		h.sessions.Close(sessionID)
	}

	c.JSON(http.StatusOK, gin.H{"turn": turn})
}

// listAppointments returns a student's appointments, ordered by slot time
// by the store.
func (h *HTTPHandler) listAppointments(c *gin.Context) {
	appointments, err := h.bookings.ListForStudent(c.Request.Context(), c.Param("studentID"))
	if err != nil {
		h.logger.Error("list appointments failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list appointments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// cancelAppointment cancels one appointment on behalf of its student.
func (h *HTTPHandler) cancelAppointment(c *gin.Context) {
	var input struct {
		StudentID string `json:"studentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	err := h.bookings.Cancel(c.Request.Context(), c.Param("appointmentID"), input.StudentID)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
	case errors.Is(err, booking.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "appointment belongs to another student"})
	case err != nil:
		h.logger.Error("cancel failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel appointment"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}
