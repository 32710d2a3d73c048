package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/rapid-dispatch/backend/internal/db"
	"github.com/rapid-dispatch/backend/internal/extract"
	"github.com/rapid-dispatch/backend/internal/models"
	"github.com/rapid-dispatch/backend/internal/service"
	"github.com/rapid-dispatch/backend/internal/voice"
)

type Handler struct {
	Store     *db.Store
	Assembler *service.Assembler
	Analyzer  *service.ConversationAnalyzer
	Events    service.EventsFetcher
	Chain     extract.Chain
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CreateCallRequest struct {
	PhoneNumber    string                     `json:"phoneNumber" validate:"required"`
	Transcript     []models.TranscriptSegment `json:"transcript"`
	Emotions       []models.EmotionFrame      `json:"emotions"`
	ConversationID string                     `json:"conversationId"`
}

// @Summary Create a triaged emergency call
// @Tags calls
// @Accept json
// @Produce json
// @Param request body CreateCallRequest true "call input"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/calls [post]
func (h *Handler) CreateCall(c *gin.Context) {
	var req CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "phoneNumber is required", err.Error())
		return
	}

	segments := req.Transcript
	frames := req.Emotions
	if len(segments) == 0 && req.ConversationID != "" && h.Events != nil {
		events, err := h.Events.FetchEvents(c.Request.Context(), req.ConversationID)
		if err != nil {
			h.Logger.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("vendor events unavailable for call creation")
		} else {
			segments, frames = voice.Normalize(events)
		}
	}

	call := h.Assembler.Assemble(c.Request.Context(), req.PhoneNumber, segments, frames)

	if err := h.Store.CreateCall(c.Request.Context(), call); err != nil {
		h.Logger.Error().Err(err).Str("call_id", call.ID).Msg("failed to persist call")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save call", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "call": call})
}

// @Summary List calls
// @Tags calls
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/calls [get]
func (h *Handler) ListCalls(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListCalls(c.Request.Context(), status, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list calls", err.Error())
		return
	}
	if items == nil {
		items = []models.EmergencyCall{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) CallDetails(c *gin.Context) {
	call, err := h.Store.GetCall(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Call not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get call", err.Error())
		return
	}
	c.JSON(http.StatusOK, call)
}

type UpdateStatusRequest struct {
	Status models.CallStatus `json:"status" validate:"required,oneof=active processing pending_approval dispatched resolved closed"`
}

// @Summary Update call lifecycle status
// @Tags calls
// @Accept json
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} map[string]any
// @Router /api/calls/{id}/status [patch]
func (h *Handler) UpdateCallStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", err.Error())
		return
	}

	if err := h.Store.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Call not found", nil)
		case errors.Is(err, db.ErrTerminalStatus):
			writeError(c, http.StatusConflict, "INVALID_STATE", "Call already closed", nil)
		default:
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update status", err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

// @Summary Re-run triage over a stored call's transcript
// @Tags calls
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} map[string]any
// @Router /api/calls/{id}/reanalyze [post]
func (h *Handler) ReanalyzeCall(c *gin.Context) {
	id := c.Param("id")

	call, err := h.Store.GetCall(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Call not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load call", err.Error())
		return
	}

	var frames []models.EmotionFrame
	for _, seg := range call.Transcript {
		if len(seg.Emotions) > 0 {
			frames = append(frames, seg.Emotions)
		}
	}

	fresh, location := h.Assembler.Analyze(c.Request.Context(), call.Transcript, frames)
	merged := service.MergeAnalysis(call.AnalysisResult, fresh)

	if err := h.Store.UpdateAnalysis(c.Request.Context(), id, merged, location); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Call not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save analysis", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": merged})
}

type AnalyzeRequest struct {
	ChatGroupID string `json:"chat_group_id" validate:"required"`
	ConfigID    string `json:"config_id"`
	PhoneNumber string `json:"phone_number"`
}

// @Summary Analyze a vendor conversation
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "conversation reference"
// @Success 200 {object} map[string]any
// @Router /api/analyze [post]
func (h *Handler) AnalyzeConversation(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "chat_group_id is required", err.Error())
		return
	}

	analysis := h.Analyzer.AnalyzeConversation(c.Request.Context(), req.ChatGroupID)
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

type ExtractRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

// @Summary Extract a structured incident from a transcript
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body ExtractRequest true "transcript"
// @Success 200 {object} models.IncidentExtraction
// @Router /api/extract [post]
func (h *Handler) ExtractIncident(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "transcript is required", err.Error())
		return
	}

	extraction, method, err := h.Chain.Extract(c.Request.Context(), req.Transcript)
	if err != nil {
		h.Logger.Error().Err(err).Msg("extraction failed with no fallback")
		writeError(c, http.StatusInternalServerError, "EXTRACTION_ERROR", "Extraction failed", err.Error())
		return
	}
	c.Header("X-Analysis-Method", method)
	c.JSON(http.StatusOK, extraction)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
