package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hoa-assistant-backend/analytics"
)

// LogHandler handles POST /log
type LogHandler struct {
	recorder analytics.Recorder
}

// NewLogHandler creates a new log handler
func NewLogHandler(recorder analytics.Recorder) *LogHandler {
	if recorder == nil {
		recorder = analytics.NopRecorder{}
	}
	return &LogHandler{recorder: recorder}
}

// LogRequest represents the request body for POST /log
type LogRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	IP       string `json:"ip"`
}

// Log handles POST /log
func (h *LogHandler) Log(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	receipt, err := h.recorder.Record(c.Request.Context(), analytics.Entry{
		Question: req.Question,
		Answer:   req.Answer,
		IP:       req.IP,
	})
	if err != nil {
		zap.L().Error("log entry failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "logged",
		"code":   receipt.Code,
	})
}
